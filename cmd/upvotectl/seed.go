package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/upvote/pkg/limits"
	"github.com/dmitrymomot/upvote/pkg/logger"
	"github.com/dmitrymomot/upvote/repository"
	"github.com/dmitrymomot/upvote/svc/account"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

//go:embed seed.yaml
var defaultFixture []byte

type fixture struct {
	Company struct {
		Name     string `yaml:"name"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
	} `yaml:"company"`
	Applications []struct {
		Name     string            `yaml:"name"`
		Feedback []fixtureFeedback `yaml:"feedback"`
	} `yaml:"applications"`
}

type fixtureFeedback struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Status      string   `yaml:"status"`
	UserID      string   `yaml:"userId"`
	Tags        []string `yaml:"tags"`
	Voters      []string `yaml:"voters"`
}

func parseFixture(data []byte) (*fixture, error) {
	var f fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Company.Email == "" || f.Company.Password == "" {
		return nil, errors.New("fixture: company email and password are required")
	}
	return &f, nil
}

func runSeed(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	path := fs.String("file", "", "fixture YAML (defaults to the embedded demo data)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data := defaultFixture
	if *path != "" {
		var err error
		if data, err = os.ReadFile(*path); err != nil {
			return err
		}
	}
	fx, err := parseFixture(data)
	if err != nil {
		return err
	}

	subs, accountStore, err := a.subscriptions(ctx)
	if err != nil {
		return err
	}
	feedbackSvc := feedback.NewService(repository.NewFeedbackStore(a.pool), limits.NewGuard(subs))
	accounts := account.NewService(accountStore, subs)

	return seed(ctx, fx, accounts, feedbackSvc, a.log)
}

// seed is idempotent: an existing company is reused when the fixture
// password matches, and applications and feedback are matched by name and title.
func seed(ctx context.Context, fx *fixture, accounts account.Service, fb feedback.Service, log *slog.Logger) error {
	company, err := accounts.Signup(ctx, account.SignupParams{
		Email:    fx.Company.Email,
		Password: fx.Company.Password,
		Name:     fx.Company.Name,
	})
	switch {
	case errors.Is(err, account.ErrEmailAlreadyExists):
		company, err = accounts.Authenticate(ctx, fx.Company.Email, fx.Company.Password)
		if err != nil {
			return fmt.Errorf("existing company %s: %w", fx.Company.Email, err)
		}
		log.InfoContext(ctx, "company exists", logger.CompanyID(company.ID))
	case err != nil:
		return fmt.Errorf("create company: %w", err)
	default:
		log.InfoContext(ctx, "company created", logger.CompanyID(company.ID))
	}

	existing, err := fb.ListApplications(ctx, company.ID)
	if err != nil {
		return err
	}

	for _, fa := range fx.Applications {
		app := findApplication(existing, fa.Name)
		if app == nil {
			if app, err = fb.CreateApplication(ctx, company.ID, fa.Name); err != nil {
				return fmt.Errorf("create application %q: %w", fa.Name, err)
			}
			log.InfoContext(ctx, "application created", logger.ApplicationID(app.ID))
		}

		items, err := fb.ListFeedback(ctx, feedback.Scope{CompanyID: company.ID, ApplicationID: &app.ID}, "", feedback.SortRecent)
		if err != nil {
			return err
		}
		titles := make(map[string]bool, len(items))
		for _, it := range items {
			titles[it.Title] = true
		}

		for _, ff := range fa.Feedback {
			if titles[ff.Title] {
				log.DebugContext(ctx, "feedback exists", slog.String("title", ff.Title))
				continue
			}
			if err := seedFeedback(ctx, fb, company.ID, app.ID, ff); err != nil {
				return fmt.Errorf("seed %q: %w", ff.Title, err)
			}
			log.InfoContext(ctx, "feedback created", slog.String("title", ff.Title))
		}
	}
	return nil
}

func seedFeedback(ctx context.Context, fb feedback.Service, companyID, appID uuid.UUID, ff fixtureFeedback) error {
	item, err := fb.SubmitFeedback(ctx, feedback.SubmitParams{
		ApplicationID: appID,
		UserID:        ff.UserID,
		Title:         ff.Title,
		Description:   ff.Description,
		Tags:          ff.Tags,
	})
	if err != nil {
		return err
	}

	if ff.Status != "" && feedback.Status(ff.Status) != item.Status {
		status := feedback.Status(ff.Status)
		if _, err := fb.UpdateFeedback(ctx, companyID, feedback.UpdateParams{ID: item.ID, Status: &status}); err != nil {
			return err
		}
	}

	for _, voter := range ff.Voters {
		if _, err := fb.Vote(ctx, feedback.VoteParams{
			ApplicationID: appID,
			FeedbackID:    item.ID,
			UserID:        voter,
			Type:          feedback.VoteUp,
		}); err != nil {
			return err
		}
	}
	return nil
}

func findApplication(apps []feedback.Application, name string) *feedback.Application {
	for i := range apps {
		if apps[i].Name == name {
			return &apps[i]
		}
	}
	return nil
}
