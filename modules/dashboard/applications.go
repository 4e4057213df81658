package dashboard

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/upvote/handler"
	"github.com/dmitrymomot/upvote/svc/feedback"
)

type ApplicationsResponse struct {
	Applications []feedback.Application `json:"applications"`
}

type ApplicationResponse struct {
	Application *feedback.Application `json:"application"`
}

func (d *Dashboard) listApplications(ctx handler.Context, companyID uuid.UUID, _ struct{}) handler.Response {
	apps, err := d.feedback.ListApplications(ctx, companyID)
	if err != nil {
		return handler.Error(err)
	}
	return handler.JSON(ApplicationsResponse{Applications: apps})
}

type CreateApplicationRequest struct {
	Name string `json:"name"`
}

func (d *Dashboard) createApplication(ctx handler.Context, companyID uuid.UUID, req CreateApplicationRequest) handler.Response {
	if strings.TrimSpace(req.Name) == "" {
		return handler.Error(errApplicationName)
	}
	app, err := d.feedback.CreateApplication(ctx, companyID, req.Name)
	if err != nil {
		return handler.Error(domainError(err))
	}
	return handler.Created(ApplicationResponse{Application: app})
}

type RenameApplicationRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (d *Dashboard) renameApplication(ctx handler.Context, companyID uuid.UUID, req RenameApplicationRequest) handler.Response {
	if req.ID == "" {
		return handler.Error(errApplicationIDRequired)
	}
	if strings.TrimSpace(req.Name) == "" {
		return handler.Error(errApplicationName)
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errApplicationNotFound)
	}

	app, err := d.feedback.RenameApplication(ctx, companyID, id, req.Name)
	if err != nil {
		return handler.Error(domainError(err))
	}
	return handler.JSON(ApplicationResponse{Application: app})
}

type DeleteApplicationRequest struct {
	ID string `query:"id"`
}

func (d *Dashboard) deleteApplication(ctx handler.Context, companyID uuid.UUID, req DeleteApplicationRequest) handler.Response {
	if req.ID == "" {
		return handler.Error(errApplicationIDRequired)
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errApplicationNotFound)
	}

	if err := d.feedback.DeleteApplication(ctx, companyID, id); err != nil {
		return handler.Error(domainError(err))
	}
	return handler.JSON(map[string]bool{"success": true})
}

type EmbedRequest struct {
	ID       string `path:"id"`
	Position string `query:"position"`
	Theme    string `query:"theme"`
}

type EmbedResponse struct {
	ApplicationID uuid.UUID `json:"applicationId"`
	Code          string    `json:"code"`
}

// embedSnippet returns the HTML a customer pastes into their product. The
// end-user id is a placeholder the customer replaces with their own user id.
func (d *Dashboard) embedSnippet(ctx handler.Context, companyID uuid.UUID, req EmbedRequest) handler.Response {
	id, err := uuid.Parse(req.ID)
	if err != nil {
		return handler.Error(errApplicationNotFound)
	}
	app, err := d.feedback.GetApplication(ctx, companyID, id)
	if err != nil {
		return handler.Error(domainError(err))
	}

	position := "right"
	if req.Position == "left" {
		position = "left"
	}
	theme := "light"
	if req.Theme == "dark" {
		theme = "dark"
	}

	return handler.JSON(EmbedResponse{
		ApplicationID: app.ID,
		Code:          embedCode(d.cfg.PublicURL, app.ID, position, theme),
	})
}

func embedCode(baseURL string, appID uuid.UUID, position, theme string) string {
	return fmt.Sprintf(`<!-- UpVote Feedback Widget -->
<div
  class="upvote-widget"
  data-application-id="%s"
  data-user-id="USER_ID_FROM_YOUR_APP"
  data-position="%s"
  data-theme="%s">
</div>
<script src="%s/widget.js"></script>`, appID, position, theme, baseURL)
}
