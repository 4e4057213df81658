package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/upvote/pkg/pg"
	"github.com/dmitrymomot/upvote/svc/account"
)

const companyColumns = `id, email, name, password_hash, google_id, created_at`

// AccountStore is the PostgreSQL account.Store.
type AccountStore struct {
	db DB
}

// NewAccountStore returns an AccountStore backed by db.
func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

var _ account.Store = (*AccountStore)(nil)

func (s *AccountStore) CreateCompany(ctx context.Context, c *account.Company) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO companies (id, email, name, password_hash, google_id, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		c.ID, c.Email, c.Name, nullBytes(c.PasswordHash), c.GoogleID, c.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return account.ErrEmailAlreadyExists
	}
	return err
}

func (s *AccountStore) GetCompanyByID(ctx context.Context, id uuid.UUID) (*account.Company, error) {
	return s.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
}

func (s *AccountStore) GetCompanyByEmail(ctx context.Context, email string) (*account.Company, error) {
	return s.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE lower(email) = lower($1)`, email)
}

func (s *AccountStore) GetCompanyByGoogleID(ctx context.Context, googleID string) (*account.Company, error) {
	return s.getOne(ctx, `SELECT `+companyColumns+` FROM companies WHERE google_id = $1`, googleID)
}

func (s *AccountStore) SetGoogleID(ctx context.Context, id uuid.UUID, googleID string) error {
	tag, err := s.db.Exec(ctx, `UPDATE companies SET google_id = $2 WHERE id = $1`, id, googleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return account.ErrCompanyNotFound
	}
	return nil
}

func (s *AccountStore) ListCompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM companies ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (s *AccountStore) getOne(ctx context.Context, query string, arg any) (*account.Company, error) {
	var (
		c        account.Company
		googleID *string
	)
	err := s.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.Email, &c.Name, &c.PasswordHash, &googleID, &c.CreatedAt)
	if pg.IsNotFoundError(err) {
		return nil, account.ErrCompanyNotFound
	}
	if err != nil {
		return nil, errors.Join(account.ErrFailedToGetCompany, err)
	}
	if googleID != nil {
		c.GoogleID = *googleID
	}
	return &c, nil
}

func nullBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
