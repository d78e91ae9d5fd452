package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dhruva/internal/platform/database"
	"dhruva/internal/vetting/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

// PostgresStore persists vetting requests. The partial unique index
// vetting_requests_one_pending backs CreatePending.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, account_id, wallet_address, organization_name, website, description,
	status, reviewed_by, reviewed_at, rejection_reason, created_at`

func (s *PostgresStore) CreatePending(ctx context.Context, req *models.Request) (*models.Request, bool, error) {
	query := `
		INSERT INTO vetting_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (account_id) WHERE status = 'pending' DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(req.ID),
		uuid.UUID(req.AccountID),
		req.WalletAddress,
		req.OrganizationName,
		req.Website,
		req.Description,
		string(req.Status),
		req.ReviewedBy,
		req.ReviewedAt,
		req.RejectionReason,
		req.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, false, sentinel.ErrConflict
		}
		return nil, false, fmt.Errorf("create vetting request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("create vetting request rows affected: %w", err)
	}
	if rows == 1 {
		return req.Clone(), true, nil
	}

	existing, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM vetting_requests WHERE account_id = $1 AND status = 'pending'`,
		uuid.UUID(req.AccountID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The pending row was decided between the insert and this read.
			return nil, false, sentinel.ErrConflict
		}
		return nil, false, fmt.Errorf("find pending vetting request: %w", err)
	}
	return existing, false, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.VettingID) (*models.Request, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM vetting_requests WHERE id = $1`, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find vetting request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.Request, error) {
	return s.query(ctx, `SELECT `+requestColumns+` FROM vetting_requests ORDER BY created_at DESC`)
}

func (s *PostgresStore) ListByStatus(ctx context.Context, status domain.ReviewStatus) ([]*models.Request, error) {
	return s.query(ctx, `SELECT `+requestColumns+` FROM vetting_requests WHERE status = $1 ORDER BY created_at DESC`, string(status))
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list vetting requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Request
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan vetting request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vetting requests: %w", err)
	}
	return out, nil
}

// Execute atomically validates and mutates a request under a row lock.
func (s *PostgresStore) Execute(ctx context.Context, id domain.VettingID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	var out *models.Request
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := scanRequest(tx.QueryRowContext(ctx,
			`SELECT `+requestColumns+` FROM vetting_requests WHERE id = $1 FOR UPDATE`, uuid.UUID(id)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("find vetting request for execute: %w", err)
		}
		if err := validate(r); err != nil {
			return err
		}
		mutate(r)
		_, err = tx.ExecContext(ctx, `
			UPDATE vetting_requests SET
				status = $2,
				reviewed_by = $3,
				reviewed_at = $4,
				rejection_reason = $5
			WHERE id = $1
		`, uuid.UUID(r.ID), string(r.Status), r.ReviewedBy, r.ReviewedAt, r.RejectionReason)
		if err != nil {
			return fmt.Errorf("update vetting request: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.VettingID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM vetting_requests WHERE id = $1`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete vetting request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vetting request rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r          models.Request
		id, acctID uuid.UUID
		status     string
		reviewedAt sql.NullTime
	)
	if err := row.Scan(
		&id, &acctID, &r.WalletAddress, &r.OrganizationName, &r.Website, &r.Description,
		&status, &r.ReviewedBy, &reviewedAt, &r.RejectionReason, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.ID = domain.VettingID(id)
	r.AccountID = domain.AccountID(acctID)
	r.Status = domain.ReviewStatus(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time
		r.ReviewedAt = &t
	}
	return &r, nil
}
