package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"dhruva/internal/approval/models"
	"dhruva/internal/platform/database"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

// PostgresStore persists approval requests. The partial unique index
// approval_requests_one_pending backs CreatePending; metadata is JSONB.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const requestColumns = `id, requester, organization, document_hash, document_name, document_type,
	description, file_url, status, response_message, issued_credential_hash,
	requested_at, responded_at, expiry_date, metadata`

func (s *PostgresStore) CreatePending(ctx context.Context, req *models.Request) error {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return fmt.Errorf("encode approval metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO approval_requests (`+requestColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		uuid.UUID(req.ID),
		req.Requester,
		req.Organization,
		req.DocumentHash,
		req.DocumentName,
		req.DocumentType,
		req.Description,
		req.FileURL,
		string(req.Status),
		req.ResponseMessage,
		req.IssuedCredentialHash,
		req.RequestedAt,
		req.RespondedAt,
		nullableExpiry(req.ExpiryDate),
		metadata,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.ApprovalID) (*models.Request, error) {
	r, err := scanRequest(s.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM approval_requests WHERE id = $1`, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find approval request: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByOrganization(ctx context.Context, organization string, status domain.ReviewStatus) ([]*models.Request, error) {
	if status == "" {
		return s.query(ctx, `SELECT `+requestColumns+` FROM approval_requests
			WHERE organization = $1 ORDER BY requested_at DESC`, organization)
	}
	return s.query(ctx, `SELECT `+requestColumns+` FROM approval_requests
		WHERE organization = $1 AND status = $2 ORDER BY requested_at DESC`, organization, string(status))
}

func (s *PostgresStore) ListByRequester(ctx context.Context, requester string) ([]*models.Request, error) {
	return s.query(ctx, `SELECT `+requestColumns+` FROM approval_requests
		WHERE requester = $1 ORDER BY requested_at DESC`, requester)
}

func (s *PostgresStore) query(ctx context.Context, query string, args ...any) ([]*models.Request, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval request: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approval requests: %w", err)
	}
	return out, nil
}

// Execute atomically validates and mutates a request under a row lock.
func (s *PostgresStore) Execute(ctx context.Context, id domain.ApprovalID, validate func(*models.Request) error, mutate func(*models.Request)) (*models.Request, error) {
	var out *models.Request
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		r, err := scanRequest(tx.QueryRowContext(ctx,
			`SELECT `+requestColumns+` FROM approval_requests WHERE id = $1 FOR UPDATE`, uuid.UUID(id)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("find approval request for execute: %w", err)
		}
		if err := validate(r); err != nil {
			return err
		}
		mutate(r)
		_, err = tx.ExecContext(ctx, `
			UPDATE approval_requests SET
				status = $2,
				response_message = $3,
				issued_credential_hash = $4,
				responded_at = $5
			WHERE id = $1
		`, uuid.UUID(r.ID), string(r.Status), r.ResponseMessage, r.IssuedCredentialHash, r.RespondedAt)
		if err != nil {
			return fmt.Errorf("update approval request: %w", err)
		}
		out = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeletePending deletes the request only while pending. A zero-row delete
// is disambiguated into not found or invalid state.
func (s *PostgresStore) DeletePending(ctx context.Context, id domain.ApprovalID) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM approval_requests WHERE id = $1 AND status = 'pending'`, uuid.UUID(id))
	if err != nil {
		return fmt.Errorf("delete approval request: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete approval request rows affected: %w", err)
	}
	if rows == 1 {
		return nil
	}

	var status string
	err = s.db.QueryRowContext(ctx, `SELECT status FROM approval_requests WHERE id = $1`, uuid.UUID(id)).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check approval request status: %w", err)
	}
	return sentinel.ErrInvalidState
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.Request, error) {
	var (
		r           models.Request
		id          uuid.UUID
		status      string
		respondedAt sql.NullTime
		expiry      sql.NullInt64
		metadata    []byte
	)
	if err := row.Scan(
		&id, &r.Requester, &r.Organization, &r.DocumentHash, &r.DocumentName, &r.DocumentType,
		&r.Description, &r.FileURL, &status, &r.ResponseMessage, &r.IssuedCredentialHash,
		&r.RequestedAt, &respondedAt, &expiry, &metadata,
	); err != nil {
		return nil, err
	}
	r.ID = domain.ApprovalID(id)
	r.Status = domain.ReviewStatus(status)
	if respondedAt.Valid {
		t := respondedAt.Time
		r.RespondedAt = &t
	}
	if expiry.Valid {
		r.ExpiryDate = expiry.Int64
	}
	r.Metadata = map[string]any{}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &r.Metadata); err != nil {
			return nil, fmt.Errorf("decode approval metadata: %w", err)
		}
	}
	return &r, nil
}

func nullableExpiry(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}
