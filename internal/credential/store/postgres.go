package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dhruva/internal/credential/models"
	"dhruva/internal/platform/database"
	"dhruva/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const mirrorColumns = `hash, holder, issuer, name, description, expiry_date, tx_hash,
	issued_at, verified, verified_by, verified_at, revoked, revoked_at`

func (s *PostgresStore) Create(ctx context.Context, m *models.Mirror) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO credentials (`+mirrorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		models.HashKey(m.Hash), m.Holder, m.Issuer, m.Name, m.Description,
		sql.NullInt64{Int64: m.ExpiryDate, Valid: m.ExpiryDate != 0},
		m.TxHash, m.IssuedAt, m.Verified, m.VerifiedBy, m.VerifiedAt, m.Revoked, m.RevokedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create credential mirror: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByHash(ctx context.Context, hash string) (*models.Mirror, error) {
	m, err := scanMirror(s.db.QueryRowContext(ctx,
		`SELECT `+mirrorColumns+` FROM credentials WHERE hash = $1`, models.HashKey(hash)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential mirror: %w", err)
	}
	return m, nil
}

func (s *PostgresStore) ListByHolder(ctx context.Context, holder string) ([]*models.Mirror, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mirrorColumns+` FROM credentials WHERE holder = $1 ORDER BY issued_at DESC`, holder)
	if err != nil {
		return nil, fmt.Errorf("list credential mirrors: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Mirror, 0)
	for rows.Next() {
		m, err := scanMirror(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential mirror: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential mirrors: %w", err)
	}
	return out, nil
}

// Update applies mutate under a row lock and persists the mutable columns.
func (s *PostgresStore) Update(ctx context.Context, hash string, mutate func(*models.Mirror)) (*models.Mirror, error) {
	var out *models.Mirror
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		m, err := scanMirror(tx.QueryRowContext(ctx,
			`SELECT `+mirrorColumns+` FROM credentials WHERE hash = $1 FOR UPDATE`, models.HashKey(hash)))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return sentinel.ErrNotFound
			}
			return fmt.Errorf("find credential mirror for update: %w", err)
		}
		mutate(m)
		_, err = tx.ExecContext(ctx, `
			UPDATE credentials SET
				verified = $2,
				verified_by = $3,
				verified_at = $4,
				revoked = $5,
				revoked_at = $6
			WHERE hash = $1
		`, m.Hash, m.Verified, m.VerifiedBy, m.VerifiedAt, m.Revoked, m.RevokedAt)
		if err != nil {
			return fmt.Errorf("update credential mirror: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMirror(row rowScanner) (*models.Mirror, error) {
	var (
		m          models.Mirror
		expiry     sql.NullInt64
		verifiedAt sql.NullTime
		revokedAt  sql.NullTime
	)
	if err := row.Scan(
		&m.Hash, &m.Holder, &m.Issuer, &m.Name, &m.Description, &expiry, &m.TxHash,
		&m.IssuedAt, &m.Verified, &m.VerifiedBy, &verifiedAt, &m.Revoked, &revokedAt,
	); err != nil {
		return nil, err
	}
	if expiry.Valid {
		m.ExpiryDate = expiry.Int64
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		m.VerifiedAt = &t
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		m.RevokedAt = &t
	}
	return &m, nil
}
