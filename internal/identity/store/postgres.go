package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dhruva/internal/identity/models"
	"dhruva/internal/platform/database"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

// PostgresStore persists accounts in PostgreSQL. Uniqueness of username and
// wallet is enforced by indexes and surfaced as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const accountColumns = `id, username, role, wallet_address, is_approved, approved_by, approved_at,
	organization_name, website, description, created_at, updated_at`

func (s *PostgresStore) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query, accountArgs(account)...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.findOne(ctx, "find account by id", query, uuid.UUID(id))
}

func (s *PostgresStore) FindByWallet(ctx context.Context, wallet string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE wallet_address = $1`
	return s.findOne(ctx, "find account by wallet", query, domain.CanonicalAddress(wallet))
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE LOWER(username) = $1`
	return s.findOne(ctx, "find account by username", query, strings.ToLower(strings.TrimSpace(username)))
}

func (s *PostgresStore) Save(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts SET
			wallet_address = $2,
			is_approved = $3,
			approved_by = $4,
			approved_at = $5,
			organization_name = $6,
			website = $7,
			description = $8,
			updated_at = $9
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		uuid.UUID(account.ID),
		nullableWallet(account.WalletAddress),
		account.IsApproved,
		account.ApprovedBy,
		account.ApprovedAt,
		account.Organization.Name,
		account.Organization.Website,
		account.Organization.Description,
		account.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save account rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, arg any) (*models.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a       models.Account
		id      uuid.UUID
		role    string
		wallet  sql.NullString
		apprvAt sql.NullTime
	)
	if err := row.Scan(
		&id, &a.Username, &role, &wallet, &a.IsApproved, &a.ApprovedBy, &apprvAt,
		&a.Organization.Name, &a.Organization.Website, &a.Organization.Description,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	a.ID = domain.AccountID(id)
	a.Role = models.Role(role)
	a.WalletAddress = wallet.String
	if apprvAt.Valid {
		t := apprvAt.Time
		a.ApprovedAt = &t
	}
	return &a, nil
}

func accountArgs(a *models.Account) []any {
	return []any{
		uuid.UUID(a.ID),
		a.Username,
		string(a.Role),
		nullableWallet(a.WalletAddress),
		a.IsApproved,
		a.ApprovedBy,
		a.ApprovedAt,
		a.Organization.Name,
		a.Organization.Website,
		a.Organization.Description,
		a.CreatedAt,
		a.UpdatedAt,
	}
}

// nullableWallet stores "no wallet" as NULL so the partial unique index
// ignores it.
func nullableWallet(wallet string) sql.NullString {
	return sql.NullString{String: wallet, Valid: wallet != ""}
}
