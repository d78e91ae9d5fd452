package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhruva/internal/identity/models"
	"dhruva/pkg/domain"
	"dhruva/pkg/platform/sentinel"
)

var accountCols = []string{
	"id", "username", "role", "wallet_address", "is_approved", "approved_by", "approved_at",
	"organization_name", "website", "description", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgres(db), mock
}

func TestPostgresStore_CreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMockStore(t)
	account, err := models.NewAccount(domain.NewAccountID(), "acme", models.RoleOrganization, "0xbbb", models.OrganizationProfile{}, time.Now())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO accounts").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err = store.Create(context.Background(), account)
	assert.ErrorIs(t, err, sentinel.ErrConflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateStoresNullWallet(t *testing.T) {
	store, mock := newMockStore(t)
	account, err := models.NewAccount(domain.NewAccountID(), "alice", models.RoleHolder, "", models.OrganizationProfile{}, time.Now())
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO accounts").
		WithArgs(account.ID.String(), "alice", "holder", nil, true, "", sqlmock.AnyArg(),
			"", "", "", account.CreatedAt, account.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), account))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindByWallet(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("FROM accounts WHERE wallet_address = \\$1").
		WithArgs("0xbbb").
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow(id.String(), "acme", "organization", "0xbbb", true, "admin", now, "Acme", "", "", now, now))

	account, err := store.FindByWallet(context.Background(), "0xBBB")
	require.NoError(t, err)
	assert.Equal(t, domain.AccountID(id), account.ID)
	assert.Equal(t, models.RoleOrganization, account.Role)
	assert.True(t, account.IsApproved)
	require.NotNil(t, account.ApprovedAt)
	assert.Equal(t, now, *account.ApprovedAt)
}

func TestPostgresStore_FindNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("FROM accounts WHERE id = \\$1").WillReturnError(sql.ErrNoRows)

	_, err := store.FindByID(context.Background(), domain.NewAccountID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresStore_Save(t *testing.T) {
	account, err := models.NewAccount(domain.NewAccountID(), "acme", models.RoleOrganization, "", models.OrganizationProfile{}, time.Now())
	require.NoError(t, err)

	t.Run("missing row", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE accounts SET").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, store.Save(context.Background(), account), sentinel.ErrNotFound)
	})

	t.Run("wallet taken", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE accounts SET").WillReturnError(&pgconn.PgError{Code: "23505"})
		assert.ErrorIs(t, store.Save(context.Background(), account), sentinel.ErrConflict)
	})

	t.Run("ok", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec("UPDATE accounts SET").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, store.Save(context.Background(), account))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
