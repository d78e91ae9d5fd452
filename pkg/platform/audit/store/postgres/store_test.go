package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "dhruva/pkg/platform/audit"
)

func TestStore_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO audit_events").
		WithArgs("01HX", "vetting", ts, audit.ActionVettingDecided, "vet-1", "admin", "approved", "", "req-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = New(db).Append(context.Background(), audit.Event{
		ID: "01HX", Category: audit.CategoryVetting, Timestamp: ts,
		Action: audit.ActionVettingDecided, Subject: "vet-1", ActorID: "admin",
		Decision: "approved", RequestID: "req-1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_AppendWrapsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO audit_events").WillReturnError(errors.New("connection reset"))

	err = New(db).Append(context.Background(), audit.Event{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit event")
}

func TestStore_ListBySubject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2026, 4, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "category", "timestamp", "action", "subject", "actor_id", "decision", "reason", "request_id"}).
		AddRow("02", "workflow", ts, audit.ActionApprovalDecided, "req-1", "0xbbb", "approved", "", "").
		AddRow("01", "workflow", ts, audit.ActionApprovalSubmitted, "req-1", "0xaaa", "", "", "")
	mock.ExpectQuery("SELECT id, category, timestamp .* FROM audit_events WHERE subject = \\$1").
		WithArgs("req-1").
		WillReturnRows(rows)

	events, err := New(db).ListBySubject(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.CategoryWorkflow, events[0].Category)
	assert.Equal(t, "02", events[0].ID)
}

func TestStore_ListRecentClampsLimit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("ORDER BY id DESC LIMIT").
		WithArgs(2147483647).
		WillReturnRows(sqlmock.NewRows([]string{"id", "category", "timestamp", "action", "subject", "actor_id", "decision", "reason", "request_id"}))

	events, err := New(db).ListRecent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, events)
}
