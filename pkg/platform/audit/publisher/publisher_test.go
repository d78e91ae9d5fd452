package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "dhruva/pkg/platform/audit"
)

type failingStore struct {
	audit.InMemoryStore
	err error
}

func (s *failingStore) Append(context.Context, audit.Event) error { return s.err }

func TestPublisher_EmitAssignsIDAndTimestamp(t *testing.T) {
	store := audit.NewInMemoryStore()
	pub := New(store)

	err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionApprovalSubmitted, Subject: "req-1"})
	require.NoError(t, err)

	events, err := pub.ListBySubject(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Len(t, events[0].ID, 26)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestPublisher_KeepsCallerTimestamp(t *testing.T) {
	store := audit.NewInMemoryStore()
	pub := New(store)
	ts := time.Date(2026, 2, 2, 2, 2, 2, 0, time.UTC)

	require.NoError(t, pub.Emit(context.Background(), audit.Event{Timestamp: ts, Subject: "s"}))

	events, _ := store.ListBySubject(context.Background(), "s")
	require.Len(t, events, 1)
	assert.Equal(t, ts, events[0].Timestamp)
}

func TestPublisher_SyncSurfacesStoreError(t *testing.T) {
	pub := New(&failingStore{err: errors.New("db down")})
	err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionVettingDecided})
	require.Error(t, err)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := audit.NewInMemoryStore()
	pub := New(store, WithAsyncBuffer(16))

	for range 10 {
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Subject: "batch"}))
	}
	pub.Close()
	pub.Close()

	events, _ := store.ListBySubject(context.Background(), "batch")
	assert.Len(t, events, 10)
}
