//go:build integration

package cleanup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dhruva/pkg/testutil/containers"
)

func TestRedisQueue(t *testing.T) {
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()
	require.NoError(t, rc.Client.FlushDB(ctx).Err())

	q := NewRedisQueue(rc.Client, "test:cleanup")
	require.NoError(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "first"}))
	require.NoError(t, q.Enqueue(ctx, Task{Kind: KindVettingRequest, ID: "second"}))

	task, ok, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", task.ID)

	task, ok, err = q.Dequeue(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", task.ID)

	_, ok, err = q.Dequeue(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
