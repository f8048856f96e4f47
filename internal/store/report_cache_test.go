package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"classattend/internal/attendance"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestReportCacheStoreAndInvalidate(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	cache := NewReportCache(client, time.Minute)
	classID := uuid.NewString()
	rows := []attendance.Summary{{StudentID: "s1", StudentName: "Ana", TotalDays: 3, Present: 2, Sick: 1, AttendancePercentage: 67}}

	gen, err := cache.Generation(ctx, classID)
	require.NoError(t, err)
	require.NoError(t, cache.StoreMonthly(ctx, classID, 2024, time.March, gen, rows))

	got, ok, err := cache.Monthly(ctx, classID, 2024, time.March)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rows, got)

	require.NoError(t, cache.Invalidate(ctx, classID))
	_, ok, err = cache.Monthly(ctx, classID, 2024, time.March)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReportCacheRejectsStaleGeneration(t *testing.T) {
	client := testRedis(t)
	ctx := context.Background()
	cache := NewReportCache(client, time.Minute)
	classID := uuid.NewString()

	gen, err := cache.Generation(ctx, classID)
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx, classID))

	err = cache.StoreMonthly(ctx, classID, 2024, time.March, gen, []attendance.Summary{})
	assert.ErrorIs(t, err, ErrStaleGeneration)

	_, ok, err := cache.Monthly(ctx, classID, 2024, time.March)
	require.NoError(t, err)
	assert.False(t, ok)
}
