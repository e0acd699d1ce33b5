package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"refugios-backend-go/internal/cache"
)

// Every mutation path funnels through invalidate; this pins its contract:
// the detail key, the list prefix and the refuge prefix must all be cleared,
// while other refuges' entries survive.
func TestInvalidateClearsDetailListAndRefuge(t *testing.T) {
	ctx := context.Background()
	mem := cache.NewMemoryCache()
	repo := &firestoreRenovationRepository{cache: mem, logger: zap.NewNop()}

	seed := map[string]string{
		cache.RenovationDetailKey("ren1"):  "detail-1",
		cache.RenovationDetailKey("ren2"):  "detail-2",
		cache.ActiveListKey("2025-03-10"):  "list-today",
		cache.ActiveListKey("2025-03-11"):  "list-tomorrow",
		cache.RefugeListKey("R1", true):    "refuge-1-active",
		cache.RefugeListKey("R1", false):   "refuge-1-all",
		cache.RefugeListKey("R2", true):    "refuge-2-active",
	}
	for k, v := range seed {
		require.NoError(t, mem.Set(ctx, k, v, 0))
	}

	require.NoError(t, repo.invalidate(ctx, "ren1", "R1"))

	gone := []string{
		cache.RenovationDetailKey("ren1"),
		cache.ActiveListKey("2025-03-10"),
		cache.ActiveListKey("2025-03-11"),
		cache.RefugeListKey("R1", true),
		cache.RefugeListKey("R1", false),
	}
	for _, key := range gone {
		_, ok, err := mem.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "expected %q to be invalidated", key)
	}

	kept := []string{
		cache.RenovationDetailKey("ren2"),
		cache.RefugeListKey("R2", true),
	}
	for _, key := range kept {
		_, ok, err := mem.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, "expected %q to survive", key)
	}
}

func TestCacheGetDegradesOnError(t *testing.T) {
	ctx := context.Background()
	repo := &firestoreRenovationRepository{cache: failingCache{}, logger: zap.NewNop()}

	_, ok := repo.cacheGet(ctx, "any")
	assert.False(t, ok, "cache errors must read as misses")
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) (string, bool, error) {
	return "", false, assert.AnError
}

func (failingCache) Set(context.Context, string, string, time.Duration) error { return assert.AnError }

func (failingCache) Delete(context.Context, ...string) error { return assert.AnError }

func (failingCache) DeleteByPrefix(context.Context, string) error { return assert.AnError }
