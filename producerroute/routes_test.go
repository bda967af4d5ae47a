package producerroute

import (
	"context"
	"testing"

	"github.com/fsvxavier/nexs-stomp/broker/brokertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectCachesRoute(t *testing.T) {
	router := brokertest.NewRouter()
	cache := NewCache(router, 10)

	r1, err := cache.Connect(context.Background(), "/queue/a")
	require.NoError(t, err)

	r2, err := cache.Connect(context.Background(), "/queue/a")
	require.NoError(t, err)

	assert.Same(t, r1, r2, "second Connect for the same destination must reuse the cached route")
	assert.Equal(t, 1, cache.Len())
}

func TestCapacityNeverExceedsConfiguredSize(t *testing.T) {
	router := brokertest.NewRouter()
	cache := NewCache(router, 2)

	for _, dest := range []string{"/queue/a", "/queue/b", "/queue/c"} {
		_, err := cache.Connect(context.Background(), dest)
		require.NoError(t, err)
		assert.LessOrEqual(t, cache.Len(), 2)
	}
	assert.Equal(t, 2, cache.Len())
}

func TestEvictionDisconnectsBeforeForgetting(t *testing.T) {
	router := brokertest.NewRouter()
	cache := NewCache(router, 2)

	_, _ = cache.Connect(context.Background(), "/queue/a")
	_, _ = cache.Connect(context.Background(), "/queue/b")
	_, _ = cache.Connect(context.Background(), "/queue/c") // evicts /queue/a (LRU)

	disconnected := router.DisconnectedRoutes()
	require.Len(t, disconnected, 1)
	assert.Equal(t, "/queue/a", disconnected[0].Destination)

	_, ok := cache.Get("/queue/a")
	assert.False(t, ok)
}

func TestGetRefreshesRecency(t *testing.T) {
	router := brokertest.NewRouter()
	cache := NewCache(router, 2)

	_, _ = cache.Connect(context.Background(), "/queue/a")
	_, _ = cache.Connect(context.Background(), "/queue/b")
	_, _ = cache.Get("/queue/a") // touch a, making b the LRU entry

	_, _ = cache.Connect(context.Background(), "/queue/c") // should evict b, not a

	disconnected := router.DisconnectedRoutes()
	require.Len(t, disconnected, 1)
	assert.Equal(t, "/queue/b", disconnected[0].Destination)
}

func TestDefaultCapacityAppliedWhenNonPositive(t *testing.T) {
	router := brokertest.NewRouter()
	cache := NewCache(router, 0)
	assert.Equal(t, DefaultCapacity, cache.capacity)
}

func TestRemoveAllDisconnectsEverything(t *testing.T) {
	router := brokertest.NewRouter()
	cache := NewCache(router, 10)
	_, _ = cache.Connect(context.Background(), "/queue/a")
	_, _ = cache.Connect(context.Background(), "/queue/b")

	cache.RemoveAll()

	assert.Equal(t, 0, cache.Len())
	assert.Len(t, router.DisconnectedRoutes(), 2)
}
