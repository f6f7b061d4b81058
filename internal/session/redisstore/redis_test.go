package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	redisTC "github.com/testcontainers/testcontainers-go/modules/redis"

	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/session"
)

// setupTestStore starts a Redis container and returns a store over it
func setupTestStore(t *testing.T, ttl time.Duration) (*Store, *redis.Client, func()) {
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx := context.Background()

	redisContainer, err := redisTC.Run(ctx, "redis:7-alpine")
	require.NoError(t, err, "Failed to start Redis container")

	uri, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)

	client, err := Connect(ctx, opts.Addr, "", 0)
	require.NoError(t, err, "Failed to connect to Redis")

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return New(client, ttl, session.DefaultRadiusMeters), client, cleanup
}

func TestStore_SessionRoundTrip(t *testing.T) {
	store, client, cleanup := setupTestStore(t, 0)
	defer cleanup()

	ctx := context.Background()

	fresh, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, session.StateIdle, fresh.State)
	assert.Equal(t, session.DefaultRadiusMeters, fresh.RadiusMeters)

	fresh.Location = &geo.Point{Latitude: 50.45, Longitude: 30.52}
	fresh.RadiusMeters = 1500
	fresh.State = session.StateListing
	fresh.Draft = &session.ReviewDraft{PlaceID: "p", Step: session.DraftScore, Name: "Ann"}
	require.NoError(t, store.Save(ctx, fresh))

	loaded, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, fresh, loaded)

	exists, err := client.Exists(ctx, "placesbot:session:42").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), exists)
}

func TestStore_Results(t *testing.T) {
	store, _, cleanup := setupTestStore(t, 0)
	defer cleanup()

	ctx := context.Background()

	results := []models.RankedResult{
		{Venue: models.Venue{PlaceID: "a", Name: "A", TypeTags: []string{"cafe"}}, DistanceMeters: 12.5},
	}
	require.NoError(t, store.SaveResults(ctx, 1, "set-1", results))

	got, err := store.LoadResults(ctx, 1, "set-1")
	require.NoError(t, err)
	assert.Equal(t, results, got)

	_, err = store.LoadResults(ctx, 1, "set-0")
	assert.ErrorIs(t, err, session.ErrResultSetExpired)

	_, err = store.LoadResults(ctx, 2, "set-1")
	assert.ErrorIs(t, err, session.ErrResultSetExpired)
}

func TestStore_ListsAndReset(t *testing.T) {
	store, client, cleanup := setupTestStore(t, 0)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, session.New(5, 0)))
	require.NoError(t, store.SaveResults(ctx, 5, "s", nil))
	require.NoError(t, store.SaveList(ctx, 5, "favorites", []string{"x", "y"}))
	require.NoError(t, store.SaveList(ctx, 5, "reviews", []int{1, 2, 3}))

	var favs []string
	found, err := store.LoadList(ctx, 5, "favorites", &favs)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"x", "y"}, favs)

	require.NoError(t, store.Reset(ctx, 5))

	keys, err := client.Keys(ctx, "placesbot:*:5*").Result()
	require.NoError(t, err)
	assert.Empty(t, keys)

	found, err = store.LoadList(ctx, 5, "favorites", &favs)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_TTL(t *testing.T) {
	store, client, cleanup := setupTestStore(t, time.Hour)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, session.New(9, 0)))

	ttl, err := client.TTL(ctx, "placesbot:session:9").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}
