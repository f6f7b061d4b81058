package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"placesbot/internal/geo"
	"placesbot/internal/models"
)

func TestMemoryStore_LoadFresh(t *testing.T) {
	store := NewMemoryStore(500)

	s, err := store.Load(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, s.State)
	assert.Equal(t, 500, s.RadiusMeters)
}

func TestMemoryStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultRadiusMeters)

	s := New(1, 0)
	s.Location = &geo.Point{Latitude: 1, Longitude: 2}
	require.NoError(t, store.Save(ctx, s))

	s.RadiusMeters = 2000
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2000, loaded.RadiusMeters)
	assert.Equal(t, s.Location, loaded.Location)

	// The stored copy is independent of the caller's value
	loaded.Location.Latitude = 50
	again, _ := store.Load(ctx, 1)
	assert.Equal(t, 1.0, again.Location.Latitude)
}

func TestMemoryStore_Results(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultRadiusMeters)

	_, err := store.LoadResults(ctx, 1, "first")
	assert.ErrorIs(t, err, ErrResultSetExpired)

	results := []models.RankedResult{
		{Venue: models.Venue{PlaceID: "a"}, DistanceMeters: 10},
		{Venue: models.Venue{PlaceID: "b"}, DistanceMeters: 20},
	}
	require.NoError(t, store.SaveResults(ctx, 1, "first", results))

	got, err := store.LoadResults(ctx, 1, "first")
	require.NoError(t, err)
	assert.Equal(t, results, got)

	// A newer search replaces the set; buttons of the old one expire
	require.NoError(t, store.SaveResults(ctx, 1, "second", nil))
	_, err = store.LoadResults(ctx, 1, "first")
	assert.ErrorIs(t, err, ErrResultSetExpired)

	empty, err := store.LoadResults(ctx, 1, "second")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryStore_Lists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultRadiusMeters)

	var ids []string
	found, err := store.LoadList(ctx, 1, "favorites", &ids)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.SaveList(ctx, 1, "favorites", []string{"a", "b"}))
	require.NoError(t, store.SaveList(ctx, 12, "favorites", []string{"z"}))

	found, err = store.LoadList(ctx, 1, "favorites", &ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, store.Reset(ctx, 1))
	found, _ = store.LoadList(ctx, 1, "favorites", &ids)
	assert.False(t, found)

	// Another chat whose id shares a prefix is untouched
	var other []string
	found, _ = store.LoadList(ctx, 12, "favorites", &other)
	assert.True(t, found)
	assert.Equal(t, []string{"z"}, other)
}

func TestMemoryStore_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(DefaultRadiusMeters)

	s := New(3, 4000)
	s.State = StateListing
	require.NoError(t, store.Save(ctx, s))
	require.NoError(t, store.SaveResults(ctx, 3, "x", nil))

	require.NoError(t, store.Reset(ctx, 3))

	loaded, err := store.Load(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, loaded.State)
	assert.Equal(t, DefaultRadiusMeters, loaded.RadiusMeters)

	_, err = store.LoadResults(ctx, 3, "x")
	assert.ErrorIs(t, err, ErrResultSetExpired)
}
