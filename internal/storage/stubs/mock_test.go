package stubs

import (
	"context"
	"errors"
	"testing"
	"time"

	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/storage"
)

var center = geo.Point{Latitude: 50.4501, Longitude: 30.5234}

func TestMockDB_QueryByBoundingBox(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	if err := db.Initialize(ctx); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}

	// 500 m around the centre excludes the Podil bar (~1.6 km away)
	venues, err := db.QueryByBoundingBox(ctx, geo.NewBoundingBox(center, 500))
	if err != nil {
		t.Fatalf("Failed to query venues: %v", err)
	}

	ids := make(map[string]bool)
	for _, v := range venues {
		ids[v.PlaceID] = true
	}

	if !ids["mock-cafe-khreshchatyk"] || !ids["mock-restaurant-maidan"] {
		t.Errorf("Expected central venues, got %v", ids)
	}
	if ids["mock-bar-podil"] {
		t.Error("Expected Podil bar to be outside the box")
	}
}

func TestMockDB_QueryKeepsInsertionOrder(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		db.AddVenue(models.VenueDetails{Venue: models.Venue{PlaceID: id, Location: &center}})
	}

	venues, err := db.QueryByBoundingBox(ctx, geo.NewBoundingBox(center, 10))
	if err != nil {
		t.Fatalf("Failed to query venues: %v", err)
	}

	if len(venues) != 3 || venues[0].PlaceID != "c" || venues[1].PlaceID != "a" || venues[2].PlaceID != "b" {
		t.Errorf("Expected insertion order c,a,b, got %+v", venues)
	}
}

func TestMockDB_GetVenueDetails(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()
	_ = db.Initialize(ctx)

	details, err := db.GetVenueDetails(ctx, "mock-cafe-khreshchatyk")
	if err != nil {
		t.Fatalf("Failed to get details: %v", err)
	}
	if details.Name != "Khreshchatyk Coffee" {
		t.Errorf("Expected Khreshchatyk Coffee, got %s", details.Name)
	}

	_, err = db.GetVenueDetails(ctx, "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestMockDB_GetPhotos(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	db.AddPhoto("p1", models.Photo{URL: "https://example.com/1.jpg"})
	db.AddPhoto("p1", models.Photo{URL: "https://example.com/2.jpg"})
	db.AddPhoto("p1", models.Photo{URL: "https://example.com/3.jpg"})

	photos, err := db.GetPhotos(ctx, "p1", 2)
	if err != nil {
		t.Fatalf("Failed to get photos: %v", err)
	}
	if len(photos) != 2 {
		t.Errorf("Expected 2 photos, got %d", len(photos))
	}

	none, _ := db.GetPhotos(ctx, "p2", 10)
	if len(none) != 0 {
		t.Errorf("Expected no photos, got %d", len(none))
	}
}

func TestMockDB_Users(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	ok, _ := db.IsRegistered(ctx, 42)
	if ok {
		t.Fatal("Expected user to be unregistered")
	}

	if err := db.RegisterUser(ctx, models.User{TelegramID: 42, PhoneNumber: "+380000000000"}); err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}
	// Registering twice is fine
	if err := db.RegisterUser(ctx, models.User{TelegramID: 42, PhoneNumber: "+380111111111"}); err != nil {
		t.Fatalf("Failed to re-register user: %v", err)
	}

	ok, _ = db.IsRegistered(ctx, 42)
	if !ok {
		t.Error("Expected user to be registered")
	}
}

func TestMockDB_Favorites(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	tick := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	_ = db.AddFavorite(ctx, 1, "a")
	_ = db.AddFavorite(ctx, 1, "b")
	_ = db.AddFavorite(ctx, 1, "a")
	_ = db.AddFavorite(ctx, 2, "c")

	ids, err := db.ListFavorites(ctx, 1)
	if err != nil {
		t.Fatalf("Failed to list favorites: %v", err)
	}
	if len(ids) != 2 || ids[0] != "b" || ids[1] != "a" {
		t.Errorf("Expected [b a], got %v", ids)
	}

	fav, _ := db.IsFavorite(ctx, 1, "a")
	if !fav {
		t.Error("Expected a to be a favorite")
	}

	if err := db.RemoveFavorite(ctx, 1, "a"); err != nil {
		t.Fatalf("Failed to remove favorite: %v", err)
	}
	fav, _ = db.IsFavorite(ctx, 1, "a")
	if fav {
		t.Error("Expected a to be removed")
	}

	others, _ := db.ListFavorites(ctx, 2)
	if len(others) != 1 {
		t.Errorf("Expected other user's favorite untouched, got %v", others)
	}
}

func TestMockDB_Reviews(t *testing.T) {
	db := NewMockDB()
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	first, err := db.AddReview(ctx, models.Review{PlaceID: "p", UserID: 1, Name: "Ann", Score: 4, Text: "ok", CreatedAt: base})
	if err != nil {
		t.Fatalf("Failed to add review: %v", err)
	}
	second, _ := db.AddReview(ctx, models.Review{PlaceID: "p", UserID: 2, Name: "Bob", Score: 5, Text: "great", CreatedAt: base.Add(time.Hour)})
	_, _ = db.AddReview(ctx, models.Review{PlaceID: "q", UserID: 1, Name: "Ann", Score: 2, Text: "meh", CreatedAt: base.Add(2 * time.Hour)})

	reviews, _ := db.ListPlaceReviews(ctx, "p")
	if len(reviews) != 2 || reviews[0].ID != second || reviews[1].ID != first {
		t.Errorf("Expected newest first, got %+v", reviews)
	}

	mine, _ := db.ListUserReviews(ctx, 1)
	if len(mine) != 2 || mine[0].PlaceID != "q" {
		t.Errorf("Expected user reviews newest first, got %+v", mine)
	}

	if err := db.UpdateReview(ctx, models.Review{ID: first, Name: "Ann", Score: 1, Text: "changed"}); err != nil {
		t.Fatalf("Failed to update review: %v", err)
	}
	got, _ := db.GetReview(ctx, first)
	if got.Score != 1 || got.Text != "changed" || got.PlaceID != "p" {
		t.Errorf("Unexpected review after update: %+v", got)
	}

	if err := db.UpdateReview(ctx, models.Review{ID: 999}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
