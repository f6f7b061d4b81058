package storage

import (
	"context"
	"errors"

	"placesbot/internal/geo"
	"placesbot/internal/models"
)

// ErrNotFound is returned when a lookup by identifier matches no row
var ErrNotFound = errors.New("not found")

// CandidateStore is the venue source consumed by the search service
type CandidateStore interface {
	// QueryByBoundingBox returns venues whose coordinates fall inside box,
	// bounds included. A box with MinLon > MaxLon wraps the antimeridian.
	QueryByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]models.Venue, error)

	// GetVenueDetails returns the full record for placeID or ErrNotFound
	GetVenueDetails(ctx context.Context, placeID string) (*models.VenueDetails, error)
}

// Places is a CandidateStore that can also serve venue photos
type Places interface {
	CandidateStore

	// GetPhotos returns up to limit photos of a venue; none is not an error
	GetPhotos(ctx context.Context, placeID string, limit int) ([]models.Photo, error)
}

// UserStore keeps bot users together with their favourites and reviews
type UserStore interface {
	// User operations
	RegisterUser(ctx context.Context, user models.User) error
	IsRegistered(ctx context.Context, userID int64) (bool, error)

	// Favourite operations
	AddFavorite(ctx context.Context, userID int64, placeID string) error
	RemoveFavorite(ctx context.Context, userID int64, placeID string) error
	IsFavorite(ctx context.Context, userID int64, placeID string) (bool, error)

	// ListFavorites returns the user's saved place ids, newest first
	ListFavorites(ctx context.Context, userID int64) ([]string, error)

	// Review operations

	// AddReview stores a new review and returns its id
	AddReview(ctx context.Context, review models.Review) (int64, error)
	// UpdateReview overwrites name, score, text and (when set) date of an
	// existing review
	UpdateReview(ctx context.Context, review models.Review) error
	GetReview(ctx context.Context, id int64) (*models.Review, error)
	// ListPlaceReviews returns the bot users' reviews of a venue, newest first
	ListPlaceReviews(ctx context.Context, placeID string) ([]models.Review, error)
	// ListUserReviews returns the reviews written by one user, newest first
	ListUserReviews(ctx context.Context, userID int64) ([]models.Review, error)
}

// Lifecycle is implemented by every backend
type Lifecycle interface {
	Initialize(ctx context.Context) error
	Close() error
}

// Storage is a backend that serves both places and user data
type Storage interface {
	Places
	UserStore
	Lifecycle
}
