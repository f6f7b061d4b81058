package stubs

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/storage"
)

// MockDB is an in-memory implementation of storage.Storage for tests and
// local runs without MySQL
type MockDB struct {
	mu           sync.RWMutex
	venues       []models.VenueDetails // insertion order is kept
	photos       map[string][]models.Photo
	users        map[int64]models.User
	favorites    []models.Favorite
	reviews      []models.Review
	nextReviewID int64
	now          func() time.Time
}

var _ storage.Storage = (*MockDB)(nil)

// NewMockDB creates an empty mock database
func NewMockDB() *MockDB {
	return &MockDB{
		photos: make(map[string][]models.Photo),
		users:  make(map[int64]models.User),
		now:    time.Now,
	}
}

// Initialize seeds a handful of venues around Kyiv city centre
func (m *MockDB) Initialize(ctx context.Context) error {
	for _, v := range DemoVenues() {
		m.AddVenue(v)
	}
	return nil
}

// DemoVenues are the venues around Maidan Nezalezhnosti in Kyiv that the
// mock and the dev environment start with
func DemoVenues() []models.VenueDetails {
	rating := 4.6
	price := 2
	yes := true

	return []models.VenueDetails{
		{
			Venue: models.Venue{
				PlaceID:          "mock-cafe-khreshchatyk",
				Location:         &geo.Point{Latitude: 50.4474, Longitude: 30.5225},
				TypeTags:         []string{"cafe", "food", "point_of_interest", "establishment"},
				Name:             "Khreshchatyk Coffee",
				FormattedAddress: "Khreshchatyk St, 22, Kyiv, Ukraine, 02000",
			},
			Rating:      &rating,
			PriceLevel:  &price,
			DineIn:      &yes,
			Phone:       "+380 44 000 0001",
			WeekdayText: "Monday: 8:00 AM – 10:00 PM",
		},
		{
			Venue: models.Venue{
				PlaceID:          "mock-restaurant-maidan",
				Location:         &geo.Point{Latitude: 50.4502, Longitude: 30.5241},
				TypeTags:         []string{"restaurant", "food", "establishment"},
				Name:             "Maidan Kitchen",
				FormattedAddress: "Maidan Nezalezhnosti, 1, Kyiv, Ukraine, 02000",
			},
			Rating: &rating,
		},
		{
			Venue: models.Venue{
				PlaceID:          "mock-bar-podil",
				Location:         &geo.Point{Latitude: 50.4643, Longitude: 30.5190},
				TypeTags:         []string{"bar", "night_club", "establishment"},
				Name:             "Podil Taproom",
				FormattedAddress: "Sahaidachnoho St, 10, Kyiv, Ukraine, 04070",
			},
		},
		{
			Venue: models.Venue{
				PlaceID:          "mock-internet-cafe",
				Location:         &geo.Point{Latitude: 50.4510, Longitude: 30.5220},
				TypeTags:         []string{"internet_cafe", "establishment"},
				Name:             "Byte Club",
				FormattedAddress: "Instytutska St, 4, Kyiv, Ukraine, 01001",
			},
		},
	}
}

// Close is a no-op
func (m *MockDB) Close() error {
	return nil
}

// AddVenue appends a venue. A venue with the same place id is replaced in place.
func (m *MockDB) AddVenue(v models.VenueDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.venues {
		if m.venues[i].PlaceID == v.PlaceID {
			m.venues[i] = v
			return
		}
	}
	m.venues = append(m.venues, v)
}

// AddPhoto attaches a photo to a venue
func (m *MockDB) AddPhoto(placeID string, photo models.Photo) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.photos[placeID] = append(m.photos[placeID], photo)
}

// QueryByBoundingBox returns venues inside box in insertion order. Venues
// without coordinates are passed through so callers can exercise their
// handling of partially populated rows.
func (m *MockDB) QueryByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]models.Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var venues []models.Venue
	for _, v := range m.venues {
		if v.Location == nil || box.Contains(*v.Location) {
			venues = append(venues, v.Venue)
		}
	}
	return venues, nil
}

// GetVenueDetails returns a copy of the stored record
func (m *MockDB) GetVenueDetails(ctx context.Context, placeID string) (*models.VenueDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, v := range m.venues {
		if v.PlaceID == placeID {
			details := v
			return &details, nil
		}
	}
	return nil, fmt.Errorf("place %q: %w", placeID, storage.ErrNotFound)
}

// GetPhotos returns up to limit photos of a venue
func (m *MockDB) GetPhotos(ctx context.Context, placeID string, limit int) ([]models.Photo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	photos := m.photos[placeID]
	if limit > 0 && limit < len(photos) {
		photos = photos[:limit]
	}
	return append([]models.Photo(nil), photos...), nil
}

// RegisterUser stores the user; registering twice keeps the first record
func (m *MockDB) RegisterUser(ctx context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.TelegramID]; ok {
		return nil
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = m.now()
	}
	m.users[user.TelegramID] = user
	return nil
}

// IsRegistered reports whether the user shared their contact
func (m *MockDB) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.users[userID]
	return ok, nil
}

// AddFavorite saves a place for the user; adding twice is a no-op
func (m *MockDB) AddFavorite(ctx context.Context, userID int64, placeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, f := range m.favorites {
		if f.UserID == userID && f.PlaceID == placeID {
			return nil
		}
	}
	m.favorites = append(m.favorites, models.Favorite{UserID: userID, PlaceID: placeID, CreatedAt: m.now()})
	return nil
}

// RemoveFavorite deletes a saved place
func (m *MockDB) RemoveFavorite(ctx context.Context, userID int64, placeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.favorites[:0]
	for _, f := range m.favorites {
		if f.UserID != userID || f.PlaceID != placeID {
			kept = append(kept, f)
		}
	}
	m.favorites = kept
	return nil
}

// IsFavorite reports whether the user saved the place
func (m *MockDB) IsFavorite(ctx context.Context, userID int64, placeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.favorites {
		if f.UserID == userID && f.PlaceID == placeID {
			return true, nil
		}
	}
	return false, nil
}

// ListFavorites returns the user's saved place ids, newest first
func (m *MockDB) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for i := len(m.favorites) - 1; i >= 0; i-- {
		if m.favorites[i].UserID == userID {
			ids = append(ids, m.favorites[i].PlaceID)
		}
	}
	return ids, nil
}

// AddReview stores a review and assigns it an id
func (m *MockDB) AddReview(ctx context.Context, review models.Review) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextReviewID++
	review.ID = m.nextReviewID
	if review.CreatedAt.IsZero() {
		review.CreatedAt = m.now()
	}
	m.reviews = append(m.reviews, review)
	return review.ID, nil
}

// UpdateReview overwrites name, score, text and (when set) date of a review
func (m *MockDB) UpdateReview(ctx context.Context, review models.Review) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.reviews {
		if m.reviews[i].ID == review.ID {
			m.reviews[i].Name = review.Name
			m.reviews[i].Score = review.Score
			m.reviews[i].Text = review.Text
			if !review.CreatedAt.IsZero() {
				m.reviews[i].CreatedAt = review.CreatedAt
			}
			return nil
		}
	}
	return fmt.Errorf("review %d: %w", review.ID, storage.ErrNotFound)
}

// GetReview returns one review by id
func (m *MockDB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.reviews {
		if r.ID == id {
			review := r
			return &review, nil
		}
	}
	return nil, fmt.Errorf("review %d: %w", id, storage.ErrNotFound)
}

// ListPlaceReviews returns reviews of a place, newest first
func (m *MockDB) ListPlaceReviews(ctx context.Context, placeID string) ([]models.Review, error) {
	return m.filterReviews(func(r models.Review) bool { return r.PlaceID == placeID }), nil
}

// ListUserReviews returns reviews written by a user, newest first
func (m *MockDB) ListUserReviews(ctx context.Context, userID int64) ([]models.Review, error) {
	return m.filterReviews(func(r models.Review) bool { return r.UserID == userID }), nil
}

func (m *MockDB) filterReviews(keep func(models.Review) bool) []models.Review {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Review
	for _, r := range m.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}

	// Newest first, later ids win ties
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
