// Package gplaces serves venues straight from the Google Places API.
package gplaces

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"googlemaps.github.io/maps"

	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/storage"
)

const (
	// maxPages is the Places API limit of 3 pages x 20 results
	maxPages = 3
	// maxRadius is the largest radius NearbySearch accepts
	maxRadius = 50000
	// photoMaxWidth is the width photos are downloaded at
	photoMaxWidth = 800
)

// DefaultTypes are searched when no types are configured
var DefaultTypes = []string{"cafe", "restaurant", "bar"}

// Store queries the live Places API. NearbySearch is circle based, so a
// bounding box is sent as its centre and radius and the answers are
// clipped to the box.
type Store struct {
	client    *maps.Client
	types     []string
	language  string
	pageDelay time.Duration
	logger    *zap.Logger
}

var _ storage.Places = (*Store)(nil)

// Option configures a Store
type Option func(*Store)

// WithTypes sets the place types searched for every query
func WithTypes(types ...string) Option {
	return func(s *Store) {
		if len(types) > 0 {
			s.types = types
		}
	}
}

// WithLanguage sets the language of names and addresses
func WithLanguage(lang string) Option {
	return func(s *Store) {
		s.language = lang
	}
}

// WithPageDelay sets the wait before a next_page_token becomes valid
func WithPageDelay(d time.Duration) Option {
	return func(s *Store) {
		s.pageDelay = d
	}
}

// New creates a Store over an API client
func New(client *maps.Client, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		client:    client,
		types:     DefaultTypes,
		pageDelay: 2 * time.Second,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewClient creates a Places API client for apiKey
func NewClient(apiKey string, opts ...maps.ClientOption) (*maps.Client, error) {
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}
	return client, nil
}

// Initialize is a no-op
func (s *Store) Initialize(ctx context.Context) error {
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// QueryByBoundingBox runs one NearbySearch per configured type in parallel
// and merges the answers in type order, dropping duplicates
func (s *Store) QueryByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]models.Venue, error) {
	radius := uint(math.Ceil(box.RadiusMeters))
	if radius > maxRadius {
		radius = maxRadius
	}

	perType := make([][]models.Venue, len(s.types))
	g, gctx := errgroup.WithContext(ctx)
	for i, placeType := range s.types {
		g.Go(func() error {
			venues, err := s.nearby(gctx, box.Center, radius, placeType)
			if err != nil {
				return fmt.Errorf("nearby search %s: %w", placeType, err)
			}
			perType[i] = venues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var venues []models.Venue
	for _, list := range perType {
		for _, v := range list {
			if seen[v.PlaceID] {
				continue
			}
			seen[v.PlaceID] = true
			if v.Location != nil && !box.Contains(*v.Location) {
				continue
			}
			venues = append(venues, v)
		}
	}
	return venues, nil
}

func (s *Store) nearby(ctx context.Context, center geo.Point, radius uint, placeType string) ([]models.Venue, error) {
	req := &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: center.Latitude, Lng: center.Longitude},
		Radius:   radius,
		Type:     maps.PlaceType(placeType),
		Language: s.language,
	}

	var venues []models.Venue
	for page := 0; page < maxPages; page++ {
		if page > 0 {
			// next_page_token needs a moment before it is accepted
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.pageDelay):
			}
		}

		resp, err := s.client.NearbySearch(ctx, req)
		if err != nil {
			if page == 0 {
				return nil, err
			}
			s.logger.Warn("Nearby search pagination stopped",
				zap.String("type", placeType),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		for _, r := range resp.Results {
			address := r.FormattedAddress
			if address == "" {
				address = r.Vicinity
			}
			venues = append(venues, models.Venue{
				PlaceID:          r.PlaceID,
				Location:         &geo.Point{Latitude: r.Geometry.Location.Lat, Longitude: r.Geometry.Location.Lng},
				TypeTags:         r.Types,
				Name:             r.Name,
				FormattedAddress: address,
			})
		}

		if resp.NextPageToken == "" {
			break
		}
		req.PageToken = resp.NextPageToken
	}
	return venues, nil
}

// GetVenueDetails calls Place Details
func (s *Store) GetVenueDetails(ctx context.Context, placeID string) (*models.VenueDetails, error) {
	resp, err := s.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID:  placeID,
		Language: s.language,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("place %q: %w", placeID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("place details %q: %w", placeID, err)
	}

	details := &models.VenueDetails{
		Venue: models.Venue{
			PlaceID:          resp.PlaceID,
			Location:         &geo.Point{Latitude: resp.Geometry.Location.Lat, Longitude: resp.Geometry.Location.Lng},
			TypeTags:         resp.Types,
			Name:             resp.Name,
			FormattedAddress: resp.FormattedAddress,
		},
		URL:     resp.URL,
		Website: resp.Website,
		Phone:   resp.InternationalPhoneNumber,
	}
	if resp.Rating > 0 {
		rating := float64(resp.Rating)
		details.Rating = &rating
	}
	if resp.PriceLevel > 0 {
		level := resp.PriceLevel
		details.PriceLevel = &level
	}
	if resp.OpeningHours != nil {
		details.OpeningHours = convertOpeningHours(resp.OpeningHours)
		details.WeekdayText = strings.Join(resp.OpeningHours.WeekdayText, "\n")
	}
	for _, r := range resp.Reviews {
		details.GoogleReviews = append(details.GoogleReviews, models.GoogleReview{
			AuthorName: r.AuthorName,
			Rating:     r.Rating,
			Text:       r.Text,
			Time:       int64(r.Time),
		})
	}
	for _, p := range resp.Photos {
		details.PhotoRefs = append(details.PhotoRefs, p.PhotoReference)
	}

	return details, nil
}

func convertOpeningHours(h *maps.OpeningHours) *models.OpeningHours {
	out := &models.OpeningHours{WeekdayText: h.WeekdayText}
	for _, p := range h.Periods {
		period := models.OpeningPeriod{
			Open: models.OpeningTime{Day: int(p.Open.Day), Time: p.Open.Time},
		}
		if p.Close.Time != "" {
			period.Close = &models.OpeningTime{Day: int(p.Close.Day), Time: p.Close.Time}
		}
		out.Periods = append(out.Periods, period)
	}
	return out
}

// GetPhotos downloads up to limit photos of a venue
func (s *Store) GetPhotos(ctx context.Context, placeID string, limit int) ([]models.Photo, error) {
	details, err := s.GetVenueDetails(ctx, placeID)
	if err != nil {
		return nil, err
	}

	refs := details.PhotoRefs
	if limit > 0 && limit < len(refs) {
		refs = refs[:limit]
	}

	photos := make([]models.Photo, 0, len(refs))
	for _, ref := range refs {
		resp, err := s.client.PlacePhoto(ctx, &maps.PlacePhotoRequest{
			PhotoReference: ref,
			MaxWidth:       photoMaxWidth,
		})
		if err != nil {
			s.logger.Warn("Failed to fetch photo", zap.String("place_id", placeID), zap.Error(err))
			continue
		}
		data, err := io.ReadAll(resp.Data)
		resp.Data.Close()
		if err != nil {
			s.logger.Warn("Failed to read photo", zap.String("place_id", placeID), zap.Error(err))
			continue
		}
		photos = append(photos, models.Photo{Data: data})
	}
	return photos, nil
}

func isNotFound(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "NOT_FOUND") || strings.Contains(msg, "INVALID_REQUEST")
}
