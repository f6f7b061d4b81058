package search

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"placesbot/internal/geo"
	"placesbot/internal/metrics"
	"placesbot/internal/models"
	"placesbot/internal/storage"
)

// Service runs proximity searches against a candidate store
type Service struct {
	store   storage.CandidateStore
	match   TypeMatcher
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithTypeMatcher replaces the default MatchTags policy
func WithTypeMatcher(m TypeMatcher) Option {
	return func(s *Service) {
		if m != nil {
			s.match = m
		}
	}
}

// WithMetrics records every search on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a search service over store
func NewService(store storage.CandidateStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:  store,
		match:  MatchTags,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search returns every venue within req.RadiusMeters of req.Origin that
// passes the type and keyword filters, nearest first. The cutoff uses the
// haversine distance, the reported distance is geodesic. Venues at equal
// distance keep the order the store returned them in. Venues without valid
// coordinates are skipped.
func (s *Service) Search(ctx context.Context, req Request) ([]models.RankedResult, error) {
	start := time.Now()

	box := geo.NewBoundingBox(req.Origin, req.RadiusMeters)
	candidates, err := s.store.QueryByBoundingBox(ctx, box)
	if err != nil {
		s.metrics.ObserveSearch(req.TypeFilter, metrics.OutcomeError, 0, time.Since(start))
		s.logger.Error("Candidate store query failed",
			zap.Error(err),
			zap.String("origin", req.Origin.String()),
			zap.Float64("radius", req.RadiusMeters),
		)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	keyword := strings.ToLower(req.Keyword)
	results := make([]models.RankedResult, 0, len(candidates))
	skipped := 0

	for _, venue := range candidates {
		if venue.Location == nil || venue.Location.Validate() != nil {
			skipped++
			continue
		}
		if !geo.InRange(req.Origin, *venue.Location, req.RadiusMeters) {
			continue
		}
		if !s.match(venue, req.TypeFilter) {
			continue
		}
		if keyword != "" && !strings.Contains(strings.ToLower(venue.Name), keyword) {
			continue
		}

		results = append(results, models.RankedResult{
			Venue:          venue,
			DistanceMeters: geo.GeodesicMeters(req.Origin, *venue.Location),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceMeters < results[j].DistanceMeters
	})

	if skipped > 0 {
		s.logger.Debug("Skipped venues without coordinates", zap.Int("count", skipped))
	}

	outcome := metrics.OutcomeOK
	if len(results) == 0 {
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveSearch(req.TypeFilter, outcome, len(results), time.Since(start))

	s.logger.Debug("Search completed",
		zap.String("origin", req.Origin.String()),
		zap.Float64("radius", req.RadiusMeters),
		zap.String("type", req.TypeFilter),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Details returns the full record of one venue. storage.ErrNotFound is
// passed through; any other failure is wrapped in ErrStoreUnavailable.
func (s *Service) Details(ctx context.Context, placeID string) (*models.VenueDetails, error) {
	details, err := s.store.GetVenueDetails(ctx, placeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("Venue details lookup failed", zap.Error(err), zap.String("place_id", placeID))
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return details, nil
}
