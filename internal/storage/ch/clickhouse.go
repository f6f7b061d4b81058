package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"placesbot/internal/geo"
	"placesbot/internal/models"
	"placesbot/internal/storage"
)

// ClickHouseDB serves the places mirror from a ClickHouse table. User data
// (favourites, reviews) lives elsewhere.
type ClickHouseDB struct {
	conn   clickhouse.Conn
	logger *zap.Logger
}

var _ storage.Places = (*ClickHouseDB)(nil)

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool, logger *zap.Logger) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, logger: logger}, nil
}

// Initialize is a no-op - tables are managed via migrations
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	return nil
}

// QueryByBoundingBox returns venues inside box ordered by place id
func (db *ClickHouseDB) QueryByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]models.Venue, error) {
	lonPredicate := "longitude BETWEEN ? AND ?"
	if box.CrossesAntimeridian() {
		lonPredicate = "(longitude >= ? OR longitude <= ?)"
	}

	query := `SELECT place_id, latitude, longitude, name, formatted_address, types
		FROM places FINAL
		WHERE latitude BETWEEN ? AND ? AND ` + lonPredicate + `
		ORDER BY place_id`

	rows, err := db.conn.Query(ctx, query, box.MinLat, box.MaxLat, box.MinLon, box.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		var (
			v        models.Venue
			lat, lon *float64
		)
		if err := rows.Scan(&v.PlaceID, &lat, &lon, &v.Name, &v.FormattedAddress, &v.TypeTags); err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		if lat != nil && lon != nil {
			v.Location = &geo.Point{Latitude: *lat, Longitude: *lon}
		}
		venues = append(venues, v)
	}
	return venues, rows.Err()
}

// GetVenueDetails returns one venue or storage.ErrNotFound
func (db *ClickHouseDB) GetVenueDetails(ctx context.Context, placeID string) (*models.VenueDetails, error) {
	row := db.conn.QueryRow(ctx, `SELECT place_id, latitude, longitude, name, formatted_address, types,
			weekday_text, rating, price_level, url, website, international_phone_number,
			opening_hours, reviews, photos
		FROM places FINAL
		WHERE place_id = ?
		LIMIT 1`, placeID)

	var (
		d                     models.VenueDetails
		lat, lon              *float64
		priceLevel            *int32
		openingHours, reviews string
	)
	err := row.Scan(&d.PlaceID, &lat, &lon, &d.Name, &d.FormattedAddress, &d.TypeTags,
		&d.WeekdayText, &d.Rating, &priceLevel, &d.URL, &d.Website, &d.Phone,
		&openingHours, &reviews, &d.PhotoRefs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("place %q: %w", placeID, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get place %q: %w", placeID, err)
	}

	if lat != nil && lon != nil {
		d.Location = &geo.Point{Latitude: *lat, Longitude: *lon}
	}
	if priceLevel != nil {
		level := int(*priceLevel)
		d.PriceLevel = &level
	}
	if openingHours != "" {
		var hours models.OpeningHours
		if err := json.Unmarshal([]byte(openingHours), &hours); err != nil {
			db.logger.Warn("Bad opening_hours JSON", zap.String("place_id", placeID), zap.Error(err))
		} else {
			d.OpeningHours = &hours
		}
	}
	if reviews != "" {
		if err := json.Unmarshal([]byte(reviews), &d.GoogleReviews); err != nil {
			db.logger.Warn("Bad reviews JSON", zap.String("place_id", placeID), zap.Error(err))
		}
	}

	return &d, nil
}

// GetPhotos returns the photo URLs stored with the venue
func (db *ClickHouseDB) GetPhotos(ctx context.Context, placeID string, limit int) ([]models.Photo, error) {
	var urls []string
	err := db.conn.QueryRow(ctx, `SELECT photos FROM places FINAL WHERE place_id = ? LIMIT 1`, placeID).Scan(&urls)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get photos of %q: %w", placeID, err)
	}

	if limit > 0 && limit < len(urls) {
		urls = urls[:limit]
	}
	photos := make([]models.Photo, 0, len(urls))
	for _, u := range urls {
		photos = append(photos, models.Photo{URL: u})
	}
	return photos, nil
}

// InsertPlaces writes venues in one batch. Rows with an existing place id
// replace the old ones on merge.
func (db *ClickHouseDB) InsertPlaces(ctx context.Context, venues []models.VenueDetails) error {
	batch, err := db.conn.PrepareBatch(ctx, `INSERT INTO places (place_id, latitude, longitude, name,
		formatted_address, types, weekday_text, rating, price_level, url, website,
		international_phone_number, opening_hours, reviews, photos)`)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, v := range venues {
		var lat, lon *float64
		if v.Location != nil {
			lat, lon = &v.Location.Latitude, &v.Location.Longitude
		}
		var priceLevel *int32
		if v.PriceLevel != nil {
			level := int32(*v.PriceLevel)
			priceLevel = &level
		}
		openingHours, err := marshalOrEmpty(v.OpeningHours)
		if err != nil {
			return err
		}
		reviews, err := marshalOrEmpty(v.GoogleReviews)
		if err != nil {
			return err
		}
		typeTags := v.TypeTags
		if typeTags == nil {
			typeTags = []string{}
		}
		photos := v.PhotoRefs
		if photos == nil {
			photos = []string{}
		}

		if err := batch.Append(v.PlaceID, lat, lon, v.Name, v.FormattedAddress, typeTags,
			v.WeekdayText, v.Rating, priceLevel, v.URL, v.Website, v.Phone,
			openingHours, reviews, photos); err != nil {
			return fmt.Errorf("failed to append place %q: %w", v.PlaceID, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert places: %w", err)
	}
	return nil
}

func marshalOrEmpty(v any) (string, error) {
	switch x := v.(type) {
	case *models.OpeningHours:
		if x == nil {
			return "", nil
		}
	case []models.GoogleReview:
		if len(x) == 0 {
			return "", nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
