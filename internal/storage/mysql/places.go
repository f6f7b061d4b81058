package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"placesbot/internal/geo"
	"placesbot/internal/models"
)

// placeRow maps the Places table
type placeRow struct {
	PlaceID          string   `gorm:"column:place_id;primaryKey"`
	Latitude         *float64 `gorm:"column:latitude"`
	Longitude        *float64 `gorm:"column:longitude"`
	Name             string   `gorm:"column:name"`
	FormattedAddress string   `gorm:"column:formatted_address"`
	Types            *string  `gorm:"column:types"`
	WeekdayText      *string  `gorm:"column:weekday_text"`
	Rating           *float64 `gorm:"column:rating"`
	PriceLevel       *int     `gorm:"column:price_level"`
	URL              *string  `gorm:"column:url"`
	Website          *string  `gorm:"column:website"`
	Phone            *string  `gorm:"column:international_phone_number"`
	DineIn           *bool    `gorm:"column:dine_in"`
	Delivery         *bool    `gorm:"column:delivery"`
	Reservable       *bool    `gorm:"column:reservable"`
	OpeningHours     *string  `gorm:"column:opening_hours"`
	Reviews          *string  `gorm:"column:reviews"`
	Photos           *string  `gorm:"column:photos"`
}

func (placeRow) TableName() string {
	return "Places"
}

// photoRow maps the PlacePhotos table
type photoRow struct {
	ID        int64  `gorm:"column:id;primaryKey"`
	PlaceID   string `gorm:"column:place_id"`
	PhotoData []byte `gorm:"column:photo_data"`
}

func (photoRow) TableName() string {
	return "PlacePhotos"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r placeRow) venue() models.Venue {
	v := models.Venue{
		PlaceID:          r.PlaceID,
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		TypeTags:         models.ParseTypeTags(deref(r.Types)),
	}
	if r.Latitude != nil && r.Longitude != nil {
		v.Location = &geo.Point{Latitude: *r.Latitude, Longitude: *r.Longitude}
	}
	return v
}

// QueryByBoundingBox runs an inclusive range query on the lat/lon index
func (d *DB) QueryByBoundingBox(ctx context.Context, box geo.BoundingBox) ([]models.Venue, error) {
	q := d.db.WithContext(ctx).
		Select("place_id", "latitude", "longitude", "name", "formatted_address", "types").
		Where("latitude BETWEEN ? AND ?", box.MinLat, box.MaxLat)

	if box.CrossesAntimeridian() {
		q = q.Where("(longitude >= ? OR longitude <= ?)", box.MinLon, box.MaxLon)
	} else {
		q = q.Where("longitude BETWEEN ? AND ?", box.MinLon, box.MaxLon)
	}

	var rows []placeRow
	if err := q.Order("place_id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query places: %w", err)
	}

	venues := make([]models.Venue, 0, len(rows))
	for _, r := range rows {
		venues = append(venues, r.venue())
	}
	return venues, nil
}

// GetVenueDetails loads one row of the Places table
func (d *DB) GetVenueDetails(ctx context.Context, placeID string) (*models.VenueDetails, error) {
	var row placeRow
	err := d.db.WithContext(ctx).Where("place_id = ?", placeID).Take(&row).Error
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("place %q", placeID))
	}

	details := &models.VenueDetails{
		Venue:       row.venue(),
		WeekdayText: deref(row.WeekdayText),
		Rating:      row.Rating,
		PriceLevel:  row.PriceLevel,
		URL:         deref(row.URL),
		Website:     deref(row.Website),
		Phone:       deref(row.Phone),
		DineIn:      row.DineIn,
		Delivery:    row.Delivery,
		Reservable:  row.Reservable,
	}

	// JSON columns are copied from the Places API; a broken value only
	// loses that part of the card.
	if raw := deref(row.OpeningHours); raw != "" && raw != "null" {
		var hours models.OpeningHours
		if err := json.Unmarshal([]byte(raw), &hours); err != nil {
			d.logger.Warn("Bad opening_hours JSON", zap.String("place_id", placeID), zap.Error(err))
		} else {
			details.OpeningHours = &hours
		}
	}
	if raw := deref(row.Reviews); raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &details.GoogleReviews); err != nil {
			d.logger.Warn("Bad reviews JSON", zap.String("place_id", placeID), zap.Error(err))
		}
	}
	details.PhotoRefs = parsePhotoRefs(deref(row.Photos))

	return details, nil
}

// parsePhotoRefs accepts both a list of references and a list of Places API
// photo objects
func parsePhotoRefs(raw string) []string {
	if raw == "" || raw == "null" {
		return nil
	}

	var refs []string
	if err := json.Unmarshal([]byte(raw), &refs); err == nil {
		return refs
	}

	var objects []struct {
		PhotoReference string `json:"photo_reference"`
	}
	if err := json.Unmarshal([]byte(raw), &objects); err != nil {
		return nil
	}
	for _, o := range objects {
		if o.PhotoReference != "" {
			refs = append(refs, o.PhotoReference)
		}
	}
	return refs
}

// GetPhotos returns stored photo blobs of a venue
func (d *DB) GetPhotos(ctx context.Context, placeID string, limit int) ([]models.Photo, error) {
	q := d.db.WithContext(ctx).Where("place_id = ?", placeID).Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []photoRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get photos of %q: %w", placeID, err)
	}

	photos := make([]models.Photo, 0, len(rows))
	for _, r := range rows {
		photos = append(photos, models.Photo{Data: r.PhotoData})
	}
	return photos, nil
}

// UpsertPlace writes a venue into the Places table. It is used by tests and
// the dev runner to seed the mirror.
func (d *DB) UpsertPlace(ctx context.Context, v models.VenueDetails) error {
	row := placeRow{
		PlaceID:          v.PlaceID,
		Name:             v.Name,
		FormattedAddress: v.FormattedAddress,
		Rating:           v.Rating,
		PriceLevel:       v.PriceLevel,
		DineIn:           v.DineIn,
		Delivery:         v.Delivery,
		Reservable:       v.Reservable,
	}
	if v.Location != nil {
		row.Latitude = &v.Location.Latitude
		row.Longitude = &v.Location.Longitude
	}
	if len(v.TypeTags) > 0 {
		types := v.TypeString()
		row.Types = &types
	}
	for _, field := range []struct {
		dst **string
		src string
	}{
		{&row.WeekdayText, v.WeekdayText},
		{&row.URL, v.URL},
		{&row.Website, v.Website},
		{&row.Phone, v.Phone},
	} {
		if field.src != "" {
			s := field.src
			*field.dst = &s
		}
	}
	if v.OpeningHours != nil {
		data, err := json.Marshal(v.OpeningHours)
		if err != nil {
			return err
		}
		s := string(data)
		row.OpeningHours = &s
	}
	if len(v.GoogleReviews) > 0 {
		data, err := json.Marshal(v.GoogleReviews)
		if err != nil {
			return err
		}
		s := string(data)
		row.Reviews = &s
	}
	if len(v.PhotoRefs) > 0 {
		data, err := json.Marshal(v.PhotoRefs)
		if err != nil {
			return err
		}
		s := string(data)
		row.Photos = &s
	}

	if err := d.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to upsert place %q: %w", v.PlaceID, err)
	}
	return nil
}

// AddPhoto stores a photo blob for a venue
func (d *DB) AddPhoto(ctx context.Context, placeID string, data []byte) error {
	if err := d.db.WithContext(ctx).Create(&photoRow{PlaceID: placeID, PhotoData: data}).Error; err != nil {
		return fmt.Errorf("failed to add photo of %q: %w", placeID, err)
	}
	return nil
}
