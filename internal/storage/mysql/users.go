package mysql

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"placesbot/internal/models"
)

type userRow struct {
	TelegramID  int64     `gorm:"column:tg_user_id;primaryKey;autoIncrement:false"`
	PhoneNumber string    `gorm:"column:phone_number"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (userRow) TableName() string {
	return "Users"
}

type favoriteRow struct {
	UserID    int64     `gorm:"column:tg_user_id;primaryKey;autoIncrement:false"`
	PlaceID   string    `gorm:"column:place_id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (favoriteRow) TableName() string {
	return "Favourites"
}

type reviewRow struct {
	ID      int64     `gorm:"column:id;primaryKey"`
	PlaceID string    `gorm:"column:place_id"`
	Name    string    `gorm:"column:name"`
	UserID  int64     `gorm:"column:tg_user_id"`
	Score   int       `gorm:"column:score"`
	Review  string    `gorm:"column:review"`
	Date    time.Time `gorm:"column:date"`
}

func (reviewRow) TableName() string {
	return "UsersReviews"
}

func (r reviewRow) model() models.Review {
	return models.Review{
		ID:        r.ID,
		PlaceID:   r.PlaceID,
		UserID:    r.UserID,
		Name:      r.Name,
		Score:     r.Score,
		Text:      r.Review,
		CreatedAt: r.Date,
	}
}

// RegisterUser inserts the user unless already present
func (d *DB) RegisterUser(ctx context.Context, user models.User) error {
	row := userRow{TelegramID: user.TelegramID, PhoneNumber: user.PhoneNumber, CreatedAt: user.CreatedAt}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}

	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to register user %d: %w", user.TelegramID, err)
	}
	return nil
}

// IsRegistered reports whether a Users row exists
func (d *DB) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	var count int64
	if err := d.db.WithContext(ctx).Model(&userRow{}).Where("tg_user_id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check user %d: %w", userID, err)
	}
	return count > 0, nil
}

// AddFavorite inserts into Favourites, ignoring duplicates
func (d *DB) AddFavorite(ctx context.Context, userID int64, placeID string) error {
	row := favoriteRow{UserID: userID, PlaceID: placeID, CreatedAt: time.Now().UTC()}
	err := d.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes from Favourites
func (d *DB) RemoveFavorite(ctx context.Context, userID int64, placeID string) error {
	err := d.db.WithContext(ctx).
		Where("tg_user_id = ? AND place_id = ?", userID, placeID).
		Delete(&favoriteRow{}).Error
	if err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

// IsFavorite reports whether the pair exists in Favourites
func (d *DB) IsFavorite(ctx context.Context, userID int64, placeID string) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).Model(&favoriteRow{}).
		Where("tg_user_id = ? AND place_id = ?", userID, placeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return count > 0, nil
}

// ListFavorites returns saved place ids, newest first
func (d *DB) ListFavorites(ctx context.Context, userID int64) ([]string, error) {
	var ids []string
	err := d.db.WithContext(ctx).Model(&favoriteRow{}).
		Where("tg_user_id = ?", userID).
		Order("created_at DESC").
		Pluck("place_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return ids, nil
}

// AddReview inserts into UsersReviews
func (d *DB) AddReview(ctx context.Context, review models.Review) (int64, error) {
	row := reviewRow{
		PlaceID: review.PlaceID,
		Name:    review.Name,
		UserID:  review.UserID,
		Score:   review.Score,
		Review:  review.Text,
		Date:    review.CreatedAt,
	}
	if row.Date.IsZero() {
		row.Date = time.Now().UTC()
	}

	if err := d.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to add review: %w", err)
	}
	return row.ID, nil
}

// UpdateReview overwrites an existing review
func (d *DB) UpdateReview(ctx context.Context, review models.Review) error {
	updates := map[string]any{
		"name":   review.Name,
		"score":  review.Score,
		"review": review.Text,
	}
	if !review.CreatedAt.IsZero() {
		updates["date"] = review.CreatedAt
	}

	res := d.db.WithContext(ctx).Model(&reviewRow{}).Where("id = ?", review.ID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update review %d: %w", review.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// MySQL reports 0 affected rows for unchanged values too
		if _, err := d.GetReview(ctx, review.ID); err != nil {
			return err
		}
	}
	return nil
}

// GetReview loads one review
func (d *DB) GetReview(ctx context.Context, id int64) (*models.Review, error) {
	var row reviewRow
	if err := d.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, notFound(err, fmt.Sprintf("review %d", id))
	}
	review := row.model()
	return &review, nil
}

// ListPlaceReviews returns reviews of a place, newest first
func (d *DB) ListPlaceReviews(ctx context.Context, placeID string) ([]models.Review, error) {
	return d.listReviews(ctx, "place_id = ?", placeID)
}

// ListUserReviews returns reviews written by a user, newest first
func (d *DB) ListUserReviews(ctx context.Context, userID int64) ([]models.Review, error) {
	return d.listReviews(ctx, "tg_user_id = ?", userID)
}

func (d *DB) listReviews(ctx context.Context, where string, arg any) ([]models.Review, error) {
	var rows []reviewRow
	err := d.db.WithContext(ctx).Where(where, arg).Order("date DESC, id DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := make([]models.Review, 0, len(rows))
	for _, r := range rows {
		reviews = append(reviews, r.model())
	}
	return reviews, nil
}
