package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subletme/sublet-api/internal/db"
)

// ProfileSwipeRepository covers the reverse discovery direction: hosts
// favoriting renter profiles. One row per (host, subletter) pair, a bare
// boolean, no approval workflow and no history table.
type ProfileSwipeRepository struct {
	db *gorm.DB
}

func NewProfileSwipeRepository(database *gorm.DB) *ProfileSwipeRepository {
	return &ProfileSwipeRepository{db: database}
}

// SetFavorite upserts the pair with the given favorite flag. Like and unlike
// are the same statement apart from the boolean.
func (r *ProfileSwipeRepository) SetFavorite(ctx context.Context, hostID, subletterID uint64, favorite bool) error {
	swipe := db.HostSubletterSwipe{
		HostID:      hostID,
		SubletterID: subletterID,
		IsFavorite:  favorite,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "host_id"}, {Name: "subletter_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"is_favorite": favorite,
				"created_at":  time.Now().UTC(),
			}),
		}).
		Create(&swipe).Error
}

// IsFavorite reports the current flag for the pair; a missing row is false.
func (r *ProfileSwipeRepository) IsFavorite(ctx context.Context, hostID, subletterID uint64) (bool, error) {
	var swipe db.HostSubletterSwipe
	err := r.db.WithContext(ctx).
		Where("host_id = ? AND subletter_id = ?", hostID, subletterID).
		First(&swipe).Error
	if IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return swipe.IsFavorite, nil
}

// FavoriteSubletterIDs lists the subletters a host has favorited, most
// recent first.
func (r *ProfileSwipeRepository) FavoriteSubletterIDs(ctx context.Context, hostID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.HostSubletterSwipe{}).
		Where("host_id = ? AND is_favorite = ?", hostID, true).
		Order("created_at DESC").
		Pluck("subletter_id", &ids).Error
	return ids, err
}
