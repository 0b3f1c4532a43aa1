package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subletme/sublet-api/internal/db"
)

// DislikeHold is how long a disliked property stays out of the feed.
const DislikeHold = 7 * 24 * time.Hour

// SwipeRepository provides data access for property swipes and their
// append-only history. It encapsulates every query on the renter->property
// direction of the matching workflow.
//
// Construct it over a transaction handle when the caller needs the mutation
// and the history append to commit atomically.
type SwipeRepository struct {
	db *gorm.DB
}

// NewSwipeRepository creates a repository bound to the given DB or tx handle.
func NewSwipeRepository(database *gorm.DB) *SwipeRepository {
	return &SwipeRepository{db: database}
}

// isLive reports whether a status counts toward a property's interested
// total (pending or approved).
func isLive(status db.SwipeStatus) bool {
	return status == db.StatusPending || status == db.StatusApproved
}

// UpsertLike records a like: status becomes pending and any dislike hold is
// cleared.
//
// Behavior:
//   - If (user_id, property_id) exists, the row is overwritten.
//   - Otherwise a new row is inserted.
//   - The unique pair index guarantees a single row per pair.
//
// Re-liking an already pending swipe is a status no-op; the caller still
// appends a history entry. The returned bool reports whether the pair just
// became live (was not pending/approved before), so callers can keep
// derived counters aligned with the row state. Run inside the caller's
// transaction so the prior-state read and the upsert are atomic.
func (r *SwipeRepository) UpsertLike(ctx context.Context, userID, propertyID uint64) (bool, error) {
	prior, err := r.Get(ctx, userID, propertyID)
	if err != nil && !IsNotFound(err) {
		return false, err
	}
	wasLive := err == nil && isLive(prior.Status)

	swipe := db.PropertySwipe{
		UserID:     userID,
		PropertyID: propertyID,
		Status:     db.StatusPending,
		HideUntil:  nil,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "property_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     db.StatusPending,
				"hide_until": nil,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&swipe).Error
	if err != nil {
		return false, err
	}
	return !wasLive, nil
}

// UpsertDislike records a dislike: status is cleared and a hide hold keeps
// the property out of the user's feed until the hold expires. A dislike
// overwrites any prior state, including approved.
//
// The returned bool reports whether the pair just left the live set, the
// counterpart of the UpsertLike transition signal.
func (r *SwipeRepository) UpsertDislike(ctx context.Context, userID, propertyID uint64) (bool, error) {
	prior, err := r.Get(ctx, userID, propertyID)
	if err != nil && !IsNotFound(err) {
		return false, err
	}
	wasLive := err == nil && isLive(prior.Status)

	hideUntil := time.Now().UTC().Add(DislikeHold)
	swipe := db.PropertySwipe{
		UserID:     userID,
		PropertyID: propertyID,
		Status:     db.StatusNone,
		HideUntil:  &hideUntil,
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "property_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"status":     db.StatusNone,
				"hide_until": hideUntil,
				"updated_at": time.Now().UTC(),
			}),
		}).
		Create(&swipe).Error
	if err != nil {
		return false, err
	}
	return wasLive, nil
}

// AppendHistory adds an audit entry. History rows are never updated or
// deleted.
func (r *SwipeRepository) AppendHistory(ctx context.Context, userID, propertyID uint64, action db.SwipeAction) error {
	entry := db.PropertySwipeHistory{
		UserID:     userID,
		PropertyID: propertyID,
		Action:     action,
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// MarkWithdrawn transitions a pending swipe to withdrawn.
//
// Returns (false, nil) when no pending row exists for the pair; the status
// predicate in the WHERE clause makes the transition atomic per row.
func (r *SwipeRepository) MarkWithdrawn(ctx context.Context, userID, propertyID uint64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("user_id = ? AND property_id = ? AND status = ?", userID, propertyID, db.StatusPending).
		Updates(map[string]interface{}{
			"status":     db.StatusWithdrawn,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Approve transitions a pending swipe to approved and returns the swipe row
// id for downstream lookups. Returns gorm.ErrRecordNotFound when no pending
// row exists for the pair.
func (r *SwipeRepository) Approve(ctx context.Context, userID, propertyID uint64) (uint64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("user_id = ? AND property_id = ? AND status = ?", userID, propertyID, db.StatusPending).
		Updates(map[string]interface{}{
			"status":     db.StatusApproved,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var swipe db.PropertySwipe
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		First(&swipe).Error; err != nil {
		return 0, err
	}
	return swipe.ID, nil
}

// Reject transitions a pending swipe to rejected and returns the ids of the
// properties whose pending swipe was rejected. The subquery scopes the
// update to properties the acting host owns, so a host cannot reject swipes
// on someone else's listing. An empty result means no pending row matched.
func (r *SwipeRepository) Reject(ctx context.Context, hostID, userID uint64) ([]uint64, error) {
	ownProperties := r.db.Model(&db.Property{}).Select("id").Where("host_id = ?", hostID)

	var propertyIDs []uint64
	err := r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("user_id = ? AND status = ?", userID, db.StatusPending).
		Where("property_id IN (?)", ownProperties).
		Pluck("property_id", &propertyIDs).Error
	if err != nil {
		return nil, err
	}
	if len(propertyIDs) == 0 {
		return nil, nil
	}

	err = r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("user_id = ? AND status = ?", userID, db.StatusPending).
		Where("property_id IN ?", propertyIDs).
		Updates(map[string]interface{}{
			"status":     db.StatusRejected,
			"updated_at": time.Now().UTC(),
		}).Error
	if err != nil {
		return nil, err
	}
	return propertyIDs, nil
}

// Get returns the current swipe row for a pair, or gorm.ErrRecordNotFound.
func (r *SwipeRepository) Get(ctx context.Context, userID, propertyID uint64) (*db.PropertySwipe, error) {
	var swipe db.PropertySwipe
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		First(&swipe).Error
	if err != nil {
		return nil, err
	}
	return &swipe, nil
}

// HasApproved reports whether the user holds an approved swipe on the
// property. This is the renter-side messaging authorization check.
func (r *SwipeRepository) HasApproved(ctx context.Context, userID, propertyID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("user_id = ? AND property_id = ? AND status = ?", userID, propertyID, db.StatusApproved).
		Count(&count).Error
	return count > 0, err
}

// ApprovedUserIDs lists users holding an approved swipe on the property,
// most recently updated first. The host-side disambiguation runs over this
// per call; the result is never cached because a concurrent approval can
// change it between messages.
func (r *SwipeRepository) ApprovedUserIDs(ctx context.Context, propertyID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("property_id = ? AND status = ?", propertyID, db.StatusApproved).
		Order("updated_at DESC").
		Pluck("user_id", &ids).Error
	return ids, err
}

// History returns all audit entries for a pair, oldest first.
func (r *SwipeRepository) History(ctx context.Context, userID, propertyID uint64) ([]db.PropertySwipeHistory, error) {
	var entries []db.PropertySwipeHistory
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}

// CountInterested counts pending+approved swipes on a property. Backs the
// cached per-property like counter.
func (r *SwipeRepository) CountInterested(ctx context.Context, propertyID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.PropertySwipe{}).
		Where("property_id = ? AND status IN ?", propertyID, []db.SwipeStatus{db.StatusPending, db.StatusApproved}).
		Count(&count).Error
	return count, err
}

// IsNotFound reports whether err is the store's missing-record error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
