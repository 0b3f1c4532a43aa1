package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/db"
	"github.com/subletme/sublet-api/internal/utils/pagination"
)

// SwipedProperty is the row shape for a renter's "my requests" listing: the
// property plus the swipe state the renter holds on it.
type SwipedProperty struct {
	SwipeID    uint64         `json:"swipe_id"`
	PropertyID uint64         `json:"property_id"`
	Title      string         `json:"title"`
	City       string         `json:"city"`
	Country    string         `json:"country"`
	HostID     uint64         `json:"host_id"`
	Status     db.SwipeStatus `json:"status"`
	SwipedAt   time.Time      `json:"swiped_at"`
}

// SwipeRequest is the row shape for the host's inbox: who swiped on which of
// the host's properties, with the conversation id attached once approved and
// a thread exists.
type SwipeRequest struct {
	SwipeID        uint64         `json:"swipe_id"`
	UserID         uint64         `json:"user_id"`
	FirstName      string         `json:"first_name"`
	LastName       string         `json:"last_name"`
	Bio            string         `json:"bio"`
	PropertyID     uint64         `json:"property_id"`
	PropertyTitle  string         `json:"property_title"`
	Status         db.SwipeStatus `json:"status"`
	SwipedAt       time.Time      `json:"swiped_at"`
	ConversationID *uint64        `json:"conversation_id,omitempty"`
}

// PropertyRepository provides data access for listings and the discovery
// feed, including the swipe-derived exclusion predicate.
type PropertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(database *gorm.DB) *PropertyRepository {
	return &PropertyRepository{db: database}
}

// GetByID returns a listing or gorm.ErrRecordNotFound. Soft-deleted
// properties are invisible here.
func (r *PropertyRepository) GetByID(ctx context.Context, propertyID uint64) (*db.Property, error) {
	var property db.Property
	if err := r.db.WithContext(ctx).First(&property, propertyID).Error; err != nil {
		return nil, err
	}
	return &property, nil
}

// HostID resolves a property to its host, or gorm.ErrRecordNotFound.
func (r *PropertyRepository) HostID(ctx context.Context, propertyID uint64) (uint64, error) {
	property, err := r.GetByID(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	return property.HostID, nil
}

// ListFeed returns the discovery feed page for a user.
//
// Behavior:
//   - A property is excluded iff a swipe row exists for (user, property)
//     where hide_until is still in the future OR status is pending/approved.
//     Rejected and withdrawn swipes re-surface the property.
//   - The user's own listings are excluded.
//   - Ordered created_at DESC, id DESC with cursor-based pagination.
func (r *PropertyRepository) ListFeed(
	ctx context.Context,
	userID uint64,
	paginationToken *string,
	limit int,
) ([]db.Property, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&db.Property{}).
		Where("host_id != ?", userID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM property_swipes ps
				WHERE ps.property_id = properties.id
				  AND ps.user_id = ?
				  AND (ps.hide_until > ? OR ps.status IN ('pending', 'approved'))
			)`, userID, time.Now().UTC()).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	if cursor.PropertyID > 0 && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.PropertyID,
		)
	}

	var properties []db.Property
	if err := query.Find(&properties).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(properties) > limit {
		last := properties[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			PropertyID:  last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		properties = properties[:limit]
	}

	return properties, nextToken, nil
}

// ListByStatus returns the renter's swiped properties, optionally filtered
// to one status, most recently swiped first.
func (r *PropertyRepository) ListByStatus(ctx context.Context, userID uint64, status *db.SwipeStatus) ([]SwipedProperty, error) {
	query := r.db.WithContext(ctx).
		Table("property_swipes ps").
		Select("ps.id AS swipe_id, p.id AS property_id, p.title, p.city, p.country, p.host_id, ps.status, ps.updated_at AS swiped_at").
		Joins("JOIN properties p ON ps.property_id = p.id").
		Where("ps.user_id = ? AND p.deleted_at IS NULL", userID)

	if status != nil {
		query = query.Where("ps.status = ?", *status)
	} else {
		query = query.Where("ps.status != ''")
	}

	var rows []SwipedProperty
	err := query.Order("ps.updated_at DESC").Scan(&rows).Error
	return rows, err
}

// ListRequests returns the host's inbox: pending and approved swipes on the
// host's properties, optionally filtered, newest first. The conversation id
// is attached only when the swipe is approved and a thread already exists.
func (r *PropertyRepository) ListRequests(
	ctx context.Context,
	hostID uint64,
	status *db.SwipeStatus,
	limit, offset int,
) ([]SwipeRequest, error) {
	query := r.db.WithContext(ctx).
		Table("property_swipes ps").
		Select(`ps.id AS swipe_id, u.id AS user_id, u.first_name, u.last_name, u.bio,
			p.id AS property_id, p.title AS property_title, ps.status, ps.created_at AS swiped_at,
			c.id AS conversation_id`).
		Joins("JOIN properties p ON ps.property_id = p.id").
		Joins("JOIN users u ON ps.user_id = u.id").
		Joins("LEFT JOIN conversations c ON c.property_id = p.id AND c.user_id = u.id").
		Where("p.host_id = ?", hostID).
		Where("ps.status IN ?", []db.SwipeStatus{db.StatusPending, db.StatusApproved})

	if status != nil {
		query = query.Where("ps.status = ?", *status)
	}

	var rows []SwipeRequest
	err := query.
		Order("ps.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	// a thread link is only meaningful once the host approved
	for i := range rows {
		if rows[i].Status != db.StatusApproved {
			rows[i].ConversationID = nil
		}
	}
	return rows, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
