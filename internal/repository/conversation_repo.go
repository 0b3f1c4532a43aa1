package repository

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/subletme/sublet-api/internal/db"
)

// ConversationSummary is the explicit row shape for conversation listings:
// the thread, its property, the latest message, the unread counter and the
// other participant's identity, all resolved for one viewing user.
type ConversationSummary struct {
	ConversationID     uint64     `json:"conversation_id"`
	PropertyID         uint64     `json:"property_id"`
	PropertyTitle      string     `json:"property_title"`
	UserID             uint64     `json:"user_id"`
	HostID             uint64     `json:"host_id"`
	IsActive           bool       `json:"is_active"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	LastMessage        *string    `json:"last_message"`
	LastMessageTime    *time.Time `json:"last_message_time"`
	UnreadCount        int64      `json:"unread_count"`
	OtherUserID        uint64     `json:"other_user_id"`
	OtherUserFirstName string     `json:"other_user_first_name"`
	OtherUserLastName  string     `json:"other_user_last_name"`
	OtherUserPhoto     *string    `json:"other_user_photo"`
}

// ConversationRepository provides data access for conversations and the
// participant rule: a thread's two parties are always the stored user_id and
// the property's host_id.
type ConversationRepository struct {
	db *gorm.DB
}

func NewConversationRepository(database *gorm.DB) *ConversationRepository {
	return &ConversationRepository{db: database}
}

// convPropertyRow is the join shape shared by the lookup queries.
type convPropertyRow struct {
	ID            uint64
	PropertyID    uint64
	UserID        uint64
	HostID        uint64
	PropertyTitle string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FindByPropertyAndUser returns the thread for (property, non-host user), or
// gorm.ErrRecordNotFound. This is the dedup lookup on the find-or-create
// path; the invariant is one thread per pair.
func (r *ConversationRepository) FindByPropertyAndUser(ctx context.Context, propertyID, userID uint64) (*db.Conversation, error) {
	var conv db.Conversation
	err := r.db.WithContext(ctx).
		Where("property_id = ? AND user_id = ?", propertyID, userID).
		First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// Create inserts the thread for (property, non-host user).
//
// Behavior:
//   - The unique pair index backs the one-thread invariant; a concurrent
//     insert makes this a no-op (ON CONFLICT DO NOTHING) and the committed
//     row is re-read, so both racers converge on the same thread.
func (r *ConversationRepository) Create(ctx context.Context, propertyID, userID uint64) (*db.Conversation, error) {
	conv := db.Conversation{
		PropertyID: propertyID,
		UserID:     userID,
		IsActive:   true,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&conv).Error
	if err != nil {
		return nil, err
	}
	// re-read covers the do-nothing path, where gorm leaves the struct id zero
	return r.FindByPropertyAndUser(ctx, propertyID, userID)
}

// GetByID returns a conversation or gorm.ErrRecordNotFound.
func (r *ConversationRepository) GetByID(ctx context.Context, conversationID uint64) (*db.Conversation, error) {
	var conv db.Conversation
	if err := r.db.WithContext(ctx).First(&conv, conversationID).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

// IsParticipant reports whether userID is one of the thread's two parties:
// the stored user or the host of the thread's property.
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Joins("JOIN properties p ON c.property_id = p.id").
		Where("c.id = ? AND (c.user_id = ? OR p.host_id = ?)", conversationID, userID, userID).
		Count(&count).Error
	return count > 0, err
}

// Touch bumps the conversation's updated_at after a message append.
func (r *ConversationRepository) Touch(ctx context.Context, conversationID uint64) error {
	return r.db.WithContext(ctx).
		Model(&db.Conversation{}).
		Where("id = ?", conversationID).
		Update("updated_at", time.Now().UTC()).Error
}

// ListSummaries returns every conversation where the user is either the
// stored user or the implicit host, annotated with last message, unread
// count and the other party's identity.
//
// Ordered by most recent activity; threads with no messages yet sort last by
// their updated_at. The null-last ordering runs in Go so it behaves the same
// on every dialect the repo tests against.
func (r *ConversationRepository) ListSummaries(ctx context.Context, userID uint64) ([]ConversationSummary, error) {
	var rows []convPropertyRow
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select("c.id, c.property_id, c.user_id, p.host_id, p.title AS property_title, c.is_active, c.created_at, c.updated_at").
		Joins("JOIN properties p ON c.property_id = p.id").
		Where("c.user_id = ? OR p.host_id = ?", userID, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(rows))
	for _, row := range rows {
		s, err := r.buildSummary(ctx, row, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch {
		case a.LastMessageTime != nil && b.LastMessageTime != nil:
			return a.LastMessageTime.After(*b.LastMessageTime)
		case a.LastMessageTime != nil:
			return true
		case b.LastMessageTime != nil:
			return false
		default:
			return a.UpdatedAt.After(b.UpdatedAt)
		}
	})

	return summaries, nil
}

// GetSummary returns the annotated view of a single conversation for the
// given viewer, or gorm.ErrRecordNotFound.
func (r *ConversationRepository) GetSummary(ctx context.Context, conversationID, userID uint64) (*ConversationSummary, error) {
	var rows []convPropertyRow
	err := r.db.WithContext(ctx).
		Table("conversations c").
		Select("c.id, c.property_id, c.user_id, p.host_id, p.title AS property_title, c.is_active, c.created_at, c.updated_at").
		Joins("JOIN properties p ON c.property_id = p.id").
		Where("c.id = ?", conversationID).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.buildSummary(ctx, rows[0], userID)
}

func (r *ConversationRepository) buildSummary(ctx context.Context, row convPropertyRow, viewerID uint64) (*ConversationSummary, error) {
	s := ConversationSummary{
		ConversationID: row.ID,
		PropertyID:     row.PropertyID,
		PropertyTitle:  row.PropertyTitle,
		UserID:         row.UserID,
		HostID:         row.HostID,
		IsActive:       row.IsActive,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}

	var last db.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", row.ID).
		Order("sent_at DESC").
		First(&last).Error
	switch {
	case err == nil:
		s.LastMessage = &last.Content
		s.LastMessageTime = &last.SentAt
	case !IsNotFound(err):
		return nil, err
	}

	if err := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", row.ID, viewerID).
		Count(&s.UnreadCount).Error; err != nil {
		return nil, err
	}

	otherID := row.HostID
	if row.UserID != viewerID {
		otherID = row.UserID
	}
	s.OtherUserID = otherID

	var other db.User
	if err := r.db.WithContext(ctx).First(&other, otherID).Error; err != nil {
		return nil, err
	}
	s.OtherUserFirstName = other.FirstName
	s.OtherUserLastName = other.LastName

	var photo db.UserPhoto
	err = r.db.WithContext(ctx).
		Where("user_id = ? AND is_profile = ?", otherID, true).
		First(&photo).Error
	switch {
	case err == nil:
		s.OtherUserPhoto = &photo.PhotoURL
	case !IsNotFound(err):
		return nil, err
	}

	return &s, nil
}
