package db

import (
	"time"

	"gorm.io/gorm"
)

// SwipeStatus is the closed set of states a property swipe can be in.
// StatusNone (the zero value) is stored for dislikes, which carry only a
// hide_until hold and no workflow state.
type SwipeStatus string

const (
	StatusNone      SwipeStatus = ""
	StatusPending   SwipeStatus = "pending"
	StatusApproved  SwipeStatus = "approved"
	StatusRejected  SwipeStatus = "rejected"
	StatusWithdrawn SwipeStatus = "withdrawn"
)

// SwipeAction is the append-only history vocabulary.
type SwipeAction string

const (
	ActionLike     SwipeAction = "like"
	ActionDislike  SwipeAction = "dislike"
	ActionWithdraw SwipeAction = "withdraw"
)

// User table
type User struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string `gorm:"uniqueIndex;size:128;not null" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	FirstName    string `gorm:"size:64" json:"first_name"`
	LastName     string `gorm:"size:64" json:"last_name"`
	Bio          string `gorm:"type:text" json:"bio"`
	Provider     string `gorm:"size:16;not null;default:email" json:"provider"`
	Language     string `gorm:"size:8;default:en" json:"language"`
	Active       bool   `gorm:"default:true" json:"active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// UserPhoto holds gallery photos; at most one per user is the profile shot.
type UserPhoto struct {
	ID           uint64 `gorm:"primaryKey;autoIncrement"`
	UserID       uint64 `gorm:"index;not null"`
	PhotoURL     string `gorm:"size:512;not null"`
	IsProfile    bool   `gorm:"default:false"`
	DisplayOrder int    `gorm:"default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// UserDevice stores push-notification tokens.
//
// Unique on (user_id, firebase_token) so re-registering the same device is an
// upsert, and one user can hold several devices.
type UserDevice struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	UserID         uint64 `gorm:"uniqueIndex:idx_user_device,priority:1;not null"`
	FirebaseToken  string `gorm:"uniqueIndex:idx_user_device,priority:2;size:255;not null"`
	DeviceMetadata string `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

// Property is a published listing. The host is the owning user; a
// conversation's host participant is always derived from here, never stored.
type Property struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	HostID      uint64 `gorm:"index;not null" json:"host_id"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	City        string `gorm:"size:128" json:"city"`
	Country     string `gorm:"size:128" json:"country"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// PropertySwipe is the current state of a renter's interest in a property.
//
// Unique on (user_id, property_id): likes and dislikes both upsert, so there
// is never more than one row per pair (overwrite guarantee).
//
// Lifecycle:
//   - like     -> status=pending, hide_until cleared
//   - dislike  -> status=none, hide_until=now+7d (feed hold, no workflow state)
//   - withdraw -> pending -> withdrawn (renter action)
//   - approve  -> pending -> approved  (host action)
//   - reject   -> pending -> rejected  (host action)
//
// Index idx_swipe_property_status(property_id, status) serves the host-side
// disambiguation lookup and the approved-swipe authorization check.
type PropertySwipe struct {
	ID         uint64      `gorm:"primaryKey;autoIncrement"`
	UserID     uint64      `gorm:"uniqueIndex:idx_swipe_user_property,priority:1;not null"`
	PropertyID uint64      `gorm:"uniqueIndex:idx_swipe_user_property,priority:2;index:idx_swipe_property_status,priority:1;not null"`
	Status     SwipeStatus `gorm:"size:16;index:idx_swipe_property_status,priority:2"`
	HideUntil  *time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// PropertySwipeHistory is the append-only audit log. Rows are never mutated
// or deleted; re-liking an already pending swipe still appends here.
type PropertySwipeHistory struct {
	ID         uint64      `gorm:"primaryKey;autoIncrement"`
	UserID     uint64      `gorm:"index:idx_history_user_property,priority:1;not null"`
	PropertyID uint64      `gorm:"index:idx_history_user_property,priority:2;not null"`
	Action     SwipeAction `gorm:"size:16;not null"`
	CreatedAt  time.Time   `gorm:"autoCreateTime"`
}

// HostSubletterSwipe is the reverse-direction favoriting: hosts browsing
// renter profiles. One row per (host, subletter) pair, no approval workflow.
type HostSubletterSwipe struct {
	ID          uint64 `gorm:"primaryKey;autoIncrement"`
	HostID      uint64 `gorm:"uniqueIndex:idx_host_subletter,priority:1;not null"`
	SubletterID uint64 `gorm:"uniqueIndex:idx_host_subletter,priority:2;not null"`
	IsFavorite  bool   `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

// Conversation is the unique messaging thread for a (property, non-host-user)
// pair. The host participant is derived from the property's host_id.
//
// The unique index on (property_id, user_id) backs the find-or-create path:
// concurrent first messages race on the insert, the loser re-reads.
type Conversation struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID uint64 `gorm:"uniqueIndex:idx_conv_property_user,priority:1;not null" json:"property_id"`
	UserID     uint64 `gorm:"uniqueIndex:idx_conv_property_user,priority:2;not null" json:"user_id"`
	IsActive   bool   `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Message belongs to exactly one conversation. ReadAt stays null until the
// other participant fetches the thread; then it is set in bulk.
type Message struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID uint64 `gorm:"index;not null" json:"conversation_id"`
	SenderID       uint64 `gorm:"not null" json:"sender_id"`
	Content        string `gorm:"type:text;not null" json:"content"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at"`
}
