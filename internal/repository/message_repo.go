package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/db"
)

// MessageRepository is the messaging store: append, ordered listing and the
// bulk read-state bookkeeping. No edit or delete of messages exists.
type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(database *gorm.DB) *MessageRepository {
	return &MessageRepository{db: database}
}

// Append inserts a message with a server-side timestamp. The caller has
// already verified the sender is a participant.
func (r *MessageRepository) Append(ctx context.Context, conversationID, senderID uint64, content string) (*db.Message, error) {
	msg := db.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		SentAt:         time.Now().UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListByConversation returns all messages ascending by send time.
// Unbounded: the thread is the unit the client renders.
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uint64) ([]db.Message, error) {
	var messages []db.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("sent_at ASC").
		Find(&messages).Error
	return messages, err
}

// MessageWithSender is the row shape the client renders: the message plus
// the sender's display name.
type MessageWithSender struct {
	ID             uint64     `json:"id"`
	ConversationID uint64     `json:"conversation_id"`
	SenderID       uint64     `json:"sender_id"`
	SenderName     string     `json:"sender_name"`
	Content        string     `json:"content"`
	SentAt         time.Time  `json:"sent_at"`
	ReadAt         *time.Time `json:"read_at"`
}

// ListWithSender returns all messages ascending by send time, joined with
// the sender's first name.
func (r *MessageRepository) ListWithSender(ctx context.Context, conversationID uint64) ([]MessageWithSender, error) {
	var rows []MessageWithSender
	err := r.db.WithContext(ctx).
		Table("messages m").
		Select("m.id, m.conversation_id, m.sender_id, u.first_name AS sender_name, m.content, m.sent_at, m.read_at").
		Joins("JOIN users u ON m.sender_id = u.id").
		Where("m.conversation_id = ?", conversationID).
		Order("m.sent_at ASC").
		Scan(&rows).Error
	return rows, err
}

// MarkRead sets read_at on every unread message the reader did not send, in
// one update. Returns how many rows were marked.
func (r *MessageRepository) MarkRead(ctx context.Context, conversationID, readerID uint64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&db.Message{}).
		Where("conversation_id = ? AND sender_id != ? AND read_at IS NULL", conversationID, readerID).
		Update("read_at", time.Now().UTC())
	return res.RowsAffected, res.Error
}

// UnreadTotal counts unread messages addressed to the user across all
// conversations they participate in. Backs the cached badge counter.
func (r *MessageRepository) UnreadTotal(ctx context.Context, userID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("messages m").
		Joins("JOIN conversations c ON m.conversation_id = c.id").
		Joins("JOIN properties p ON c.property_id = p.id").
		Where("(c.user_id = ? OR p.host_id = ?)", userID, userID).
		Where("m.sender_id != ? AND m.read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}
