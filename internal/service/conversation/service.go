// Package conversation resolves messaging threads and stores messages.
// A thread is unique per (property, non-host user); the host side is always
// derived from the property, never stored. Opening a thread is gated on
// swipe state through the match package.
package conversation

import (
	"context"

	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/db"
	svcErr "github.com/subletme/sublet-api/internal/errors"
	"github.com/subletme/sublet-api/internal/repository"
	"github.com/subletme/sublet-api/internal/service/match"
)

// SendMessageInput carries one send request. Either ConversationID or
// PropertyID must be set; CounterpartyID disambiguates host-initiated sends
// when a property has several approved swipes.
type SendMessageInput struct {
	ConversationID *uint64
	PropertyID     *uint64
	SenderID       uint64
	Content        string
	CounterpartyID *uint64
}

// SendResult is what a send returns: the stored message, the thread it went
// into and whether that thread was created by this call.
type SendResult struct {
	Message           *db.Message      `json:"message"`
	Conversation      *db.Conversation `json:"conversation"`
	IsNewConversation bool             `json:"is_new_conversation"`
}

// OtherUser is the projection the client renders as a thread header before
// any message exists.
type OtherUser struct {
	OtherUserID   uint64  `json:"other_user_id"`
	FirstName     string  `json:"other_user_first_name"`
	LastName      string  `json:"other_user_last_name"`
	Photo         *string `json:"other_user_photo"`
	PropertyID    uint64  `json:"property_id"`
	PropertyTitle string  `json:"property_title"`
}

// Service is the conversation resolver plus the messaging store surface.
type Service struct {
	appCtx *app.AppContext
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// SendMessage idempotently maps the request to a single thread, creating one
// only when necessary, and appends the message.
//
// Behavior:
//   - With an explicit conversation id the creation logic is skipped.
//   - Otherwise the property resolves the host; a renter sender must hold an
//     approved swipe, a host sender without an explicit counterparty goes
//     through disambiguation over the approved set.
//   - An explicit host-supplied counterparty is trusted as-is (source
//     behavior; the participant check still bounds the damage to the thread
//     the property/user pair identifies).
//   - Thread find-or-create, participant check, message insert and the
//     conversation timestamp bump commit atomically: no thread without its
//     first message, no message outside a thread.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (*SendResult, error) {
	if in.Content == "" {
		return nil, svcErr.Validation("message content cannot be empty")
	}
	if in.ConversationID == nil && in.PropertyID == nil {
		return nil, svcErr.Validation("either conversation_id or property_id must be provided")
	}

	var (
		result      SendResult
		recipientID uint64
	)

	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		convs := repository.NewConversationRepository(tx)
		props := repository.NewPropertyRepository(tx)

		var conv *db.Conversation

		if in.ConversationID != nil {
			var err error
			conv, err = convs.GetByID(ctx, *in.ConversationID)
			if err != nil {
				if repository.IsNotFound(err) {
					return svcErr.NotFound("conversation not found")
				}
				return err
			}
		} else {
			propertyID := *in.PropertyID
			hostID, err := props.HostID(ctx, propertyID)
			if err != nil {
				if repository.IsNotFound(err) {
					return svcErr.NotFound("property not found")
				}
				return err
			}

			isHost := in.SenderID == hostID
			gate := match.NewGate(tx)

			// the non-host side of the thread
			participantID := in.SenderID
			switch {
			case !isHost:
				if err := gate.AuthorizeRenter(ctx, in.SenderID, propertyID); err != nil {
					return err
				}
			case in.CounterpartyID != nil:
				participantID = *in.CounterpartyID
			default:
				participantID, err = gate.ResolveCounterparty(ctx, propertyID)
				if err != nil {
					return err
				}
			}

			conv, err = convs.FindByPropertyAndUser(ctx, propertyID, participantID)
			if repository.IsNotFound(err) {
				conv, err = convs.Create(ctx, propertyID, participantID)
				result.IsNewConversation = true
			}
			if err != nil {
				return err
			}
		}

		ok, err := convs.IsParticipant(ctx, conv.ID, in.SenderID)
		if err != nil {
			return err
		}
		if !ok {
			return svcErr.NotParticipant()
		}

		hostID, err := props.HostID(ctx, conv.PropertyID)
		if err != nil {
			return err
		}
		recipientID = hostID
		if in.SenderID == hostID {
			recipientID = conv.UserID
		}

		msg, err := repository.NewMessageRepository(tx).Append(ctx, conv.ID, in.SenderID, in.Content)
		if err != nil {
			return err
		}
		if err := convs.Touch(ctx, conv.ID); err != nil {
			return err
		}

		// re-read so the returned conversation carries the bumped timestamp
		conv, err = convs.GetByID(ctx, conv.ID)
		if err != nil {
			if repository.IsNotFound(err) {
				return svcErr.NotFound("conversation not found")
			}
			return err
		}

		result.Message = msg
		result.Conversation = conv
		return nil
	})
	if err != nil {
		if svcErr.CodeOf(err) != svcErr.CodeInfrastructure {
			return nil, err
		}
		s.appCtx.Logger.Error("send message failed", "sender_id", in.SenderID, "err", err)
		return nil, svcErr.Infra(err)
	}

	// badge bump is best-effort and strictly post-commit
	_ = s.appCtx.RedisCache.Bump(ctx, s.appCtx.RedisCache.KeyForUnreadBadge(recipientID), 1)

	return &result, nil
}

// GetMessages returns the thread ascending by send time and, as a side
// effect, marks every message from the other party as read in one update.
// Fails with NOT_PARTICIPANT when the requester is neither side.
func (s *Service) GetMessages(ctx context.Context, conversationID, userID uint64) ([]repository.MessageWithSender, error) {
	var messages []repository.MessageWithSender

	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		convs := repository.NewConversationRepository(tx)

		ok, err := convs.IsParticipant(ctx, conversationID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return svcErr.NotParticipant()
		}

		msgs := repository.NewMessageRepository(tx)
		messages, err = msgs.ListWithSender(ctx, conversationID)
		if err != nil {
			return err
		}
		_, err = msgs.MarkRead(ctx, conversationID, userID)
		return err
	})
	if err != nil {
		if svcErr.CodeOf(err) != svcErr.CodeInfrastructure {
			return nil, err
		}
		s.appCtx.Logger.Error("get messages failed", "conversation_id", conversationID, "err", err)
		return nil, svcErr.Infra(err)
	}

	// the reader's badge is stale now; drop it so the next read recomputes
	_ = s.appCtx.RedisCache.Invalidate(ctx, s.appCtx.RedisCache.KeyForUnreadBadge(userID))

	return messages, nil
}

// GetConversations returns every thread the user participates in, annotated
// and ordered by most recent activity.
func (s *Service) GetConversations(ctx context.Context, userID uint64) ([]repository.ConversationSummary, error) {
	summaries, err := repository.NewConversationRepository(s.appCtx.DB).ListSummaries(ctx, userID)
	if err != nil {
		return nil, svcErr.Infra(err)
	}
	return summaries, nil
}

// GetConversation returns the annotated view of one thread. Fails with
// NOT_PARTICIPANT when the requester is neither side.
func (s *Service) GetConversation(ctx context.Context, conversationID, userID uint64) (*repository.ConversationSummary, error) {
	convs := repository.NewConversationRepository(s.appCtx.DB)

	ok, err := convs.IsParticipant(ctx, conversationID, userID)
	if err != nil {
		return nil, svcErr.Infra(err)
	}
	if !ok {
		return nil, svcErr.NotParticipant()
	}

	summary, err := convs.GetSummary(ctx, conversationID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("conversation not found")
		}
		return nil, svcErr.Infra(err)
	}
	return summary, nil
}

// GetOtherUser resolves who is on the other side of an existing thread, for
// rendering the header before any message is exchanged.
func (s *Service) GetOtherUser(ctx context.Context, conversationID, userID uint64) (*OtherUser, error) {
	conv, err := repository.NewConversationRepository(s.appCtx.DB).GetByID(ctx, conversationID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("conversation not found")
		}
		return nil, svcErr.Infra(err)
	}

	props := repository.NewPropertyRepository(s.appCtx.DB)
	property, err := props.GetByID(ctx, conv.PropertyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("property not found")
		}
		return nil, svcErr.Infra(err)
	}

	if userID != conv.UserID && userID != property.HostID {
		return nil, svcErr.NotParticipant()
	}

	otherID := property.HostID
	if userID == property.HostID {
		otherID = conv.UserID
	}

	return s.projectOtherUser(ctx, otherID, property)
}

// GetOtherUserFromProperty resolves the counterparty from a property alone,
// before any thread exists. A host caller goes through the same approved-
// swipe lookup as the send path, resolving to the most recently approved
// swiper; a renter caller must hold an approved swipe and resolves to the
// host.
func (s *Service) GetOtherUserFromProperty(ctx context.Context, propertyID, userID uint64) (*OtherUser, error) {
	props := repository.NewPropertyRepository(s.appCtx.DB)
	property, err := props.GetByID(ctx, propertyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("property not found")
		}
		return nil, svcErr.Infra(err)
	}

	swipes := repository.NewSwipeRepository(s.appCtx.DB)

	if userID == property.HostID {
		ids, err := swipes.ApprovedUserIDs(ctx, propertyID)
		if err != nil {
			return nil, svcErr.Infra(err)
		}
		if len(ids) == 0 {
			return nil, svcErr.NoApprovedSwipe()
		}
		// most recently approved swiper wins for header rendering
		return s.projectOtherUser(ctx, ids[0], property)
	}

	approved, err := swipes.HasApproved(ctx, userID, propertyID)
	if err != nil {
		return nil, svcErr.Infra(err)
	}
	if !approved {
		return nil, svcErr.NotApproved()
	}
	return s.projectOtherUser(ctx, property.HostID, property)
}

// UnreadTotal returns the user's badge count: unread messages addressed to
// them across all threads. Cache-first with a DB fallback that warms the
// counter.
func (s *Service) UnreadTotal(ctx context.Context, userID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForUnreadBadge(userID)

	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		return n, nil
	}

	count, err := repository.NewMessageRepository(s.appCtx.DB).UnreadTotal(ctx, userID)
	if err != nil {
		return 0, svcErr.Infra(err)
	}

	_ = s.appCtx.RedisCache.SetCount(ctx, key, count)
	return count, nil
}

func (s *Service) projectOtherUser(ctx context.Context, otherID uint64, property *db.Property) (*OtherUser, error) {
	users := repository.NewUserRepository(s.appCtx.DB)

	other, err := users.GetByID(ctx, otherID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, svcErr.NotFound("other user not found")
		}
		return nil, svcErr.Infra(err)
	}

	photoURL, err := users.ProfilePhotoURL(ctx, otherID)
	if err != nil {
		return nil, svcErr.Infra(err)
	}

	out := &OtherUser{
		OtherUserID:   other.ID,
		FirstName:     other.FirstName,
		LastName:      other.LastName,
		PropertyID:    property.ID,
		PropertyTitle: property.Title,
	}
	if photoURL != "" {
		out.Photo = &photoURL
	}
	return out, nil
}
