// Package swipe owns the matching workflow state machine: a renter's
// interest in a property and a host's favoriting of a renter profile.
// State is never physically deleted; every property-swipe action also
// appends to an audit history.
package swipe

import (
	"context"

	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/db"
	svcErr "github.com/subletme/sublet-api/internal/errors"
	"github.com/subletme/sublet-api/internal/notify"
	"github.com/subletme/sublet-api/internal/repository"
)

// Service implements the swipe engine on top of the repositories. Mutations
// run inside a transaction so the state upsert and the history append commit
// together; push notifications dispatch strictly after commit.
type Service struct {
	appCtx *app.AppContext
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// LikeProperty upserts the swipe to pending, clears any dislike hold and
// appends a history entry. Re-liking is idempotent status-wise but still
// logs history.
//
// After commit the host is notified of the like and the renter of the
// pending review; neither failure affects the committed swipe.
func (s *Service) LikeProperty(ctx context.Context, userID, propertyID uint64) error {
	property, err := repository.NewPropertyRepository(s.appCtx.DB).GetByID(ctx, propertyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return svcErr.NotFound("property not found")
		}
		return svcErr.Infra(err)
	}

	liker, err := repository.NewUserRepository(s.appCtx.DB).GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		}
		return svcErr.Infra(err)
	}

	var becameLive bool
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		swipes := repository.NewSwipeRepository(tx)
		transitioned, err := swipes.UpsertLike(ctx, userID, propertyID)
		if err != nil {
			return err
		}
		becameLive = transitioned
		return swipes.AppendHistory(ctx, userID, propertyID, db.ActionLike)
	})
	if err != nil {
		s.appCtx.Logger.Error("like failed", "user_id", userID, "property_id", propertyID, "err", err)
		return svcErr.Infra(err)
	}

	// Re-liking a pending swipe leaves the interested total unchanged, so
	// the warm counter only moves on a real state transition.
	if becameLive {
		_ = s.appCtx.RedisCache.Bump(ctx, s.appCtx.RedisCache.KeyForPropertyLikes(propertyID), 1)
	}

	host, err := repository.NewUserRepository(s.appCtx.DB).GetByID(ctx, property.HostID)
	if err != nil {
		s.appCtx.Logger.Warn("host lookup for notification failed", "host_id", property.HostID, "err", err)
		return nil
	}

	go s.appCtx.Pusher.PushToUser(property.HostID, notify.Notification{
		Title: "New like on your property",
		Body:  liker.FirstName + " liked your property",
		Data:  map[string]string{"navigate_to": "/notification"},
	})
	go s.appCtx.Pusher.PushToUser(userID, notify.Notification{
		Title: "New request on a property",
		Body:  host.FirstName + " will review your request",
		Data:  map[string]string{"navigate_to": "/notification"},
	})

	return nil
}

// UnlikeProperty clears the workflow state and places a 7-day hide hold, so
// the property leaves the user's feed even without a status. Overwrites any
// prior state, approved included.
func (s *Service) UnlikeProperty(ctx context.Context, userID, propertyID uint64) error {
	var leftLive bool
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		swipes := repository.NewSwipeRepository(tx)
		transitioned, err := swipes.UpsertDislike(ctx, userID, propertyID)
		if err != nil {
			return err
		}
		leftLive = transitioned
		return swipes.AppendHistory(ctx, userID, propertyID, db.ActionDislike)
	})
	if err != nil {
		s.appCtx.Logger.Error("unlike failed", "user_id", userID, "property_id", propertyID, "err", err)
		return svcErr.Infra(err)
	}

	// Disliking a property the user never held a live swipe on must not
	// deflate the counter below the real interested total.
	if leftLive {
		_ = s.appCtx.RedisCache.Bump(ctx, s.appCtx.RedisCache.KeyForPropertyLikes(propertyID), -1)
	}
	return nil
}

// WithdrawRequest transitions the renter's own pending swipe to withdrawn.
// Fails with NOT_FOUND when no pending row exists; the property then
// re-enters the renter's feed.
func (s *Service) WithdrawRequest(ctx context.Context, userID, propertyID uint64) error {
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		swipes := repository.NewSwipeRepository(tx)
		withdrawn, err := swipes.MarkWithdrawn(ctx, userID, propertyID)
		if err != nil {
			return err
		}
		if !withdrawn {
			return svcErr.NotFound("no pending request found for this property")
		}
		return swipes.AppendHistory(ctx, userID, propertyID, db.ActionWithdraw)
	})
	if err != nil {
		if svcErr.CodeOf(err) != svcErr.CodeInfrastructure {
			return err
		}
		s.appCtx.Logger.Error("withdraw failed", "user_id", userID, "property_id", propertyID, "err", err)
		return svcErr.Infra(err)
	}

	// The withdrawn swipe was pending, so the interested total dropped by one.
	_ = s.appCtx.RedisCache.Bump(ctx, s.appCtx.RedisCache.KeyForPropertyLikes(propertyID), -1)
	return nil
}

// ApproveRequest transitions a pending swipe on the host's own property to
// approved and returns the swipe id for downstream lookups. A property not
// owned by the acting host behaves exactly like a missing pending row.
func (s *Service) ApproveRequest(ctx context.Context, hostID, userID, propertyID uint64) (uint64, error) {
	hostOwns, err := repository.NewPropertyRepository(s.appCtx.DB).HostID(ctx, propertyID)
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, svcErr.NotFound("no pending request found to approve")
		}
		return 0, svcErr.Infra(err)
	}
	if hostOwns != hostID {
		return 0, svcErr.NotFound("no pending request found to approve")
	}

	var swipeID uint64
	err = s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		id, err := repository.NewSwipeRepository(tx).Approve(ctx, userID, propertyID)
		if err != nil {
			return err
		}
		swipeID = id
		return nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return 0, svcErr.NotFound("no pending request found to approve")
		}
		s.appCtx.Logger.Error("approve failed", "user_id", userID, "property_id", propertyID, "err", err)
		return 0, svcErr.Infra(err)
	}

	go s.appCtx.Pusher.PushToUser(userID, notify.Notification{
		Title: "Request approved",
		Body:  "Your request was approved, you can now message the host",
		Data:  map[string]string{"navigate_to": "/notification"},
	})

	return swipeID, nil
}

// RejectRequest transitions a pending swipe to rejected. The repository
// scopes the update to the host's own properties, so a host cannot touch
// swipes on listings they do not own. The property re-enters the renter's
// feed afterwards.
func (s *Service) RejectRequest(ctx context.Context, hostID, userID uint64) error {
	var rejected []uint64
	err := s.appCtx.DB.Transaction(func(tx *gorm.DB) error {
		ids, err := repository.NewSwipeRepository(tx).Reject(ctx, hostID, userID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return svcErr.NotFound("no pending request found to reject")
		}
		rejected = ids
		return nil
	})
	if err != nil {
		if svcErr.CodeOf(err) != svcErr.CodeInfrastructure {
			return err
		}
		s.appCtx.Logger.Error("reject failed", "host_id", hostID, "user_id", userID, "err", err)
		return svcErr.Infra(err)
	}

	for _, propertyID := range rejected {
		_ = s.appCtx.RedisCache.Bump(ctx, s.appCtx.RedisCache.KeyForPropertyLikes(propertyID), -1)
	}

	go s.appCtx.Pusher.PushToUser(userID, notify.Notification{
		Title: "Request update",
		Body:  "The host declined your request",
		Data:  map[string]string{"navigate_to": "/notification"},
	})

	return nil
}

// LikeProfile marks a renter profile as a favorite of the host and notifies
// the renter. No approval workflow exists on this side.
func (s *Service) LikeProfile(ctx context.Context, hostID, subletterID uint64) error {
	host, err := repository.NewUserRepository(s.appCtx.DB).GetByID(ctx, hostID)
	if err != nil {
		if repository.IsNotFound(err) {
			return svcErr.NotFound("user not found")
		}
		return svcErr.Infra(err)
	}

	if err := repository.NewProfileSwipeRepository(s.appCtx.DB).SetFavorite(ctx, hostID, subletterID, true); err != nil {
		s.appCtx.Logger.Error("profile like failed", "host_id", hostID, "subletter_id", subletterID, "err", err)
		return svcErr.Infra(err)
	}

	go s.appCtx.Pusher.PushToUser(subletterID, notify.Notification{
		Title: "New like on your profile",
		Body:  host.FirstName + " liked your profile",
		Data:  map[string]string{"navigate_to": "/notification"},
	})

	return nil
}

// UnlikeProfile clears the favorite flag. Upserts like LikeProfile, so
// unliking a never-liked profile just records a false flag.
func (s *Service) UnlikeProfile(ctx context.Context, hostID, subletterID uint64) error {
	if err := repository.NewProfileSwipeRepository(s.appCtx.DB).SetFavorite(ctx, hostID, subletterID, false); err != nil {
		s.appCtx.Logger.Error("profile unlike failed", "host_id", hostID, "subletter_id", subletterID, "err", err)
		return svcErr.Infra(err)
	}
	return nil
}

// FavoriteProfiles lists the renter profiles the host has favorited, most
// recent first.
func (s *Service) FavoriteProfiles(ctx context.Context, hostID uint64) ([]db.User, error) {
	ids, err := repository.NewProfileSwipeRepository(s.appCtx.DB).FavoriteSubletterIDs(ctx, hostID)
	if err != nil {
		return nil, svcErr.Infra(err)
	}

	profiles := make([]db.User, 0, len(ids))
	users := repository.NewUserRepository(s.appCtx.DB)
	for _, id := range ids {
		user, err := users.GetByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				continue
			}
			return nil, svcErr.Infra(err)
		}
		profiles = append(profiles, *user)
	}
	return profiles, nil
}

// InterestedCount returns how many renters hold a live (pending or approved)
// swipe on the property. Cache-first with a DB fallback that warms the
// counter.
func (s *Service) InterestedCount(ctx context.Context, propertyID uint64) (int64, error) {
	key := s.appCtx.RedisCache.KeyForPropertyLikes(propertyID)

	if n, ok, err := s.appCtx.RedisCache.GetCount(ctx, key); err == nil && ok {
		return n, nil
	}

	count, err := repository.NewSwipeRepository(s.appCtx.DB).CountInterested(ctx, propertyID)
	if err != nil {
		return 0, svcErr.Infra(err)
	}

	_ = s.appCtx.RedisCache.SetCount(ctx, key, count)
	return count, nil
}
