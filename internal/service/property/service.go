// Package property serves listing discovery: the swipe-filtered feed, the
// renter's requests view and the host's inbox.
package property

import (
	"context"

	"github.com/subletme/sublet-api/internal/app"
	"github.com/subletme/sublet-api/internal/db"
	svcErr "github.com/subletme/sublet-api/internal/errors"
	"github.com/subletme/sublet-api/internal/repository"
)

const (
	defaultFeedPage     = 20
	defaultRequestsPage = 20
)

type Service struct {
	appCtx *app.AppContext
}

func NewService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// Feed returns the next page of the user's discovery feed. Liked (pending or
// approved) and recently disliked properties stay out; rejected and
// withdrawn ones re-surface.
func (s *Service) Feed(ctx context.Context, userID uint64, paginationToken *string, limit int) ([]db.Property, *string, error) {
	if limit <= 0 {
		limit = defaultFeedPage
	}

	properties, next, err := repository.NewPropertyRepository(s.appCtx.DB).ListFeed(ctx, userID, paginationToken, limit)
	if err != nil {
		s.appCtx.Logger.Error("feed query failed", "user_id", userID, "err", err)
		return nil, nil, svcErr.Infra(err)
	}
	return properties, next, nil
}

// MyRequests returns the renter's swiped properties, optionally filtered by
// status.
func (s *Service) MyRequests(ctx context.Context, userID uint64, status *db.SwipeStatus) ([]repository.SwipedProperty, error) {
	rows, err := repository.NewPropertyRepository(s.appCtx.DB).ListByStatus(ctx, userID, status)
	if err != nil {
		return nil, svcErr.Infra(err)
	}
	return rows, nil
}

// HostInbox returns pending and approved swipes on the host's properties,
// newest first, with conversation ids attached for approved ones.
func (s *Service) HostInbox(ctx context.Context, hostID uint64, status *db.SwipeStatus, limit, offset int) ([]repository.SwipeRequest, error) {
	if limit <= 0 {
		limit = defaultRequestsPage
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := repository.NewPropertyRepository(s.appCtx.DB).ListRequests(ctx, hostID, status, limit, offset)
	if err != nil {
		s.appCtx.Logger.Error("host inbox query failed", "host_id", hostID, "err", err)
		return nil, svcErr.Infra(err)
	}
	return rows, nil
}
