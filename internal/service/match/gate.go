// Package match decides whether two parties may exchange messages about a
// property. The gate is a pure decision layer over swipe state: it reads,
// never writes.
package match

import (
	"context"

	"gorm.io/gorm"

	svcErr "github.com/subletme/sublet-api/internal/errors"
	"github.com/subletme/sublet-api/internal/repository"
)

// Gate answers "may sender X open a thread about property P, and with whom".
// Construct it over the same transaction handle as the caller so its reads
// see the caller's uncommitted state.
type Gate struct {
	swipes *repository.SwipeRepository
}

func NewGate(database *gorm.DB) *Gate {
	return &Gate{swipes: repository.NewSwipeRepository(database)}
}

// AuthorizeRenter checks the renter-side precondition: the sender holds an
// approved swipe on the property. Fails with NOT_APPROVED otherwise.
func (g *Gate) AuthorizeRenter(ctx context.Context, senderID, propertyID uint64) error {
	approved, err := g.swipes.HasApproved(ctx, senderID, propertyID)
	if err != nil {
		return svcErr.Infra(err)
	}
	if !approved {
		return svcErr.NotApproved()
	}
	return nil
}

// ResolveCounterparty determines which renter a host-initiated message is
// addressed to when the host did not say.
//
// Zero approved swipes fails with NO_APPROVED_SWIPE; more than one fails
// with AMBIGUOUS_COUNTERPARTY so the caller re-asks with an explicit user
// id. Exactly one resolves to that swiper.
//
// The lookup runs per send: a concurrent approval can grow the approved set
// between two messages, so the answer is never cached.
func (g *Gate) ResolveCounterparty(ctx context.Context, propertyID uint64) (uint64, error) {
	ids, err := g.swipes.ApprovedUserIDs(ctx, propertyID)
	if err != nil {
		return 0, svcErr.Infra(err)
	}
	switch len(ids) {
	case 0:
		return 0, svcErr.NoApprovedSwipe()
	case 1:
		return ids[0], nil
	default:
		return 0, svcErr.AmbiguousCounterparty()
	}
}
