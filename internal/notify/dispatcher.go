package notify

import (
	"context"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/subletme/sublet-api/internal/repository"
)

const sendTimeout = 10 * time.Second

// Dispatcher resolves a user's device tokens and pushes a notification to
// them. Delivery is strictly best-effort: it runs after the triggering
// transaction has committed, and failures are logged, never surfaced to the
// request that caused them.
type Dispatcher struct {
	db       *gorm.DB
	notifier Notifier
	logger   *slog.Logger
}

func NewDispatcher(database *gorm.DB, notifier Notifier, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{db: database, notifier: notifier, logger: logger}
}

// PushToUser sends n to every device the user has registered. Call it from a
// goroutine after commit; it carries its own timeout and never returns an
// error to the caller path.
func (d *Dispatcher) PushToUser(userID uint64, n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	users := repository.NewUserRepository(d.db)

	tokens, err := users.DeviceTokens(ctx, userID)
	if err != nil {
		d.logger.Error("failed to load device tokens", "user_id", userID, "err", err)
		return
	}
	if len(tokens) == 0 {
		d.logger.Info("no devices to notify", "user_id", userID)
		return
	}

	result, err := d.notifier.Send(ctx, tokens, n)
	if err != nil {
		d.logger.Error("push delivery failed", "user_id", userID, "err", err)
		return
	}

	d.logger.Info("push delivered",
		"user_id", userID,
		"success", result.Success,
		"failure", result.Failure,
	)

	// tokens FCM declared dead are dropped so we stop retrying them
	for _, token := range result.InvalidTokens {
		if err := users.RemoveDeviceToken(ctx, token); err != nil {
			d.logger.Error("failed to remove stale token", "err", err)
		}
	}
}
