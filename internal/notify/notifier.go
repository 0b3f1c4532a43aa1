package notify

import "context"

// Notification is the payload delivered to a user's devices.
type Notification struct {
	Title string
	Body  string
	Data  map[string]string
}

// Result reports per-batch delivery counts plus tokens the provider declared
// permanently invalid.
type Result struct {
	Success       int
	Failure       int
	InvalidTokens []string
}

// Notifier delivers a notification to a set of device tokens.
// Implementations must be safe for concurrent use.
type Notifier interface {
	Send(ctx context.Context, tokens []string, n Notification) (*Result, error)
}

// Discard is a Notifier that drops everything. Used when push credentials
// are not configured, and in tests.
type Discard struct{}

func (Discard) Send(_ context.Context, tokens []string, _ Notification) (*Result, error) {
	return &Result{Success: len(tokens)}, nil
}
