package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/subletme/sublet-api/internal/config"
)

// FCMNotifier delivers notifications through Firebase Cloud Messaging.
type FCMNotifier struct {
	client *messaging.Client
}

// NewFCMNotifier initializes the Firebase app from the configured service
// account file and returns a ready messaging client.
func NewFCMNotifier(ctx context.Context, cfg *config.Config) (*FCMNotifier, error) {
	if cfg.Firebase.CredentialsFile == "" {
		return nil, fmt.Errorf("firebase credentials file not configured")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(cfg.Firebase.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to init firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init fcm client: %w", err)
	}

	return &FCMNotifier{client: client}, nil
}

// Send delivers one multicast message to all tokens. High priority on both
// platforms so like/approve events surface immediately.
func (f *FCMNotifier) Send(ctx context.Context, tokens []string, n Notification) (*Result, error) {
	if len(tokens) == 0 {
		return &Result{}, nil
	}

	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
		},
	}

	resp, err := f.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Success: resp.SuccessCount,
		Failure: resp.FailureCount,
	}
	for i, r := range resp.Responses {
		if r.Error != nil && messaging.IsUnregistered(r.Error) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		}
	}
	return result, nil
}
