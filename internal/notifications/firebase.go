package notifications

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/richxcame/ride-reputation/pkg/config"
)

// FirebaseClient sends push notifications through Firebase Cloud Messaging.
type FirebaseClient struct {
	client *messaging.Client
}

// NewFirebaseClient initializes FCM from service account credentials.
func NewFirebaseClient(ctx context.Context, cfg config.FirebaseConfig) (*FirebaseClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize fcm messaging client: %w", err)
	}

	return &FirebaseClient{client: client}, nil
}

// SendMulticastNotification pushes one message to every device token and
// returns how many deliveries succeeded. Partial delivery is a success;
// zero deliveries is an error.
func (c *FirebaseClient) SendMulticastNotification(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, error) {
	message := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}

	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return 0, err
	}
	if response.SuccessCount == 0 {
		return 0, fmt.Errorf("all %d device tokens rejected", response.FailureCount)
	}
	return response.SuccessCount, nil
}
