package fcm

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

var ErrDisabled = errors.New("FCM client not initialized")

// Client sends push notifications through Firebase Cloud Messaging.
type Client struct {
	client *messaging.Client
	log    zerolog.Logger
}

// NewClient initializes FCM from a service account file. Without credentials
// the client is returned disabled and every send reports ErrDisabled.
func NewClient(ctx context.Context, credPath string, log zerolog.Logger) (*Client, error) {
	log = log.With().Str("component", "fcm").Logger()
	if credPath == "" {
		credJSON := os.Getenv("FIREBASE_CREDENTIALS_JSON")
		if credJSON == "" {
			log.Warn().Msg("no Firebase credentials found, push notifications disabled")
			return &Client{log: log}, nil
		}

		tmpFile, err := os.CreateTemp("", "firebase-credentials-*.json")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		defer tmpFile.Close()

		if _, err := tmpFile.Write([]byte(credJSON)); err != nil {
			return nil, fmt.Errorf("failed to write credentials: %w", err)
		}
		credPath = tmpFile.Name()
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting messaging client: %w", err)
	}

	log.Info().Msg("Firebase Cloud Messaging initialized")
	return &Client{client: client, log: log}, nil
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			ChannelID: "signal_alerts",
			Priority:  messaging.PriorityHigh,
		},
	}
}

// SendMulticast delivers one notification to many devices. It returns the number of failed tokens.
func (c *Client) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (int, error) {
	if c.client == nil {
		return 0, ErrDisabled
	}
	if len(tokens) == 0 {
		return 0, nil
	}

	message := &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: title, Body: body},
		Data:         data,
		Android:      androidConfig(),
	}
	response, err := c.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return 0, fmt.Errorf("error sending multicast: %w", err)
	}

	c.log.Info().Int("success", response.SuccessCount).Int("failure", response.FailureCount).Msg("multicast sent")
	return response.FailureCount, nil
}

// IsEnabled returns true if FCM client is initialized
func (c *Client) IsEnabled() bool {
	return c.client != nil
}
