package sink

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"google.golang.org/api/option"
)

var _ Pusher = (*FirebasePusher)(nil)

// FirebasePusher pushes records to a Firebase Realtime Database.
type FirebasePusher struct {
	client *db.Client
}

// NewFirebasePusher initializes the Firebase app from a service account file
// and opens the database client.
func NewFirebasePusher(ctx context.Context, databaseURL, credentialsFile string) (*FirebasePusher, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("firebase database URL is required")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL: databaseURL,
	}, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase: %w", err)
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open firebase database: %w", err)
	}

	return &FirebasePusher{client: client}, nil
}

// Push appends rec under path with a generated key.
func (f *FirebasePusher) Push(ctx context.Context, path string, rec Record) error {
	_, err := f.client.NewRef(path).Push(ctx, rec)
	return err
}
