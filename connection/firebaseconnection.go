package connection

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// FBConnection opens the Firestore client behind the task and user collections.
func FBConnection(ctx context.Context, credentialsFile string, log *zap.Logger) (*firestore.Client, error) {
	if credentialsFile == "" {
		return nil, errors.New("environment variable GOOGLE_APPLICATION_CREDENTIALS_1 is not set")
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firestore client: %w", err)
	}

	log.Info("firestore connection successful")
	return client, nil
}
