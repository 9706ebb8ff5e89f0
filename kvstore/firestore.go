package kvstore

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreConfig selects the Firebase project and credentials. CredentialsJSON
// may be raw or base64-encoded service account JSON; it wins over
// CredentialsFile. With neither set, application default credentials are used.
type FirestoreConfig struct {
	ProjectID       string
	Collection      string
	CredentialsJSON string
	CredentialsFile string
	Timeout         time.Duration
}

// FirestoreStore keeps one document per key, holding the value in a "value" field.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
	timeout    time.Duration
}

func NewFirestoreStore(ctx context.Context, cfg FirestoreConfig) (*FirestoreStore, error) {
	opts, err := firebaseOptions(cfg)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing firebase app: %v", ErrUnavailable, err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: getting firestore client: %v", ErrUnavailable, err)
	}

	return &FirestoreStore{client: client, collection: cfg.Collection, timeout: cfg.Timeout}, nil
}

func firebaseOptions(cfg FirestoreConfig) ([]option.ClientOption, error) {
	raw := strings.TrimSpace(cfg.CredentialsJSON)
	if raw != "" {
		if !strings.HasPrefix(raw, "{") {
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("decoding base64 firebase credentials: %w", err)
			}
			raw = string(decoded)
		}
		return []option.ClientOption{option.WithCredentialsJSON([]byte(raw))}, nil
	}
	if cfg.CredentialsFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(cfg.CredentialsFile)}, nil
	}
	return nil, nil
}

func (s *FirestoreStore) Get(key string) (string, bool, error) {
	ctx, cancel := opContext(s.timeout)
	defer cancel()

	snap, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read key %q: %w", key, err)
	}

	value, ok := snap.Data()["value"].(string)
	if !ok {
		return "", false, fmt.Errorf("key %q holds a non-string value", key)
	}
	return value, true, nil
}

func (s *FirestoreStore) Set(key, value string) error {
	ctx, cancel := opContext(s.timeout)
	defer cancel()

	_, err := s.client.Collection(s.collection).Doc(key).Set(ctx, map[string]interface{}{
		"value":     value,
		"updatedAt": firestore.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to write key %q: %w", key, err)
	}
	return nil
}

func (s *FirestoreStore) Remove(key string) error {
	ctx, cancel := opContext(s.timeout)
	defer cancel()

	if _, err := s.client.Collection(s.collection).Doc(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to remove key %q: %w", key, err)
	}
	return nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}
