package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/bowerhall/parley/internal/storage"
)

// Blobs is the object storage surface BlobStore needs; *storage.Client
// satisfies it.
type Blobs interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) error
	Download(ctx context.Context, name string) ([]byte, error)
	Delete(ctx context.Context, name string) error
}

// BlobStore keeps each session as a JSON object in object storage.
type BlobStore struct {
	blobs  Blobs
	prefix string
}

func NewBlobStore(blobs Blobs) *BlobStore {
	return &BlobStore{blobs: blobs, prefix: "sessions/"}
}

func (s *BlobStore) objectName(userID string) string {
	return s.prefix + userID + ".json"
}

func (s *BlobStore) Get(ctx context.Context, userID string) (*Session, error) {
	data, err := s.blobs.Download(ctx, s.objectName(userID))
	if errors.Is(err, storage.ErrNotFound) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", userID, err)
	}

	return Unmarshal(data)
}

func (s *BlobStore) Set(ctx context.Context, userID string, sess *Session) error {
	data, err := Marshal(sess)
	if err != nil {
		return err
	}

	return s.blobs.Upload(ctx, s.objectName(userID), data, "application/json")
}

func (s *BlobStore) Delete(ctx context.Context, userID string) error {
	return s.blobs.Delete(ctx, s.objectName(userID))
}
