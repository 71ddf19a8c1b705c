// Package service contains the orchestrators between the HTTP surface and
// the stores. Identity is always an explicit argument; nothing here reads
// ambient request state.
package service

import (
	"context"
	"time"

	"tableizer/api/internal/models"
	"tableizer/api/internal/queue"
)

// UserStore is the account persistence the services depend on.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	UpdateProfile(ctx context.Context, id string, username string, bio *string) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
}

// ImageStore is the image-record persistence, always scoped by
// (token, owner).
type ImageStore interface {
	Create(ctx context.Context, image models.Image) error
	GetByToken(ctx context.Context, token, userID string) (models.Image, error)
	ListByUser(ctx context.Context, userID string) ([]models.Image, error)
	UpdateTabular(ctx context.Context, token, userID string, tabular string, numColumns int) error
	ClearTabular(ctx context.Context, token, userID string) error
	Delete(ctx context.Context, token, userID string) (models.Image, error)
}

// BlobStore is the remote object adapter.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PublicURL(key string) string
	CopyExample(ctx context.Context, destKey string) error
}

// TokenRevoker invalidates issued access tokens ahead of their natural
// expiry, backing logout.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// TaskQueue enqueues detached background operations.
type TaskQueue interface {
	Enqueue(ctx context.Context, task queue.Task) error
}
