// Package ids generates record identifiers and the opaque tokens that key
// image blobs in remote storage.
package ids

import (
	"encoding/hex"

	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

// New returns a sortable identifier for database rows.
func New() string {
	return ksuid.New().String()
}

// NewImageToken returns the opaque 32-character token an image and all of its
// derived blobs are addressed by. Uniqueness rests on generation entropy;
// collisions are treated as negligible and not checked.
func NewImageToken() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}
