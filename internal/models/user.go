package models

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte
	Bio          *string
	LastSeenAt   time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AvatarURL returns the user's Gravatar, falling back to a generated
// identicon for addresses without one. The protocol hashes the trimmed,
// lowercased address with MD5.
func (u User) AvatarURL(size int) string {
	digest := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?d=identicon&s=%d", digest, size)
}
