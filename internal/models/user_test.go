package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAvatarURL(t *testing.T) {
	u := User{Email: "susan@example.com"}

	// md5("susan@example.com")
	assert.Equal(t,
		"https://www.gravatar.com/avatar/f3fc30174d7fd74ab6ca3c36d198fcb9?d=identicon&s=128",
		u.AvatarURL(128),
	)
}

func TestAvatarURLNormalizesAddress(t *testing.T) {
	canonical := User{Email: "susan@example.com"}
	shouty := User{Email: "  SUSAN@Example.COM "}

	assert.Equal(t, canonical.AvatarURL(64), shouty.AvatarURL(64))
}

func TestAvatarURLSize(t *testing.T) {
	u := User{Email: "susan@example.com"}
	assert.Contains(t, u.AvatarURL(40), "s=40")
	assert.Contains(t, u.AvatarURL(256), "s=256")
}
