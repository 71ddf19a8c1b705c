package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewImageTokenLength(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		token := NewImageToken()
		assert.Len(t, token, 32)
		assert.Regexp(t, "^[0-9a-f]{32}$", token)
		_, dup := seen[token]
		assert.False(t, dup, "token collision")
		seen[token] = struct{}{}
	}
}

func TestNewNotEmpty(t *testing.T) {
	assert.NotEmpty(t, New())
	assert.NotEqual(t, New(), New())
}
