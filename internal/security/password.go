package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

var defaultArgonParams = argonParams{
	time:    3,
	memory:  64 * 1024,
	threads: 2,
	keyLen:  32,
	saltLen: 16,
}

// HashPassword derives an argon2id hash in the standard encoded form.
func HashPassword(password string) ([]byte, error) {
	p := defaultArgonParams

	salt := make([]byte, p.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	return []byte(encoded), nil
}

// VerifyPassword reports whether password matches the stored encoded hash.
func VerifyPassword(password string, encodedHash []byte) (bool, error) {
	memory, time, threads, salt, key, err := parseHash(string(encodedHash))
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, computed) == 1, nil
}

func parseHash(encoded string) (memory, time uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" || parts[2] != "v=19" {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}

	for _, field := range strings.Split(parts[3], ",") {
		name, value, ok := strings.Cut(field, "=")
		if !ok {
			return 0, 0, 0, nil, nil, ErrMalformedHash
		}
		n, convErr := strconv.ParseUint(value, 10, 32)
		if convErr != nil {
			return 0, 0, 0, nil, nil, ErrMalformedHash
		}
		switch name {
		case "m":
			memory = uint32(n)
		case "t":
			time = uint32(n)
		case "p":
			threads = uint8(n)
		default:
			return 0, 0, 0, nil, nil, ErrMalformedHash
		}
	}

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	if memory == 0 || time == 0 || threads == 0 {
		return 0, 0, 0, nil, nil, ErrMalformedHash
	}
	return memory, time, threads, salt, key, nil
}
