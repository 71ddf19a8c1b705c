package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidResetToken covers every verification failure: malformed, expired
// and tampered tokens are deliberately indistinguishable to the caller.
var ErrInvalidResetToken = errors.New("invalid reset token")

type resetClaims struct {
	UserID string `json:"reset_password"`
	jwt.RegisteredClaims
}

// GenerateResetToken issues a signed credential-recovery token embedding the
// user id and an expiry instant. Tokens are never persisted; validity is
// checked only at verification time.
func GenerateResetToken(secret string, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := resetClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyResetToken returns the embedded user id, or ErrInvalidResetToken on
// any decode failure.
func VerifyResetToken(secret string, tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &resetClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidResetToken
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", ErrInvalidResetToken
	}

	claims, ok := token.Claims.(*resetClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return "", ErrInvalidResetToken
	}
	return claims.UserID, nil
}
