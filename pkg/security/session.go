package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid session token")

const sessionType = "auth"

// IssueSession returns a signed login token for accountID valid for ttl
func IssueSession(secret []byte, accountID string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": accountID,
		"type":    sessionType,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})

	return t.SignedString(secret)
}

// ParseSession validates a login token and returns the account ID it was
// issued for
func ParseSession(secret []byte, token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidSession
	}

	if typ, _ := claims["type"].(string); typ != sessionType {
		return "", fmt.Errorf("%w: wrong token type", ErrInvalidSession)
	}

	id, _ := claims["user_id"].(string)
	if id == "" {
		return "", fmt.Errorf("%w: no user id", ErrInvalidSession)
	}

	return id, nil
}
