package security

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSignature = errors.New("bad signature")
	ErrNoSecret         = errors.New("no signing secret provided")
)

// Signer produces tamper-evident tokens that carry a single string value.
// Tokens are HS256 JWTs with the value as subject and the purpose as
// audience, so a token minted for one purpose can't be replayed for another.
// Tokens are deterministic and don't expire.
type Signer struct {
	secret  []byte
	purpose string
	parser  *jwt.Parser
}

func NewSigner(secret, purpose string) (*Signer, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	if purpose == "" {
		return nil, errors.New("no signer purpose provided")
	}

	return &Signer{
		secret:  []byte(secret),
		purpose: purpose,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithAudience(purpose),
			jwt.WithStrictDecoding(),
		),
	}, nil
}

// Sign returns a token for value. The same value always yields the same token
// for a given secret and purpose.
func (s *Signer) Sign(value string) (string, error) {
	if value == "" {
		return "", errors.New("can't sign an empty value")
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  value,
		Audience: jwt.ClaimStrings{s.purpose},
	})

	token, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign value, %w", err)
	}

	return token, nil
}

// Unsign returns the value embedded in token. Every token that wasn't made by
// Sign on a signer with the same secret and purpose gives ErrInvalidSignature.
func (s *Signer) Unsign(token string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := s.parser.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	if claims.Subject == "" {
		return "", ErrInvalidSignature
	}

	return claims.Subject, nil
}
