package security

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(t *testing.T, secret string) *Signer {
	t.Helper()

	s, err := NewSigner(secret, "activation")
	require.NoError(t, err)
	return s
}

func TestSignerRoundTrip(t *testing.T) {
	s := newTestSigner(t, "super-secret")

	token, err := s.Sign("alice")
	require.NoError(t, err)

	value, err := s.Unsign(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", value)
}

func TestSignerIsDeterministic(t *testing.T) {
	s := newTestSigner(t, "super-secret")

	a, err := s.Sign("alice")
	require.NoError(t, err)
	b, err := s.Sign("alice")
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestSignerRejectsEveryFlippedBit(t *testing.T) {
	s := newTestSigner(t, "super-secret")

	token, err := s.Sign("alice")
	require.NoError(t, err)

	for i := 0; i < len(token); i++ {
		for bit := 0; bit < 8; bit++ {
			b := []byte(token)
			b[i] ^= 1 << bit

			_, err := s.Unsign(string(b))
			require.ErrorIsf(t, err, ErrInvalidSignature, "byte %d bit %d was accepted", i, bit)
		}
	}
}

func TestSignerRejectsOtherSecret(t *testing.T) {
	token, err := newTestSigner(t, "secret-one").Sign("alice")
	require.NoError(t, err)

	_, err = newTestSigner(t, "secret-two").Unsign(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignerRejectsOtherPurpose(t *testing.T) {
	other, err := NewSigner("super-secret", "password-reset")
	require.NoError(t, err)

	token, err := other.Sign("alice")
	require.NoError(t, err)

	_, err = newTestSigner(t, "super-secret").Unsign(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignerRejectsUnsignedToken(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:  "alice",
		Audience: jwt.ClaimStrings{"activation"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestSigner(t, "super-secret").Unsign(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestSignerRejectsGarbage(t *testing.T) {
	s := newTestSigner(t, "super-secret")

	for _, token := range []string{"", "alice", "a.b.c", "alice:signature"} {
		_, err := s.Unsign(token)
		assert.ErrorIs(t, err, ErrInvalidSignature, token)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	_, err := NewSigner("", "activation")
	assert.ErrorIs(t, err, ErrNoSecret)
}

func TestSignRejectsEmptyValue(t *testing.T) {
	_, err := newTestSigner(t, "super-secret").Sign("")
	assert.Error(t, err)
}
