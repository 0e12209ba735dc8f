package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheap parameters, the defaults make the suite crawl
func testArgon() *ArgonHash {
	return &ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgonVerifiesOwnHash(t *testing.T) {
	a := testArgon()

	hash, err := a.GenerateFromPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := a.VerifyPasswd("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.VerifyPasswd("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonSaltsEveryHash(t *testing.T) {
	a := testArgon()

	h1, err := a.GenerateFromPassword("same password")
	require.NoError(t, err)
	h2, err := a.GenerateFromPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonUsesStoredParameters(t *testing.T) {
	hash, err := testArgon().GenerateFromPassword("pw12345678")
	require.NoError(t, err)

	ok, err := New().VerifyPasswd("pw12345678", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgonRejectsMalformedHash(t *testing.T) {
	a := testArgon()

	for _, h := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA", "$argon2id$v=19$bad$c2FsdA$aGFzaA"} {
		_, err := a.VerifyPasswd("x", h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}

	_, err := a.VerifyPasswd("x", "$argon2id$v=16$m=1024,t=1,p=1$c2FsdA$aGFzaA")
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}
