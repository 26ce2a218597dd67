package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealOpenCredential_RoundTrip(t *testing.T) {
	ciphertext, nonce, tag, err := sealCredential("a-key", []byte("hunter2"))
	require.NoError(t, err)

	plaintext, err := openCredential("a-key", ciphertext, nonce, tag)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", string(plaintext))
}

func TestOpenCredential_WrongKeyFails(t *testing.T) {
	ciphertext, nonce, tag, err := sealCredential("key-a", []byte("hunter2"))
	require.NoError(t, err)

	_, err = openCredential("key-b", ciphertext, nonce, tag)
	assert.ErrorIs(t, err, ErrDecryptFailed)
}

func TestNewKeyring_MissingMasterKey(t *testing.T) {
	_, err := newKeyring("")
	assert.ErrorIs(t, err, ErrMissingMasterKey)
}

func TestNewKeyring_MultiGenerationOrder(t *testing.T) {
	kr, err := newKeyring("gen1,gen2,gen3")
	require.NoError(t, err)

	gen, material := kr.currentGeneration()
	assert.Equal(t, 3, gen)
	assert.Equal(t, "gen3", material)

	m, ok := kr.material(1)
	require.True(t, ok)
	assert.Equal(t, "gen1", m)

	_, ok = kr.material(99)
	assert.False(t, ok)
}
