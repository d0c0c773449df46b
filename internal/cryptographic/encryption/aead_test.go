package encryption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAEADRoundTrip(t *testing.T) {
	key := [32]byte{1, 2, 3}
	nonce := [NonceSize]byte{4, 5, 6}

	ct, err := AEADEncrypt(key, nonce, []byte("plaintext"), []byte("aad"))
	require.NoError(t, err)
	assert.NotEqual(t, []byte("plaintext"), ct)

	plain, err := AEADDecrypt(key, nonce, ct, []byte("aad"))
	require.NoError(t, err)
	assert.Equal(t, []byte("plaintext"), plain)
}

func TestAEADRejects(t *testing.T) {
	key := [32]byte{1}
	nonce := [NonceSize]byte{2}

	ct, err := AEADEncrypt(key, nonce, []byte("plaintext"), nil)
	require.NoError(t, err)

	_, err = AEADDecrypt([32]byte{9}, nonce, ct, nil)
	assert.Error(t, err, "wrong key")

	_, err = AEADDecrypt(key, [NonceSize]byte{8}, ct, nil)
	assert.Error(t, err, "wrong nonce")

	_, err = AEADDecrypt(key, nonce, ct, []byte("aad"))
	assert.Error(t, err, "wrong aad")

	tampered := append([]byte(nil), ct...)
	tampered[0] ^= 1
	_, err = AEADDecrypt(key, nonce, tampered, nil)
	assert.Error(t, err, "tampered ciphertext")
}
