package encryption

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20-Poly1305 helpers. Nonces are derived deterministically by the
// caller (see keyderive.DeriveNonce), never generated at random, so the
// nonce is an explicit argument rather than being prepended to the output.

const NonceSize = chacha20poly1305.NonceSize

func AEADEncrypt(key [32]byte, nonce [NonceSize]byte, plaintext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.New: %w", err)
	}
	return aead.Seal(nil, nonce[:], plaintext, aad), nil
}

func AEADDecrypt(key [32]byte, nonce [NonceSize]byte, ciphertext, aad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, fmt.Errorf("chacha20poly1305.New: %w", err)
	}
	plain, err := aead.Open(nil, nonce[:], ciphertext, aad)
	if err != nil {
		return nil, fmt.Errorf("aead.Open: %w", err)
	}
	return plain, nil
}
