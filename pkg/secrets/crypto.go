package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

// gcmTagSize is the standard AES-GCM authentication tag length. Go's
// cipher.AEAD.Seal appends the tag to the ciphertext; this package splits
// it back out so the schema's ciphertext/tag columns stay independently
// meaningful (spec §4.3: "store ciphertext+nonce+tag").
const gcmTagSize = 16

// deriveKey turns arbitrary operator-supplied key material into a 32-byte
// AES-256 key. SHA-256 is used purely as a length-normalizing hash here,
// not as a KDF with domain separation — no key-derivation library (HKDF or
// otherwise) appears anywhere in the retrieval pack, so this is the
// stdlib-only answer, matching the rest of pkg/secrets' cipher choice.
func deriveKey(material string) [32]byte {
	return sha256.Sum256([]byte(material))
}

func newGCM(keyMaterial string) (cipher.AEAD, error) {
	key := deriveKey(keyMaterial)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("secrets: failed to construct AES cipher: %w", err)
	}
	return cipher.NewGCM(block)
}

// sealCredential encrypts plaintext under keyMaterial, returning the
// ciphertext, the random nonce used, and the authentication tag, each
// stored as its own column (spec §4.3).
func sealCredential(keyMaterial string, plaintext []byte) (ciphertext, nonce, tag []byte, err error) {
	gcm, err := newGCM(keyMaterial)
	if err != nil {
		return nil, nil, nil, err
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("secrets: failed to generate nonce: %w", err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	split := len(sealed) - gcmTagSize
	return sealed[:split], nonce, sealed[split:], nil
}

// openCredential decrypts ciphertext+tag under keyMaterial using nonce.
func openCredential(keyMaterial string, ciphertext, nonce, tag []byte) ([]byte, error) {
	gcm, err := newGCM(keyMaterial)
	if err != nil {
		return nil, err
	}
	sealed := append(append([]byte{}, ciphertext...), tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return plaintext, nil
}
