// Package crypto seals and opens history archives with a passphrase.
// Archives are AES-256-GCM with a PBKDF2-derived key; the authentication
// tag means a wrong passphrase or tampering fails loudly instead of
// producing garbage history.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Sealed layout: [magic(4)][salt(16)][nonce(12)][ciphertext+tag]
var magic = []byte("CRV1")

const (
	keySize   = 32 // AES-256
	saltSize  = 16
	nonceSize = 12 // GCM standard
	tagSize   = 16

	// PBKDF2 iterations; archives are sealed rarely, so err on the slow side.
	kdfIterations = 100000
)

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, kdfIterations, keySize, sha256.New)
}

// Seal encrypts payload under the passphrase and returns the archive bytes.
func Seal(payload []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := make([]byte, 0, len(magic)+saltSize+nonceSize+len(payload)+tagSize)
	sealed = append(sealed, magic...)
	sealed = append(sealed, salt...)
	sealed = append(sealed, nonce...)
	sealed = gcm.Seal(sealed, nonce, payload, magic)

	return sealed, nil
}

// Open decrypts an archive produced by Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("passphrase cannot be empty")
	}

	minSize := len(magic) + saltSize + nonceSize + tagSize
	if len(sealed) < minSize {
		return nil, fmt.Errorf("archive too short")
	}
	if !bytes.Equal(sealed[:len(magic)], magic) {
		return nil, fmt.Errorf("not a corvus archive")
	}

	rest := sealed[len(magic):]
	salt := rest[:saltSize]
	nonce := rest[saltSize : saltSize+nonceSize]
	ciphertext := rest[saltSize+nonceSize:]

	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	payload, err := gcm.Open(nil, nonce, ciphertext, magic)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive (wrong passphrase or corrupted data): %w", err)
	}

	return payload, nil
}
