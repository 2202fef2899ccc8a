package encryption

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ChaCha20 seals and opens payloads with ChaCha20-Poly1305, a modern AEAD
// cipher that performs well on CPUs without AES hardware acceleration.
type ChaCha20 struct {
	aead cipher20
}

// cipher20 is the AEAD subset ChaCha20 relies on.
type cipher20 interface {
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	NonceSize() int
}

// NewChaCha20 creates a ChaCha20-Poly1305 encryptor. The key is hashed
// with SHA-256 to produce a consistent 32-byte key.
func NewChaCha20(key string) (*ChaCha20, error) {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	keyBytes := hasher.Sum(nil)

	aead, err := chacha20poly1305.New(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("create chacha20: %w", err)
	}

	return &ChaCha20{aead: aead}, nil
}

// Seal encrypts plaintext and returns the nonce-prefixed envelope.
func (s *ChaCha20) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Open authenticates and decrypts a nonce-prefixed envelope.
func (s *ChaCha20) Open(ciphertext []byte) ([]byte, error) {
	nonceSize := s.aead.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, data := ciphertext[:nonceSize], ciphertext[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, data, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}
