package credential

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/metamcp/metamcp/pkg/errors"
)

// Encrypt seals plaintext with key using ChaCha20-Poly1305, prepending a
// fresh random 96-bit nonce to the returned ciphertext (§3, §4.2). Two
// calls with the same plaintext and key never produce the same output.
func Encrypt(plaintext string, key [32]byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, errors.NewInternalError("failed to initialize cipher", err)
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errors.NewInternalError("failed to generate nonce", err)
	}
	ciphertext := aead.Seal(nil, nonce, []byte(plaintext), nil)
	return append(nonce, ciphertext...), nil
}

// Decrypt recovers the plaintext credential material sealed by Encrypt,
// used only for administrative recovery/display (§4.2).
func Decrypt(blob []byte, key [32]byte) (string, error) {
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return "", errors.NewInternalError("failed to initialize cipher", err)
	}
	if len(blob) < chacha20poly1305.NonceSize {
		return "", errors.NewInternalError("ciphertext too short", nil)
	}
	nonce, ciphertext := blob[:chacha20poly1305.NonceSize], blob[chacha20poly1305.NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errors.NewInternalError("failed to decrypt credential", err)
	}
	return string(plaintext), nil
}
