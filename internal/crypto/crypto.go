package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 100000
	keySize    = 32 // AES-256

	// sealedPrefix marks values written by Seal
	sealedPrefix = "enc:v1:"
)

var (
	// ErrKeyRequired means a sealed value was read without a passphrase
	ErrKeyRequired = errors.New("value is encrypted but no session key is configured")

	// ErrWrongKey means a sealed value could not be opened with the key
	ErrWrongKey = errors.New("cannot decrypt value: wrong session key or corrupted data")
)

// Encryptor seals and opens values. A nil Encryptor stores values as they
// are.
type Encryptor struct {
	key []byte
}

// NewEncryptor derives a key from passphrase. It returns nil for an empty
// passphrase.
func NewEncryptor(passphrase string) *Encryptor {
	if passphrase == "" {
		return nil
	}

	// The salt is derived from the passphrase so the file needs no header
	salt := sha256.Sum256([]byte(passphrase + "forrev-session-salt"))
	key := pbkdf2.Key([]byte(passphrase), salt[:], iterations, keySize, sha256.New)

	return &Encryptor{key: key}
}

// Enabled reports whether values will be encrypted
func (e *Encryptor) Enabled() bool {
	return e != nil && len(e.key) > 0
}

// IsSealed reports whether value was produced by Seal
func IsSealed(value string) bool {
	return strings.HasPrefix(value, sealedPrefix)
}

// Seal encrypts plaintext. Without a key, or for an empty value, it is
// returned unchanged.
func (e *Encryptor) Seal(plaintext string) (string, error) {
	if !e.Enabled() || plaintext == "" {
		return plaintext, nil
	}

	gcm, err := e.aead()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return sealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values that were never sealed are returned unchanged,
// so a key can be configured after a session was stored in the clear.
func (e *Encryptor) Open(value string) (string, error) {
	if !IsSealed(value) {
		return value, nil
	}
	if !e.Enabled() {
		return "", ErrKeyRequired
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", ErrWrongKey
	}

	gcm, err := e.aead()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", ErrWrongKey
	}

	plaintext, err := gcm.Open(nil, data[:nonceSize], data[nonceSize:], nil)
	if err != nil {
		return "", ErrWrongKey
	}
	return string(plaintext), nil
}

// SealMap seals every value of m into a new map
func (e *Encryptor) SealMap(m map[string]string) (map[string]string, error) {
	return transform(m, e.Seal)
}

// OpenMap opens every value of m into a new map
func (e *Encryptor) OpenMap(m map[string]string) (map[string]string, error) {
	return transform(m, e.Open)
}

func transform(m map[string]string, fn func(string) (string, error)) (map[string]string, error) {
	result := make(map[string]string, len(m))
	for k, v := range m {
		out, err := fn(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", k, err)
		}
		result[k] = out
	}
	return result, nil
}

func (e *Encryptor) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(e.key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
