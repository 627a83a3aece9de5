package kvstore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo binds derived keys to this store format so the same secret used
// elsewhere yields a different key.
const hkdfInfo = "sproutfound kvstore v1"

// Codec turns plaintext values into the string form handed to a backend
// and back again.
type Codec interface {
	Encode(plain []byte) (string, error)
	Decode(stored string) ([]byte, error)
}

// Base64Codec is the default reversible encoding. It obscures values from
// casual inspection but is not encryption.
type Base64Codec struct{}

// Encode implements Codec.
func (Base64Codec) Encode(plain []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(plain), nil
}

// Decode implements Codec.
func (Base64Codec) Decode(stored string) ([]byte, error) {
	plain, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 value: %w", err)
	}
	return plain, nil
}

// SealedCodec encrypts values with AES-256-GCM before base64 encoding them.
// The nonce is prepended to the ciphertext: [nonce][ciphertext+tag].
type SealedCodec struct {
	aead cipher.AEAD
}

// NewSealedCodec derives a 32-byte key from secret with HKDF-SHA256.
func NewSealedCodec(secret string) (*SealedCodec, error) {
	if secret == "" {
		return nil, fmt.Errorf("sealed codec requires a secret")
	}

	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &SealedCodec{aead: gcm}, nil
}

// Encode implements Codec.
func (c *SealedCodec) Encode(plain []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, plain, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decode implements Codec.
func (c *SealedCodec) Decode(stored string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 value: %w", err)
	}

	nonceSize := c.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}

	nonce, ct := data[:nonceSize], data[nonceSize:]
	plain, err := c.aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	return plain, nil
}

// encodeKey maps a logical key to its backend form.
func encodeKey(key string) string {
	return base64.StdEncoding.EncodeToString([]byte(key))
}

// decodeKey reverses encodeKey.
func decodeKey(stored string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
