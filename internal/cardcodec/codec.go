// Package cardcodec converts card numbers to and from their at-rest form.
//
// The transform is deterministic so the stored value doubles as a lookup key:
// the IV is synthesized from an HMAC of the plaintext, the plaintext is
// encrypted with AES-CTR under that IV, and the stored form is
// base64url(iv || ciphertext). Decoding recomputes the HMAC and rejects any
// value this codec did not produce.
package cardcodec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	ivSize     = aes.BlockSize
	keySize    = 32
	minSecret  = 16
	hkdfSalt   = "rapidpay/card-number"
	hkdfInfo   = "aes-256-ctr+hmac-sha256"
	maxEncoded = 64
)

// ErrDecoding is returned when a stored value was not produced by this codec.
var ErrDecoding = errors.New("card number decoding failed")

// Codec is safe for concurrent use.
type Codec struct {
	block  cipher.Block
	macKey []byte
}

// New derives the encryption and authentication keys from secret.
func New(secret []byte) (*Codec, error) {
	if len(secret) < minSecret {
		return nil, fmt.Errorf("card number secret must be at least %d bytes", minSecret)
	}

	keys := make([]byte, 2*keySize)
	kdf := hkdf.New(sha256.New, secret, []byte(hkdfSalt), []byte(hkdfInfo))
	if _, err := io.ReadFull(kdf, keys); err != nil {
		return nil, fmt.Errorf("derive card number keys: %w", err)
	}
	encKey, macKey := keys[:keySize], keys[keySize:]

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	return &Codec{block: block, macKey: macKey}, nil
}

// Encode returns the stored representation of plaintext.
func (c *Codec) Encode(plaintext string) string {
	iv := c.syntheticIV([]byte(plaintext))

	out := make([]byte, ivSize+len(plaintext))
	copy(out, iv)
	cipher.NewCTR(c.block, iv).XORKeyStream(out[ivSize:], []byte(plaintext))

	return base64.RawURLEncoding.EncodeToString(out)
}

// Decode reverses Encode.
func (c *Codec) Decode(stored string) (string, error) {
	if len(stored) == 0 || len(stored) > maxEncoded {
		return "", ErrDecoding
	}

	raw, err := base64.RawURLEncoding.DecodeString(stored)
	if err != nil || len(raw) <= ivSize {
		return "", ErrDecoding
	}

	iv, ciphertext := raw[:ivSize], raw[ivSize:]
	plaintext := make([]byte, len(ciphertext))
	cipher.NewCTR(c.block, iv).XORKeyStream(plaintext, ciphertext)

	if !hmac.Equal(iv, c.syntheticIV(plaintext)) {
		return "", ErrDecoding
	}
	return string(plaintext), nil
}

func (c *Codec) syntheticIV(plaintext []byte) []byte {
	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(plaintext)
	return mac.Sum(nil)[:ivSize]
}
