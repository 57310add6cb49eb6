package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// credentialSalt is a fixed, non-secret application-level salt. The derived
// key must be reconstructable from the secret alone, so the salt cannot be
// random per encryption.
const credentialSalt = "dbvault-credentials"

const (
	keyIterations = 100_000
	keyLength     = 32
	nonceLength   = 12
)

// ErrDecryption is returned when a ciphertext fails authentication: tampered
// data, a different secret, or malformed input.
var ErrDecryption = errors.New("credential decryption failed")

// Cipher encrypts and decrypts stored connection passwords. The key is
// derived once from the configured secret; the cipher itself is stateless
// and safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher derives a 256-bit AES key from secret via PBKDF2-HMAC-SHA256 and
// prepares an AES-GCM AEAD around it.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, fmt.Errorf("encryption secret must not be empty")
	}

	key := pbkdf2.Key([]byte(secret), []byte(credentialSalt), keyIterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce and returns
// base64(nonce || ciphertext). Two encryptions of the same plaintext never
// produce the same output.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Any authentication failure surfaces as
// ErrDecryption; there is no partial or unauthenticated decoding path.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: invalid base64", ErrDecryption)
	}
	if len(raw) < nonceLength {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecryption)
	}

	nonce, ciphertext := raw[:nonceLength], raw[nonceLength:]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryption
	}
	return string(plaintext), nil
}
