// Package password hashes and verifies admin passwords.
//
// A stored hash is "pbkdf2_sha256$" followed by the unpadded base64url
// encoding of a 373-byte payload:
//
//	[version:1][iterations:4 big-endian][salt:128][derived key:240]
//
// The key is derived with PBKDF2-HMAC-SHA512.
package password

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	Prefix            = "pbkdf2_sha256$"
	DefaultIterations = 300000

	formatVersion = 1
	saltLen       = 128
	payloadLen    = 373
	keyLen        = payloadLen - 1 - 4 - saltLen
)

var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher hashes passwords with a fixed iteration count. Verification reads
// the count from the stored hash, so it works across iteration changes.
type Hasher struct {
	Iterations int
}

// New returns a Hasher. A non-positive iteration count uses DefaultIterations.
func New(iterations int) *Hasher {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	return &Hasher{Iterations: iterations}
}

// Hash returns the encoded hash for plain.
func (h *Hasher) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	payload := make([]byte, 0, payloadLen)
	payload = append(payload, formatVersion)
	payload = binary.BigEndian.AppendUint32(payload, uint32(h.Iterations))
	payload = append(payload, salt...)
	payload = append(payload, pbkdf2.Key([]byte(plain), salt, h.Iterations, keyLen, sha512.New)...)

	return Prefix + base64.RawURLEncoding.EncodeToString(payload), nil
}

// Verify reports whether plain matches encoded. Malformed hashes never match.
func (h *Hasher) Verify(plain, encoded string) bool {
	if !strings.HasPrefix(encoded, Prefix) {
		return false
	}
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(encoded, Prefix))
	if err != nil || len(payload) != payloadLen || payload[0] != formatVersion {
		return false
	}

	iterations := int(binary.BigEndian.Uint32(payload[1:5]))
	if iterations <= 0 {
		return false
	}
	salt := payload[5 : 5+saltLen]
	expected := payload[5+saltLen:]

	derived := pbkdf2.Key([]byte(plain), salt, iterations, len(expected), sha512.New)
	return subtle.ConstantTimeCompare(derived, expected) == 1
}
