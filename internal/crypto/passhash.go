// Package crypto implements server-side credential hashing and verification.
//
// A credential is stored as a single text value of the shape
// "pbkdf2;<hash_hex>;<salt_hex>;<iterations>;". The iteration count is kept
// per credential so existing records stay verifiable if the default ever
// changes, and the leading algorithm tag allows a future migration away
// from PBKDF2 without guessing what a given row contains.
package crypto

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/yproject/authcore/internal/errs"
	"github.com/yproject/authcore/internal/hexenc"
)

// Derivation parameters. Salt and key sizes are fixed by the stored column
// layout; session tokens use a lower iteration count because they are
// verified on every authenticated request and already carry 64 bytes of
// entropy.
const (
	SaltSize = 64
	KeySize  = 64

	PasswordIterations     = 200000
	SessionTokenIterations = 10000

	MinPasswordLen = 8
	MaxPasswordLen = 2048
)

const algPBKDF2 = "pbkdf2"

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// DeriveKey derives a KeySize-byte key from secret using PBKDF2-HMAC-SHA-512.
func DeriveKey(secret, salt []byte, iterations int) []byte {
	return pbkdf2.Key(secret, salt, iterations, KeySize, sha512.New)
}

// HashPassword derives an encoded credential string from a cleartext
// password using a fresh random salt. The length constraint is enforced
// here as well as at the API boundary, so a trivially short or long
// password is rejected even if upstream validation is bypassed.
func HashPassword(password string) (string, error) {
	if len(password) < MinPasswordLen || len(password) > MaxPasswordLen {
		return "", errs.ErrPasswordLength
	}

	salt, err := RandBytes(SaltSize)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	hash := DeriveKey([]byte(password), salt, PasswordIterations)

	return encodeCredential(hash, salt, PasswordIterations), nil
}

// VerifyPassword checks a cleartext password against a stored credential.
// It returns nil on a match, errs.ErrUnsupportedHashAlgorithm when the
// algorithm tag is unrecognized, and errs.ErrPasswordIncorrect otherwise.
// Malformed encodings fail closed as a non-match; nothing panics past this
// boundary.
func VerifyPassword(encoded, password string) error {
	hash, salt, iterations, err := parseCredential(encoded)
	if err != nil {
		return err
	}

	got := DeriveKey([]byte(password), salt, iterations)
	if subtle.ConstantTimeCompare(got, hash) != 1 {
		return errs.ErrPasswordIncorrect
	}
	return nil
}

func encodeCredential(hash, salt []byte, iterations int) string {
	return fmt.Sprintf("%s;%s;%s;%d;", algPBKDF2, hexenc.Encode(hash), hexenc.Encode(salt), iterations)
}

// parseCredential splits an encoded credential into its parts. The trailing
// separator produces an empty final segment, which is ignored.
func parseCredential(encoded string) (hash, salt []byte, iterations int, err error) {
	parts := strings.Split(encoded, ";")
	if len(parts) < 4 {
		return nil, nil, 0, errs.ErrPasswordIncorrect
	}
	if parts[0] != algPBKDF2 {
		return nil, nil, 0, errs.ErrUnsupportedHashAlgorithm
	}

	hash, err = hexenc.Decode(parts[1])
	if err != nil || len(hash) != KeySize {
		return nil, nil, 0, errs.ErrPasswordIncorrect
	}
	salt, err = hexenc.Decode(parts[2])
	if err != nil || len(salt) != SaltSize {
		return nil, nil, 0, errs.ErrPasswordIncorrect
	}
	iterations, err = strconv.Atoi(parts[3])
	if err != nil || iterations <= 0 {
		return nil, nil, 0, errs.ErrPasswordIncorrect
	}

	return hash, salt, iterations, nil
}
