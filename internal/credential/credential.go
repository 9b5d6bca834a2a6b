// Package credential hashes and verifies the unlock PIN.
//
// Two stored formats are understood. A legacy digest is the unsalted MD5 of
// the PIN as 32 lowercase hex characters. Every other string is a PHC-style
// argon2id hash:
//
//	$argon2id$v=19$m=19456,t=2,p=1$<salt>$<digest>
//
// with salt and digest in unpadded standard base64. Hash always produces the
// argon2id form; upgrading a legacy digest is left to the caller.
package credential

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	legacyDigestLen = 32

	algorithmID = "argon2id"

	defaultMemoryKiB = 19 * 1024
	defaultTime      = 2
	defaultThreads   = 1
	saltLen          = 16
	keyLen           = 32

	// Upper bounds for parameters read from a stored hash.
	maxMemoryKiB = 1024 * 1024 // 1 GiB
	maxTime      = 10
	maxKeyLen    = 64
)

// ErrMalformedHash is returned when a stored hash is neither a legacy digest
// nor a parseable argon2id string.
var ErrMalformedHash = errors.New("malformed credential hash")

// Params are the argon2id cost parameters.
type Params struct {
	Memory  uint32 // KiB
	Time    uint32
	Threads uint8
}

// DefaultParams are used by Hash.
var DefaultParams = Params{Memory: defaultMemoryKiB, Time: defaultTime, Threads: defaultThreads}

// StoredHash is a parsed credential hash: exactly one of the two formats.
type StoredHash interface {
	// Verify reports whether pin matches.
	Verify(pin string) bool
	// IsLegacy reports whether the hash should be upgraded.
	IsLegacy() bool
}

// LegacyDigest is an unsalted hex MD5 digest.
type LegacyDigest struct {
	Hex string
}

// Verify compares the recomputed digest for exact (case-sensitive) equality.
func (d LegacyDigest) Verify(pin string) bool {
	sum := md5.Sum([]byte(pin))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(d.Hex)) == 1
}

func (LegacyDigest) IsLegacy() bool { return true }

// ModernHash is a salted argon2id hash.
type ModernHash struct {
	Params Params
	Salt   []byte
	Key    []byte
}

// Verify recomputes the key with the stored salt and parameters.
func (h ModernHash) Verify(pin string) bool {
	key := argon2.IDKey([]byte(pin), h.Salt, h.Params.Time, h.Params.Memory, h.Params.Threads, uint32(len(h.Key)))
	return subtle.ConstantTimeCompare(key, h.Key) == 1
}

func (ModernHash) IsLegacy() bool { return false }

// String encodes the hash in PHC form.
func (h ModernHash) String() string {
	return fmt.Sprintf("$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		algorithmID, argon2.Version,
		h.Params.Memory, h.Params.Time, h.Params.Threads,
		base64.RawStdEncoding.EncodeToString(h.Salt),
		base64.RawStdEncoding.EncodeToString(h.Key))
}

// Hash returns a fresh argon2id hash of pin with a random salt.
func Hash(pin string) (string, error) {
	return HashWithParams(pin, DefaultParams)
}

// HashWithParams hashes pin with explicit cost parameters.
func HashWithParams(pin string, params Params) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(pin), salt, params.Time, params.Memory, params.Threads, keyLen)
	return ModernHash{Params: params, Salt: salt, Key: key}.String(), nil
}

// Verify checks pin against a stored hash of either format.
func Verify(pin, stored string) (bool, error) {
	h, err := Parse(stored)
	if err != nil {
		return false, err
	}
	return h.Verify(pin), nil
}

// Parse classifies stored by shape: 32 hex characters is a LegacyDigest,
// anything else must be a valid argon2id string.
func Parse(stored string) (StoredHash, error) {
	if isLegacyShape(stored) {
		return LegacyDigest{Hex: stored}, nil
	}
	return parseModern(stored)
}

func isLegacyShape(s string) bool {
	if len(s) != legacyDigestLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

func parseModern(s string) (ModernHash, error) {
	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(s, "$")
	if len(parts) != 6 || parts[0] != "" {
		return ModernHash{}, fmt.Errorf("%w: expected 5 '$'-separated fields", ErrMalformedHash)
	}
	if parts[1] != algorithmID {
		return ModernHash{}, fmt.Errorf("%w: unsupported algorithm %q", ErrMalformedHash, parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return ModernHash{}, fmt.Errorf("%w: bad version: %v", ErrMalformedHash, err)
	}
	if version != argon2.Version {
		return ModernHash{}, fmt.Errorf("%w: unsupported version %d", ErrMalformedHash, version)
	}

	var p Params
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &p.Threads); err != nil {
		return ModernHash{}, fmt.Errorf("%w: bad parameters: %v", ErrMalformedHash, err)
	}
	if p.Memory == 0 || p.Time == 0 || p.Threads == 0 {
		return ModernHash{}, fmt.Errorf("%w: zero cost parameter", ErrMalformedHash)
	}
	if p.Memory > maxMemoryKiB || p.Time > maxTime {
		return ModernHash{}, fmt.Errorf("%w: cost parameters out of range (m=%d, t=%d)", ErrMalformedHash, p.Memory, p.Time)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return ModernHash{}, fmt.Errorf("%w: bad salt", ErrMalformedHash)
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 || len(key) > maxKeyLen {
		return ModernHash{}, fmt.Errorf("%w: bad digest", ErrMalformedHash)
	}

	return ModernHash{Params: p, Salt: salt, Key: key}, nil
}
