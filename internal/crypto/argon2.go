package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params are the tunable Argon2id costs, bounded per spec §4.6:
// m_cost∈[19456,1048576], t_cost∈[2,10], p_cost∈[1,4].
type Argon2Params struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultArgon2Params matches the S4 scenario in spec §8 (m=19456,t=2,p=1).
var DefaultArgon2Params = Argon2Params{MemoryKiB: 19456, Time: 2, Threads: 1, KeyLen: 32}

// ValidateArgon2Params enforces the bounds from spec §4.6.
func ValidateArgon2Params(p Argon2Params) error {
	if p.MemoryKiB < 19456 || p.MemoryKiB > 1048576 {
		return fmt.Errorf("crypto: argon2 m_cost out of range: %d", p.MemoryKiB)
	}
	if p.Time < 2 || p.Time > 10 {
		return fmt.Errorf("crypto: argon2 t_cost out of range: %d", p.Time)
	}
	if p.Threads < 1 || p.Threads > 4 {
		return fmt.Errorf("crypto: argon2 p_cost out of range: %d", p.Threads)
	}
	return nil
}

// referenceSaltSeed is the fixed salt VerifyDummy hashes with to perform an
// equivalent amount of Argon2id work on the "no such user" / "no password"
// paths, equalizing response latency per spec §4.1/§4.4(a).
const referenceSaltSeed = "cedros-core-dummy-verify-reference-salt-v1"

// HashPassword produces an encoded Argon2id hash string: "argon2id$<m>$<t>$<p>$<salt-b64>$<hash-b64>".
func HashPassword(password string, p Argon2Params) (string, error) {
	if err := ValidateArgon2Params(p); err != nil {
		return "", err
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("crypto: salt: %w", err)
	}
	return encodeArgon2(password, salt, p), nil
}

func encodeArgon2(password string, salt []byte, p Argon2Params) string {
	hash := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))
}

func decodeArgon2(encoded string) (salt, hash []byte, p Argon2Params, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return nil, nil, Argon2Params{}, fmt.Errorf("crypto: malformed argon2 hash")
	}
	var m, t, threads int
	if _, err := fmt.Sscanf(parts[1], "%d", &m); err != nil {
		return nil, nil, Argon2Params{}, err
	}
	if _, err := fmt.Sscanf(parts[2], "%d", &t); err != nil {
		return nil, nil, Argon2Params{}, err
	}
	if _, err := fmt.Sscanf(parts[3], "%d", &threads); err != nil {
		return nil, nil, Argon2Params{}, err
	}
	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, Argon2Params{}, err
	}
	hash, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, Argon2Params{}, err
	}
	p = Argon2Params{MemoryKiB: uint32(m), Time: uint32(t), Threads: uint8(threads), KeyLen: uint32(len(hash))}
	return salt, hash, p, nil
}

// VerifyPassword checks password against an encoded Argon2id hash in
// constant time.
func VerifyPassword(password, encoded string) bool {
	salt, hash, p, err := decodeArgon2(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(password), salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}

// VerifyDummy performs Argon2id work equivalent to VerifyPassword by deriving
// a key from password with DefaultArgon2Params and a fixed salt and
// discarding it, so "no such user" / "OAuth-only account" paths take the
// same time as a real password check (spec §4.1, §4.4(a)).
func VerifyDummy(password string) {
	salt := []byte(referenceSaltSeed)[:16]
	_ = argon2.IDKey([]byte(password), salt, DefaultArgon2Params.Time, DefaultArgon2Params.MemoryKiB, DefaultArgon2Params.Threads, DefaultArgon2Params.KeyLen)
}

// DeriveKeyArgon2 derives a 32-byte key from a credential (password or PIN)
// and a per-wallet salt/params, for Share-A unlock (spec §4.1/§4.6).
func DeriveKeyArgon2(credential string, salt []byte, p Argon2Params) ([]byte, error) {
	if len(salt) < 16 {
		return nil, fmt.Errorf("crypto: kdf salt must be >= 16 bytes")
	}
	if err := ValidateArgon2Params(p); err != nil {
		return nil, err
	}
	return argon2.IDKey([]byte(credential), salt, p.Time, p.MemoryKiB, p.Threads, AEADKeySize), nil
}
