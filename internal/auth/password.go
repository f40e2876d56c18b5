// Package auth implements the cryptographic primitives of the account
// core: memory-hard password hashing and signed token minting.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. The digest embeds them, so they can be tuned
// later without invalidating stored hashes.
const (
	argonTime    = 4
	argonMemory  = 8 * 1024 // KiB
	argonThreads = 1
	argonKeyLen  = 40
	argonSaltLen = 16

	vaultSaltLen = 10 // random bytes per vault salt, hex-encoded to 20 chars
)

var errMalformedDigest = errors.New("malformed password digest")

// NewSalt returns a fresh hex-encoded vault salt. A new salt is drawn
// on every password-set event: registration, password change and
// password reset.
func NewSalt() (string, error) {
	buf := make([]byte, vaultSaltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashPassword derives an argon2id digest of the vault salt prepended
// to the password. The result is a PHC-format string
// ($argon2id$v=19$m=...,t=...,p=...$salt$key) carrying its own random
// argon salt and parameters, so Verify never depends on current
// configuration.
func HashPassword(password, salt string) (string, error) {
	argonSalt := make([]byte, argonSaltLen)
	if _, err := rand.Read(argonSalt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(salt+password), argonSalt, argonTime, argonMemory, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(argonSalt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// VerifyPassword recomputes the digest for the candidate password with
// the parameters embedded in the stored digest and compares in
// constant time. A malformed digest verifies as false with an error;
// a wrong password is simply false.
func VerifyPassword(password, salt, digest string) (bool, error) {
	memory, timeCost, threads, argonSalt, key, err := parseDigest(digest)
	if err != nil {
		return false, err
	}
	candidate := argon2.IDKey([]byte(salt+password), argonSalt, timeCost, memory, threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(candidate, key) == 1, nil
}

func parseDigest(digest string) (memory uint32, timeCost uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		err = errMalformedDigest
		return
	}
	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		err = errMalformedDigest
		return
	}
	if version != argon2.Version {
		err = errMalformedDigest
		return
	}
	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		err = errMalformedDigest
		return
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		err = errMalformedDigest
		return
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		err = errMalformedDigest
		return
	}
	return
}
