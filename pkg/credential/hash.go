package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/metamcp/metamcp/pkg/errors"
)

// Argon2id parameters. Chosen for an admin-scale credential population
// (§4.2's "tens of credentials" design note), not high-QPS login traffic.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// Hash computes a memory-hard, per-record-salted Argon2id digest of
// plaintext, encoded as a self-describing PHC string so Verify needs no
// external state beyond the stored string.
func Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.NewInternalError("failed to generate salt", err)
	}
	digest := argon2.IDKey([]byte(plaintext), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify reports whether plaintext matches the PHC-encoded digest phc, in
// constant time with respect to the comparison itself.
func Verify(plaintext, phc string) bool {
	params, salt, digest, err := parsePHC(phc)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(plaintext), salt, params.time, params.memory, params.threads, uint32(len(digest)))
	return subtle.ConstantTimeCompare(candidate, digest) == 1
}

type phcParams struct {
	memory  uint32
	time    uint32
	threads uint8
}

func parsePHC(phc string) (phcParams, []byte, []byte, error) {
	parts := strings.Split(phc, "$")
	// ["", "argon2id", "v=19", "m=...,t=...,p=...", "<salt>", "<digest>"]
	if len(parts) != 6 || parts[1] != "argon2id" {
		return phcParams{}, nil, nil, errors.NewInternalError("malformed credential hash", nil)
	}
	var p phcParams
	var m, t uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &m, &t, &threads); err != nil {
		return phcParams{}, nil, nil, errors.NewInternalError("malformed credential hash params", err)
	}
	p.memory, p.time, p.threads = m, t, threads

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return phcParams{}, nil, nil, errors.NewInternalError("malformed credential hash salt", err)
	}
	digest, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return phcParams{}, nil, nil, errors.NewInternalError("malformed credential hash digest", err)
	}
	return p, salt, digest, nil
}
