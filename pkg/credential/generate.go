// Package credential implements the credential subsystem (§4.2): opaque
// credential generation, memory-hard hashing for authentication,
// authenticated symmetric encryption for administrative recovery, and
// short-lived bearer-token issuance/validation.
package credential

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/metamcp/metamcp/pkg/errors"
)

// Prefix is the fixed human-recognizable tag prepended to every generated
// credential, grounded on the Rust source's "mcp_" convention.
const Prefix = "mcp_"

// randomSuffixBytes is 128 bits of entropy hex-encoded.
const randomSuffixBytes = 16

// Generate produces a random opaque credential string: Prefix followed by
// a dense 128-bit random suffix. The plaintext is returned exactly once;
// callers must Hash and Encrypt it before persisting and never retain it.
func Generate() (string, error) {
	buf := make([]byte, randomSuffixBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.NewInternalError("failed to generate credential", err)
	}
	return Prefix + hex.EncodeToString(buf), nil
}
