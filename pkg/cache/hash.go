package cache

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/json"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"
	"github.com/opencontainers/go-digest"
)

// hashKey generates a cache key by hashing the canonical JSON encoding of
// parts. The key format is: prefix:hex(sha256).
func hashKey(prefix string, parts ...any) string {
	raw, _ := json.Marshal(parts)
	if canon, err := jsoncanonicalizer.Transform(raw); err == nil {
		raw = canon
	}
	return prefix + ":" + digest.FromBytes(raw).Encoded()
}

// Hash computes the SHA-256 of data as a 64-character hex string.
func Hash(data []byte) string {
	return digest.FromBytes(data).Encoded()
}
