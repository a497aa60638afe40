package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Hash returns the hex SHA-256 of data. Every cache key bottoms out here,
// so two inputs share an entry only when their full hashes match.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds "prefix:hash(parts)" with the parts JSON-encoded. Option
// structs hash by field value, so adding a field invalidates old entries
// instead of aliasing them.
func hashKey(prefix string, parts ...any) string {
	blob, _ := json.Marshal(parts)
	return prefix + ":" + Hash(blob)
}
