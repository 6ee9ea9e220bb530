package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// Digest returns the hex-encoded SHA-256 of the given data.
func Digest(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Registry remembers digests of files that have already been processed so
// the same upload is not ingested twice.
type Registry struct {
	mu   sync.Mutex
	seen map[string]string // digest -> file name it arrived under
}

func NewRegistry() *Registry {
	return &Registry{seen: make(map[string]string)}
}

// Remember records the digest and reports whether it was seen before.
// When it was, the original file name is returned.
func (r *Registry) Remember(digest, fileName string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.seen[digest]; ok {
		return prev, true
	}
	r.seen[digest] = fileName
	return "", false
}
