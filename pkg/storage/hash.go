package storage

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm is a named content hash
type Algorithm struct {
	Name string
	New  func() hash.Hash
}

var (
	SHA256 = Algorithm{Name: "sha256", New: sha256.New}

	Blake2b = Algorithm{Name: "blake2b", New: func() hash.Hash {
		// New256 only fails for keys longer than 64 bytes
		h, _ := blake2b.New256(nil)
		return h
	}}
)

// AlgorithmByName looks up a content hash by its configuration name
func AlgorithmByName(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case SHA256.Name:
		return SHA256, nil
	case Blake2b.Name:
		return Blake2b, nil
	default:
		return Algorithm{}, fmt.Errorf("unknown hash algorithm %q", name)
	}
}
