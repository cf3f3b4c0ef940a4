package reference

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Library is one library-symbol source available to compiled submissions.
type Library struct {
	// Name is the name the library was requested under.
	Name string
	// Data is the raw library content as returned by the Provider.
	Data []byte
	// Digest is the blake3 hex digest of Data.
	Digest string
}

// NewLibrary constructs a Library and computes its digest.
func NewLibrary(name string, data []byte) *Library {
	return &Library{
		Name:   name,
		Data:   data,
		Digest: Digest(data),
	}
}

// Digest returns the blake3 hex digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
