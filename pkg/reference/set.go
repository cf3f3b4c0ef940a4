package reference

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Set is the immutable collection of libraries and implicit namespaces
// consumed by every compilation of a session.  Accessors return copies so
// that the symbol universe cannot change once chained compilation begins.
type Set struct {
	libraries  []*Library
	byName     map[string]*Library
	namespaces []string
	digest     string
}

// NewSet constructs a Set.  Duplicate library names and namespaces are
// dropped, keeping the first occurrence.
func NewSet(libraries []*Library, namespaces []string) *Set {
	s := &Set{
		byName: make(map[string]*Library, len(libraries)),
	}
	for _, lib := range libraries {
		if _, ok := s.byName[lib.Name]; ok {
			continue
		}
		s.byName[lib.Name] = lib
		s.libraries = append(s.libraries, lib)
	}
	seen := make(map[string]bool, len(namespaces))
	for _, ns := range namespaces {
		if seen[ns] {
			continue
		}
		seen[ns] = true
		s.namespaces = append(s.namespaces, ns)
	}

	h := blake3.New()
	for _, lib := range s.libraries {
		fmt.Fprintf(h, "library %s %s\n", lib.Name, lib.Digest)
	}
	for _, ns := range s.namespaces {
		fmt.Fprintf(h, "namespace %s\n", ns)
	}
	s.digest = hex.EncodeToString(h.Sum(nil))

	return s
}

// Libraries returns the libraries in request order.
func (s *Set) Libraries() []*Library {
	if s == nil || len(s.libraries) == 0 {
		return nil
	}
	libs := make([]*Library, len(s.libraries))
	copy(libs, s.libraries)
	return libs
}

// Library returns the named library.
func (s *Set) Library(name string) (*Library, bool) {
	if s == nil {
		return nil, false
	}
	lib, ok := s.byName[name]
	return lib, ok
}

// Namespaces returns the implicit namespaces in request order.
func (s *Set) Namespaces() []string {
	if s == nil || len(s.namespaces) == 0 {
		return nil
	}
	namespaces := make([]string, len(s.namespaces))
	copy(namespaces, s.namespaces)
	return namespaces
}

// Digest summarizes the library names, library digests and namespaces.  Two
// sets with equal digests describe the same symbol universe.
func (s *Set) Digest() string {
	if s == nil {
		return ""
	}
	return s.digest
}
