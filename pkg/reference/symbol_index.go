package reference

import (
	"sort"

	"github.com/dghubble/trie"
)

// SymbolIndex maps exported symbol names to the libraries that export them.
type SymbolIndex struct {
	symbols *trie.PathTrie
}

// NewSymbolIndex constructs an empty SymbolIndex.
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		symbols: trie.NewPathTrie(),
	}
}

// Put records that library exports symbol.
func (x *SymbolIndex) Put(symbol, library string) {
	var libraries []string
	if v := x.symbols.Get(symbol); v != nil {
		libraries = v.([]string)
	}
	for _, lib := range libraries {
		if lib == library {
			return
		}
	}
	libraries = append(libraries, library)
	sort.Strings(libraries)
	x.symbols.Put(symbol, libraries)
}

// Lookup returns the sorted libraries exporting symbol.
func (x *SymbolIndex) Lookup(symbol string) []string {
	v := x.symbols.Get(symbol)
	if v == nil {
		return nil
	}
	return append([]string(nil), v.([]string)...)
}

// Symbols returns every indexed symbol name, sorted.
func (x *SymbolIndex) Symbols() []string {
	var names []string
	x.symbols.Walk(func(key string, value interface{}) error {
		names = append(names, key)
		return nil
	})
	sort.Strings(names)
	return names
}
