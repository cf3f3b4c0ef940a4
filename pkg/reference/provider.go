package reference

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
)

// CoreLibrary is the canonical core runtime library that is always part of
// the default library list.
var CoreLibrary = "prelude"

// DefaultNamespaces are the implicit namespaces used when a session is
// initialized without an explicit list.
var DefaultNamespaces = []string{
	"json",
	"math",
	"time",
	"struct",
	"prelude",
}

// Provider retrieves library sources by name.
type Provider interface {
	// Fetch returns the content of the named library.  The caller closes the
	// returned reader.
	Fetch(ctx context.Context, name string) (io.ReadCloser, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, name string) (io.ReadCloser, error)

// Fetch implements Provider.
func (f ProviderFunc) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	return f(ctx, name)
}

// host is the registry of libraries loaded into this process.
var host = struct {
	sync.RWMutex
	libraries map[string][]byte
}{
	libraries: make(map[string][]byte),
}

// Register makes a library part of the host process.  Registered libraries
// are served by Host and listed by Loaded.  It is typically called from init
// functions of packages that embed library sources.
func Register(name string, data []byte) {
	host.Lock()
	defer host.Unlock()
	host.libraries[name] = data
}

// Loaded returns the sorted names of the libraries registered in the host
// process.
func Loaded() []string {
	host.RLock()
	defer host.RUnlock()
	names := make([]string, 0, len(host.libraries))
	for name := range host.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultLibraries returns every library loaded into the host process plus
// the core library.
func DefaultLibraries() []string {
	names := Loaded()
	for _, name := range names {
		if name == CoreLibrary {
			return names
		}
	}
	return append(names, CoreLibrary)
}

// Host is a Provider serving the libraries registered with Register.
var Host Provider = ProviderFunc(func(ctx context.Context, name string) (io.ReadCloser, error) {
	host.RLock()
	data, ok := host.libraries[name]
	host.RUnlock()
	if !ok {
		return nil, fmt.Errorf("library %q is not loaded in the host process: %w", name, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
})

// MemoryProvider serves libraries from a map.
type MemoryProvider map[string]string

// Fetch implements Provider.
func (p MemoryProvider) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	data, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("library %q not found: %w", name, os.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader([]byte(data))), nil
}

// Chain returns a Provider that asks each provider in turn.  A provider
// that reports os.ErrNotExist passes the request on to the next; any other
// error is returned.
func Chain(providers ...Provider) Provider {
	return ProviderFunc(func(ctx context.Context, name string) (io.ReadCloser, error) {
		for _, p := range providers {
			in, err := p.Fetch(ctx, name)
			if err == nil {
				return in, nil
			}
			if !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
		return nil, fmt.Errorf("library %q not found by any provider: %w", name, os.ErrNotExist)
	})
}
