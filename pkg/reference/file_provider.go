package reference

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultExt is the filename extension of library sources on disk and over
// HTTP.
const DefaultExt = ".star"

// FileProvider reads libraries from a directory.  Library "a/b" is read from
// <Dir>/a/b<Ext>.
type FileProvider struct {
	Dir string
	Ext string
}

// NewFileProvider constructs a FileProvider for dir with the default
// extension.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{Dir: dir, Ext: DefaultExt}
}

// Fetch implements Provider.
func (p *FileProvider) Fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filename := filepath.Join(p.Dir, filepath.FromSlash(name)+p.Ext)
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening library %q: %w", name, err)
	}
	return f, nil
}

// Glob returns the sorted names of the libraries under Dir matching the
// doublestar pattern, for example "**/*.star".
func (p *FileProvider) Glob(pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(p.Dir), pattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pattern, err)
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		if p.Ext != "" && !strings.HasSuffix(match, p.Ext) {
			continue
		}
		names = append(names, strings.TrimSuffix(match, p.Ext))
	}
	sort.Strings(names)
	return names, nil
}
