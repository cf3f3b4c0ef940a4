package loader

import (
	"bytes"
	"context"
	"fmt"
)

// Format names an artifact encoding recognized by Sniffer.
type Format string

const (
	FormatUnknown Format = ""
	FormatWasm    Format = "wasm"
	FormatELF     Format = "elf"
	FormatMachO   Format = "macho"
)

var (
	wasmMagic  = []byte("\x00asm")
	elfMagic   = []byte("\x7fELF")
	machoMagic = [][]byte{
		{0xfe, 0xed, 0xfa, 0xce},
		{0xfe, 0xed, 0xfa, 0xcf},
		{0xce, 0xfa, 0xed, 0xfe},
		{0xcf, 0xfa, 0xed, 0xfe},
		{0xca, 0xfe, 0xba, 0xbe},
	}
)

// Sniff identifies the artifact format by its leading bytes.
func Sniff(data []byte) Format {
	if bytes.HasPrefix(data, wasmMagic) {
		return FormatWasm
	}
	if bytes.HasPrefix(data, elfMagic) {
		return FormatELF
	}
	for _, magic := range machoMagic {
		if bytes.HasPrefix(data, magic) {
			return FormatMachO
		}
	}
	return FormatUnknown
}

// Sniffer dispatches to a Loader chosen by artifact format.  Artifacts of
// an unregistered format go to Fallback.
type Sniffer struct {
	Loaders  map[Format]Loader
	Fallback Loader
}

// NewSniffer constructs a Sniffer with the given fallback.
func NewSniffer(fallback Loader) *Sniffer {
	return &Sniffer{
		Loaders:  make(map[Format]Loader),
		Fallback: fallback,
	}
}

// Register sets the loader for a format.
func (s *Sniffer) Register(format Format, l Loader) *Sniffer {
	s.Loaders[format] = l
	return s
}

// Load implements Loader.
func (s *Sniffer) Load(ctx context.Context, data []byte) (Executable, error) {
	if l, ok := s.Loaders[Sniff(data)]; ok {
		return l.Load(ctx, data)
	}
	if s.Fallback == nil {
		return nil, &UnknownFormatError{Prefix: prefix(data)}
	}
	return s.Fallback.Load(ctx, data)
}

// UnknownFormatError is returned when no loader accepts an artifact.
type UnknownFormatError struct {
	Prefix []byte
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("no loader for artifact starting with [% x]", e.Prefix)
}

func prefix(data []byte) []byte {
	if len(data) > 4 {
		data = data[:4]
	}
	return append([]byte(nil), data...)
}
