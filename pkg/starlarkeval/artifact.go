package starlarkeval

import (
	"bytes"
	"errors"
	"fmt"

	"go.starlark.net/starlark"
	"google.golang.org/protobuf/encoding/protowire"
)

// Artifact field numbers.
const (
	fieldSlot      protowire.Number = 1
	fieldType      protowire.Number = 2
	fieldHasResult protowire.Number = 3
	fieldProgram   protowire.Number = 4
)

// artifact is the emitted form of a starlark unit: the compiled program
// framed with the metadata the loader needs to run it.
type artifact struct {
	slot      int
	typeName  string
	hasResult bool
	program   *starlark.Program
}

func encodeArtifact(a *artifact) ([]byte, error) {
	var program bytes.Buffer
	if err := a.program.Write(&program); err != nil {
		return nil, fmt.Errorf("writing program: %w", err)
	}

	var b []byte
	b = protowire.AppendTag(b, fieldSlot, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(a.slot))
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, a.typeName)
	b = protowire.AppendTag(b, fieldHasResult, protowire.VarintType)
	b = protowire.AppendVarint(b, protowire.EncodeBool(a.hasResult))
	b = protowire.AppendTag(b, fieldProgram, protowire.BytesType)
	b = protowire.AppendBytes(b, program.Bytes())
	return b, nil
}

func decodeArtifact(b []byte) (*artifact, error) {
	a := &artifact{}
	var program []byte
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, fmt.Errorf("artifact tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		switch {
		case num == fieldSlot && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("artifact slot: %w", protowire.ParseError(n))
			}
			a.slot = int(v)
			b = b[n:]
		case num == fieldType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return nil, fmt.Errorf("artifact type: %w", protowire.ParseError(n))
			}
			a.typeName = v
			b = b[n:]
		case num == fieldHasResult && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, fmt.Errorf("artifact result flag: %w", protowire.ParseError(n))
			}
			a.hasResult = protowire.DecodeBool(v)
			b = b[n:]
		case num == fieldProgram && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, fmt.Errorf("artifact program: %w", protowire.ParseError(n))
			}
			program = v
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, fmt.Errorf("artifact field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}

	if program == nil {
		return nil, errors.New("artifact has no program")
	}
	if a.typeName == "" {
		return nil, errors.New("artifact has no entry point type")
	}
	p, err := starlark.CompiledProgram(bytes.NewReader(program))
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	a.program = p
	return a, nil
}
