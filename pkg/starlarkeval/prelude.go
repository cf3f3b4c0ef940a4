package starlarkeval

import (
	_ "embed"

	"github.com/stackb/repl-session/pkg/reference"
)

//go:embed prelude.star
var prelude []byte

func init() {
	reference.Register(reference.CoreLibrary, prelude)
}
