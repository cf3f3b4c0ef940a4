package starlarkeval

import (
	"sort"
	"strings"

	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// priorBuiltin is the predeclared function that seeds a rebound top-level
// name with the value an earlier submission gave it.
const priorBuiltin = "__prior__"

// resultName holds the value of a trailing expression.
const resultName = "_"

// toplevelMethod is the entry point method of every submission.
const toplevelMethod = "<toplevel>"

// submissionOptions are the dialect options for submissions.  Loads bind
// globally so that loaded symbols are visible to later submissions.
var submissionOptions = syntax.FileOptions{
	Set:               true,
	While:             true,
	TopLevelControl:   true,
	GlobalReassign:    true,
	LoadBindsGlobally: true,
	Recursion:         true,
}

// libraryOptions are the dialect options for library sources.
var libraryOptions = syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// builtinNamespaces are the namespaces implemented in Go.
var builtinNamespaces = starlark.StringDict{
	"json":   starlarkjson.Module,
	"math":   starlarkmath.Module,
	"time":   starlarktime.Module,
	"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
}

// IsBuiltinNamespace reports whether name is implemented in Go rather than
// by a library.
func IsBuiltinNamespace(name string) bool {
	return builtinNamespaces.Has(name)
}

// exported returns the public members of a library's globals.
func exported(globals starlark.StringDict) starlark.StringDict {
	members := make(starlark.StringDict, len(globals))
	for name, value := range globals {
		if isExported(name) {
			members[name] = value
		}
	}
	return members
}

func isExported(name string) bool {
	return !strings.HasPrefix(name, "_")
}

func sortedKeys(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
