package starlarkeval

import (
	"errors"
	"fmt"
	"strings"

	"go.starlark.net/resolve"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/reference"
)

// UNDEFINED is the message prefix the resolver uses for names it cannot
// find.
const UNDEFINED = "undefined: "

func diagnosticAt(severity compile.Severity, pos syntax.Position, msg string) *compile.Diagnostic {
	d := &compile.Diagnostic{
		Severity: severity,
		Message:  msg,
	}
	if pos.IsValid() {
		d.Filename = pos.Filename()
		d.Line = int(pos.Line)
		d.Column = int(pos.Col)
	}
	return d
}

// errorDiagnostics translates parse and resolve errors.  Undefined names
// exported by a referenced library get an info hint naming the load that
// would bring them into scope.
func errorDiagnostics(err error, symbols *reference.SymbolIndex) []*compile.Diagnostic {
	var syntaxErr syntax.Error
	if errors.As(err, &syntaxErr) {
		return []*compile.Diagnostic{diagnosticAt(compile.SeverityError, syntaxErr.Pos, syntaxErr.Msg)}
	}

	var list resolve.ErrorList
	if errors.As(err, &list) {
		var diagnostics []*compile.Diagnostic
		for _, e := range list {
			diagnostics = append(diagnostics, diagnosticAt(compile.SeverityError, e.Pos, e.Msg))
			diagnostics = append(diagnostics, undefinedHints(e, symbols)...)
		}
		return diagnostics
	}

	return []*compile.Diagnostic{{Severity: compile.SeverityError, Message: err.Error()}}
}

func undefinedHints(e resolve.Error, symbols *reference.SymbolIndex) []*compile.Diagnostic {
	if symbols == nil || !strings.HasPrefix(e.Msg, UNDEFINED) {
		return nil
	}
	name := strings.TrimPrefix(e.Msg, UNDEFINED)
	if i := strings.IndexByte(name, ' '); i > 0 {
		name = name[:i]
	}
	var hints []*compile.Diagnostic
	for _, lib := range symbols.Lookup(name) {
		hints = append(hints, diagnosticAt(compile.SeverityInfo, e.Pos,
			fmt.Sprintf("%s is exported by library %q: load(%q, %q)", name, lib, lib, name)))
	}
	return hints
}

// runtimeError prefixes an evaluation error with the innermost source
// position of the call stack.  Builtin frames have no line.
func runtimeError(err error) error {
	var evalErr *starlark.EvalError
	if !errors.As(err, &evalErr) {
		return err
	}
	for i := 0; i < len(evalErr.CallStack); i++ {
		frame := evalErr.CallStack.At(i)
		if frame.Pos.Line > 0 {
			return fmt.Errorf("%s: %s", frame.Pos, evalErr.Msg)
		}
	}
	return errors.New(evalErr.Msg)
}
