package compile

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"

	"github.com/zeebo/blake3"

	"github.com/stackb/repl-session/pkg/reference"
)

// ErrEmit is wrapped by emission failures.  An emission failure carries no
// diagnostics.
var ErrEmit = errors.New("emit failed")

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a message reported by a Compiler about a submission.
type Diagnostic struct {
	Severity Severity
	Filename string
	// Line and Column are 1-based; zero means unknown.
	Line    int
	Column  int
	Message string
}

// String renders the diagnostic as "file:line:col: severity: message",
// omitting the unknown parts of the position.
func (d *Diagnostic) String() string {
	pos := d.Filename
	if d.Line > 0 {
		pos = fmt.Sprintf("%s:%d", pos, d.Line)
		if d.Column > 0 {
			pos = fmt.Sprintf("%s:%d", pos, d.Column)
		}
	}
	if pos == "" {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", pos, d.Severity, d.Message)
}

// HasErrors reports whether any diagnostic has error severity.
func HasErrors(diagnostics []*Diagnostic) bool {
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns the string form of every error-severity diagnostic, in
// order.
func Errors(diagnostics []*Diagnostic) []string {
	var errs []string
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			errs = append(errs, d.String())
		}
	}
	return errs
}

// EntryPoint locates the generated callable of a unit inside its loaded
// artifact.
type EntryPoint struct {
	Namespace string
	Type      string
	Method    string
}

func (e EntryPoint) String() string {
	return fmt.Sprintf("%s:%s.%s", e.Namespace, e.Type, e.Method)
}

// Unit is one successfully type-checked submission.  Units are never
// mutated after the compiler returns them; each successful compile
// produces a new unit that links to its predecessor.
type Unit struct {
	// ID identifies the unit by its parent and source.
	ID string
	// Parent is the unit this one was chained from, nil for the first.
	Parent *Unit
	// Source is the submitted fragment.
	Source string
	// Ordinal is the 0-based position of the unit in its chain.  It is also
	// the state slot written by the unit's top-level declarations.
	Ordinal int
	// EntryPoint locates the unit's generated callable.
	EntryPoint EntryPoint
	// Declared lists the top-level names bound by this unit, sorted.
	Declared []string
	// Artifact is private to the compiler that produced the unit.
	Artifact any
}

// NewUnitID computes the identity of a unit compiled from source on top of
// parent.
func NewUnitID(parent *Unit, source string) string {
	h := blake3.New()
	if parent != nil {
		h.Write([]byte(parent.ID))
	}
	h.Write([]byte{0})
	h.Write([]byte(source))
	return hex.EncodeToString(h.Sum(nil))
}

// NextOrdinal returns the ordinal of a unit chained from parent.
func NextOrdinal(parent *Unit) int {
	if parent == nil {
		return 0
	}
	return parent.Ordinal + 1
}

// Chain returns the units from the first submission up to and including u.
func (u *Unit) Chain() []*Unit {
	var chain []*Unit
	for cur := u; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Visible returns the sorted names declared by u and its ancestors.
func (u *Unit) Visible() []string {
	seen := make(map[string]bool)
	for cur := u; cur != nil; cur = cur.Parent {
		for _, name := range cur.Declared {
			seen[name] = true
		}
	}
	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the newest unit in the chain ending at u that declares
// name, or nil.
func (u *Unit) Lookup(name string) *Unit {
	for cur := u; cur != nil; cur = cur.Parent {
		i := sort.SearchStrings(cur.Declared, name)
		if i < len(cur.Declared) && cur.Declared[i] == name {
			return cur
		}
	}
	return nil
}

// Request is the input of a compilation.
type Request struct {
	// Source is the fragment to compile.
	Source string
	// References is the symbol universe of the session.
	References *reference.Set
	// Parent is the unit to chain from, nil for the first submission.
	Parent *Unit
}

// Response is the outcome of a compilation.  Unit is nil when any
// diagnostic has error severity.
type Response struct {
	Diagnostics []*Diagnostic
	Unit        *Unit
}

// Compiler compiles submissions and emits loadable artifacts.
type Compiler interface {
	// Compile type-checks a fragment.  The error return is reserved for
	// failures of the compiler itself; problems with the source are
	// reported as diagnostics.
	Compile(ctx context.Context, req *Request) (*Response, error)
	// Emit produces the loadable artifact of a unit returned by Compile.
	Emit(ctx context.Context, unit *Unit) ([]byte, error)
}
