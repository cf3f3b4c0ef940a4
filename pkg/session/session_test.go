package session_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/mock"
	"go.starlark.net/starlark"

	"github.com/stackb/repl-session/pkg/compile"
	compilemocks "github.com/stackb/repl-session/pkg/compile/mocks"
	"github.com/stackb/repl-session/pkg/loader"
	loadermocks "github.com/stackb/repl-session/pkg/loader/mocks"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/session"
	"github.com/stackb/repl-session/pkg/state"
	"github.com/stackb/repl-session/pkg/testutil"
)

// outputs is the comparable part of a Result.
type outputs struct {
	Output []string
	Error  []string
}

func run(t *testing.T, s *session.Session, fragment string) outputs {
	t.Helper()
	r := s.Run(context.Background(), fragment)
	return outputs{Output: r.Output, Error: r.Error}
}

func newStarlarkSession(t *testing.T, options ...session.Option) *session.Session {
	t.Helper()
	s := session.New(append([]session.Option{session.WithLogger(testutil.NewTestLogger(t))}, options...)...)
	if err := s.Initialize(context.Background(), nil, nil); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestExampleScenario(t *testing.T) {
	s := newStarlarkSession(t)

	if diff := cmp.Diff(outputs{}, run(t, s, "x = 1")); diff != "" {
		t.Errorf("x = 1 (-want +got):\n%s", diff)
	}
	globals, ok := s.Store().Get(0).(starlark.StringDict)
	if !ok || globals["x"] == nil || globals["x"].String() != "1" {
		t.Errorf("slot 0: want x = 1, got %v", s.Store().Get(0))
	}

	if diff := cmp.Diff(outputs{Output: []string{"2"}}, run(t, s, "x + 1")); diff != "" {
		t.Errorf("x + 1 (-want +got):\n%s", diff)
	}

	before, index := s.Current(), s.Index()
	got := run(t, s, "x +")
	if len(got.Output) != 0 || len(got.Error) == 0 {
		t.Errorf("x +: want errors only, got %+v", got)
	}
	if s.Current() != before || s.Index() != index {
		t.Errorf("malformed submission changed the session")
	}

	if diff := cmp.Diff(outputs{Output: []string{"3"}}, run(t, s, "x + 2")); diff != "" {
		t.Errorf("x + 2 (-want +got):\n%s", diff)
	}
}

func TestChaining(t *testing.T) {
	const n = 12
	s := newStarlarkSession(t)
	if got := run(t, s, "v0 = 0"); len(got.Error) != 0 {
		t.Fatal(got.Error)
	}
	for k := 1; k < n; k++ {
		got := run(t, s, fmt.Sprintf("v%d = v%d + %d", k, k-1, k))
		if len(got.Error) != 0 {
			t.Fatalf("submission %d: %v", k, got.Error)
		}
	}
	want := 0
	for k := 1; k < n; k++ {
		want += k
	}
	if diff := cmp.Diff(outputs{Output: []string{fmt.Sprint(want)}}, run(t, s, fmt.Sprintf("v%d", n-1))); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestFailedSubmissionIsolation(t *testing.T) {
	s := newStarlarkSession(t)
	run(t, s, "a = 1")
	run(t, s, "b = 2")

	got := run(t, s, "c = undefined_name")
	if diff := cmp.Diff([]string{"Submission#2:1:5: error: undefined: undefined_name"}, got.Error); diff != "" {
		t.Errorf("errors (-want +got):\n%s", diff)
	}
	if s.Index() != 2 {
		t.Errorf("index: want 2, got %d", s.Index())
	}
	if diff := cmp.Diff([]string{"a", "b"}, s.Current().Visible()); diff != "" {
		t.Errorf("visible (-want +got):\n%s", diff)
	}

	// the corrected resubmission takes the same position
	if got := run(t, s, "c = a + b"); len(got.Error) != 0 {
		t.Fatal(got.Error)
	}
	if s.Current().Ordinal != 2 {
		t.Errorf("ordinal: want 2, got %d", s.Current().Ordinal)
	}
	if diff := cmp.Diff(outputs{Output: []string{"3"}}, run(t, s, "c")); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestEveryErrorDiagnosticIsReported(t *testing.T) {
	s := newStarlarkSession(t)
	got := s.Run(context.Background(), "a = nope1\nb = nope2")
	if len(got.Error) != 2 {
		t.Fatalf("want two errors, got %v", got.Error)
	}
	if !strings.Contains(got.Error[0], "nope1") || !strings.Contains(got.Error[1], "nope2") {
		t.Errorf("errors out of order: %v", got.Error)
	}
}

func TestRuntimeFaultIsolation(t *testing.T) {
	s := newStarlarkSession(t)

	got := run(t, s, "def f():\n    return 1 // 0\nv = f()")
	if len(got.Error) != 1 || !strings.Contains(got.Error[0], "division by zero") {
		t.Fatalf("want division by zero, got %+v", got)
	}
	if s.Index() != 1 {
		t.Errorf("runtime fault must still commit, index = %d", s.Index())
	}

	// f and v were declared by the faulting submission
	if got := run(t, s, "def g():\n    return v\nh = f"); len(got.Error) != 0 {
		t.Errorf("declarations of the faulting submission: %v", got.Error)
	}
	if got := run(t, s, "s = 1\ns"); len(got.Error) != 0 {
		t.Errorf("session unusable after fault: %v", got.Error)
	}
}

func TestTopLevelNamesAreShared(t *testing.T) {
	for name, tc := range map[string]struct {
		setup []string
		want  outputs
	}{
		"rebinding after definition": {
			setup: []string{"x = 1", "def f():\n    return x", "x = 5"},
			want:  outputs{Output: []string{"5"}},
		},
		"first binding after a fault": {
			setup: []string{"fail('boom')\ny = 1", "def f():\n    return y", "y = 3"},
			want:  outputs{Output: []string{"3"}},
		},
	} {
		t.Run(name, func(t *testing.T) {
			s := newStarlarkSession(t)
			for _, fragment := range tc.setup {
				s.Run(context.Background(), fragment)
			}
			if diff := cmp.Diff(tc.want, run(t, s, "f()")); diff != "" {
				t.Errorf("f() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutputOrdering(t *testing.T) {
	s := newStarlarkSession(t)
	for name, tc := range map[string]struct {
		fragment string
		want     outputs
	}{
		"value before stdout": {
			fragment: "print('side effect')\n40 + 2",
			want:     outputs{Output: []string{"42", "side effect\n"}},
		},
		"stdout only": {
			fragment: "print('only')",
			want:     outputs{Output: []string{"only\n"}},
		},
		"whitespace stdout is dropped": {
			fragment: "print('  ')\n1",
			want:     outputs{Output: []string{"1"}},
		},
		"nothing": {
			fragment: "z = 0",
		},
	} {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, run(t, s, tc.fragment)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestStateStoreGrowth(t *testing.T) {
	const n = 40
	s := newStarlarkSession(t)
	for k := 0; k < n; k++ {
		if got := run(t, s, fmt.Sprintf("s%d = [%d]", k, k)); len(got.Error) != 0 {
			t.Fatalf("submission %d: %v", k, got.Error)
		}
	}
	if s.Store().Len() < n {
		t.Fatalf("store has %d slots, want at least %d", s.Store().Len(), n)
	}
	for k := 0; k < n; k++ {
		globals, ok := s.Store().Get(k).(starlark.StringDict)
		if !ok {
			t.Fatalf("slot %d lost", k)
		}
		if got := globals[fmt.Sprintf("s%d", k)].String(); got != fmt.Sprintf("[%d]", k) {
			t.Errorf("slot %d: got %s", k, got)
		}
	}

	var terms []string
	for k := 0; k < n; k++ {
		terms = append(terms, fmt.Sprintf("s%d[0]", k))
	}
	want := n * (n - 1) / 2
	if diff := cmp.Diff(outputs{Output: []string{fmt.Sprint(want)}}, run(t, s, strings.Join(terms, " + "))); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestImplicitNamespaces(t *testing.T) {
	s := newStarlarkSession(t)
	for name, tc := range map[string]struct {
		fragment string
		want     outputs
	}{
		"json":    {fragment: "json.encode([1])", want: outputs{Output: []string{`"[1]"`}}},
		"prelude": {fragment: "prelude.flatten([[1], [2, 3]])", want: outputs{Output: []string{"[1, 2, 3]"}}},
		"struct":  {fragment: "struct(a = 1).a", want: outputs{Output: []string{"1"}}},
	} {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, run(t, s, tc.fragment)); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestUndefinedNameHint(t *testing.T) {
	s := newStarlarkSession(t)
	r := s.Run(context.Background(), "flatten([[1]])")
	if len(r.Error) != 1 {
		t.Fatalf("want one error, got %v", r.Error)
	}
	var hints []string
	for _, d := range r.Diagnostics {
		if d.Severity == compile.SeverityInfo {
			hints = append(hints, d.Message)
		}
	}
	want := []string{`flatten is exported by library "prelude": load("prelude", "flatten")`}
	if diff := cmp.Diff(want, hints); diff != "" {
		t.Errorf("hints (-want +got):\n%s", diff)
	}
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()

	t.Run("run before initialize", func(t *testing.T) {
		s := session.New()
		got := run(t, s, "1")
		if diff := cmp.Diff([]string{session.ErrNotInitialized.Error()}, got.Error); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("twice", func(t *testing.T) {
		s := session.New()
		if err := s.Initialize(ctx, nil, nil); err != nil {
			t.Fatal(err)
		}
		if err := s.Initialize(ctx, nil, nil); !errors.Is(err, session.ErrAlreadyInitialized) {
			t.Errorf("want ErrAlreadyInitialized, got %v", err)
		}
	})

	t.Run("missing library is fatal", func(t *testing.T) {
		provider := reference.MemoryProvider{"a": "A = 1"}
		s := session.New(session.WithProvider(provider))
		err := s.Initialize(ctx, []string{"a", "b"}, []string{})
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("want not found, got %v", err)
		}
		if s.References() != nil {
			t.Error("failed initialize installed a reference set")
		}
		got := run(t, s, "1")
		if diff := cmp.Diff([]string{session.ErrNotInitialized.Error()}, got.Error); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}

		// a failed initialize may be retried
		if err := s.Initialize(ctx, []string{"a"}, []string{"a"}); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(outputs{Output: []string{"1"}}, run(t, s, "a.A")); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
	})

	t.Run("defaults", func(t *testing.T) {
		s := session.New()
		if err := s.Initialize(ctx, nil, nil); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(reference.DefaultNamespaces, s.References().Namespaces()); diff != "" {
			t.Errorf("namespaces (-want +got):\n%s", diff)
		}
		if _, ok := s.References().Library(reference.CoreLibrary); !ok {
			t.Error("core library missing from defaults")
		}
	})
}

// mockBackend wires mock collaborators into an initialized session.
type mockBackend struct {
	compiler   *compilemocks.Compiler
	loader     *loadermocks.Loader
	executable *loadermocks.Executable
	session    *session.Session
}

func newMockBackend(t *testing.T) *mockBackend {
	b := &mockBackend{
		compiler:   compilemocks.NewCompiler(t),
		loader:     loadermocks.NewLoader(t),
		executable: loadermocks.NewExecutable(t),
	}
	b.session = session.New(
		session.WithLogger(testutil.NewTestLogger(t)),
		session.WithProvider(reference.MemoryProvider{}),
		session.WithCompiler(b.compiler),
		session.WithLoader(b.loader),
	)
	if err := b.session.Initialize(context.Background(), []string{}, []string{}); err != nil {
		t.Fatal(err)
	}
	return b
}

var firstUnit = &compile.Unit{
	ID:         "first",
	Ordinal:    0,
	EntryPoint: compile.EntryPoint{Namespace: "test", Type: "Submission#0", Method: "main"},
}

func (b *mockBackend) compiles(unit *compile.Unit) {
	b.compiler.On("Compile", mock.Anything, mock.Anything).Return(&compile.Response{Unit: unit}, nil).Once()
	b.compiler.On("Emit", mock.Anything, unit).Return([]byte("artifact"), nil).Once()
}

func (b *mockBackend) invokes(unit *compile.Unit, fn loader.Invocable) {
	b.loader.On("Load", mock.Anything, []byte("artifact")).Return(b.executable, nil).Once()
	b.executable.On("EntryPoint", unit.EntryPoint).Return(fn, nil).Once()
}

func TestMockedFailures(t *testing.T) {
	for name, tc := range map[string]struct {
		setup     func(b *mockBackend)
		want      outputs
		wantIndex int
	}{
		"compiler error": {
			setup: func(b *mockBackend) {
				b.compiler.On("Compile", mock.Anything, mock.Anything).Return(nil, errors.New("backend unavailable")).Once()
			},
			want: outputs{Error: []string{"compile: backend unavailable"}},
		},
		"emit failure": {
			setup: func(b *mockBackend) {
				b.compiler.On("Compile", mock.Anything, mock.Anything).Return(&compile.Response{Unit: firstUnit}, nil).Once()
				b.compiler.On("Emit", mock.Anything, firstUnit).Return(nil, errors.New("disk full")).Once()
			},
			want: outputs{Error: []string{"emit failed: disk full"}},
		},
		"wrong ordinal": {
			setup: func(b *mockBackend) {
				unit := &compile.Unit{ID: "x", Ordinal: 3}
				b.compiler.On("Compile", mock.Anything, mock.Anything).Return(&compile.Response{Unit: unit}, nil).Once()
			},
			want: outputs{Error: []string{"compile: compiler returned unit at position 3, want 0"}},
		},
		"load failure commits": {
			setup: func(b *mockBackend) {
				b.compiles(firstUnit)
				b.loader.On("Load", mock.Anything, []byte("artifact")).Return(nil, errors.New("bad magic")).Once()
			},
			want:      outputs{Error: []string{"loading Submission#0: bad magic"}},
			wantIndex: 1,
		},
		"missing entry point": {
			setup: func(b *mockBackend) {
				b.compiles(firstUnit)
				b.loader.On("Load", mock.Anything, []byte("artifact")).Return(b.executable, nil).Once()
				b.executable.On("EntryPoint", firstUnit.EntryPoint).Return(nil, errors.New("no such method")).Once()
			},
			want:      outputs{Error: []string{"no such method"}},
			wantIndex: 1,
		},
		"panic": {
			setup: func(b *mockBackend) {
				b.compiles(firstUnit)
				b.invokes(firstUnit, func(ctx context.Context, store *state.Store) (any, error) {
					fmt.Println("before panic")
					panic("boom")
				})
			},
			want:      outputs{Error: []string{"panic: boom"}},
			wantIndex: 1,
		},
		"runtime fault drops output": {
			setup: func(b *mockBackend) {
				b.compiles(firstUnit)
				b.invokes(firstUnit, func(ctx context.Context, store *state.Store) (any, error) {
					fmt.Println("partial")
					return nil, errors.New("exception")
				})
			},
			want:      outputs{Error: []string{"exception"}},
			wantIndex: 1,
		},
		"go value": {
			setup: func(b *mockBackend) {
				b.compiles(firstUnit)
				b.invokes(firstUnit, func(ctx context.Context, store *state.Store) (any, error) {
					if store.Len() < 1 {
						return nil, errors.New("store not grown")
					}
					return map[string]int{"b": 2, "a": 1}, nil
				})
			},
			want:      outputs{Output: []string{"map[a:1 b:2]"}},
			wantIndex: 1,
		},
	} {
		t.Run(name, func(t *testing.T) {
			b := newMockBackend(t)
			tc.setup(b)
			stdout := os.Stdout

			got := run(t, b.session, "fragment")

			if os.Stdout != stdout {
				t.Fatal("stdout was not restored")
			}
			if diff := cmp.Diff(tc.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
			if b.session.Index() != tc.wantIndex {
				t.Errorf("index: want %d, got %d", tc.wantIndex, b.session.Index())
			}
			if tc.wantIndex == 0 && b.session.Current() != nil {
				t.Error("failed submission replaced the current unit")
			}
		})
	}
}

func TestCancellation(t *testing.T) {
	t.Run("before compile", func(t *testing.T) {
		s := newStarlarkSession(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := s.Run(ctx, "x = 1")
		if diff := cmp.Diff([]string{"compile: context canceled"}, r.Error); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if s.Index() != 0 {
			t.Errorf("cancelled compile advanced the session")
		}
	})

	t.Run("during invocation", func(t *testing.T) {
		b := newMockBackend(t)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		b.compiles(firstUnit)
		b.invokes(firstUnit, func(ctx context.Context, store *state.Store) (any, error) {
			cancel()
			return starlark.MakeInt(1), nil
		})
		r := b.session.Run(ctx, "fragment")
		if diff := cmp.Diff(outputs{Error: []string{"context canceled"}}, outputs{Output: r.Output, Error: r.Error}); diff != "" {
			t.Errorf("(-want +got):\n%s", diff)
		}
		if b.session.Index() != 1 {
			t.Errorf("cancellation after commit must keep the unit")
		}
	})

	t.Run("long running starlark", func(t *testing.T) {
		s := newStarlarkSession(t)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan *session.Result)
		go func() {
			done <- s.Run(ctx, "n = 0\nwhile True:\n    n += 1")
		}()
		cancel()
		r := <-done
		if len(r.Error) != 1 || !strings.Contains(r.Error[0], "cancel") {
			t.Errorf("want cancellation fault, got %v", r.Error)
		}
	})
}

func TestBusy(t *testing.T) {
	b := newMockBackend(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	b.compiles(firstUnit)
	b.invokes(firstUnit, func(ctx context.Context, store *state.Store) (any, error) {
		close(entered)
		<-release
		return nil, nil
	})

	done := make(chan *session.Result)
	go func() {
		done <- b.session.Run(context.Background(), "slow")
	}()
	<-entered

	got := run(t, b.session, "fast")
	if diff := cmp.Diff([]string{session.ErrBusy.Error()}, got.Error); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	close(release)
	if r := <-done; len(r.Error) != 0 {
		t.Errorf("slow run: %v", r.Error)
	}
}
