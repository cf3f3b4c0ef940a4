package main

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/reference"
	"github.com/stackb/repl-session/pkg/session"
	"github.com/stackb/repl-session/pkg/testutil"
)

func TestReport(t *testing.T) {
	color.NoColor = true

	for name, tc := range map[string]struct {
		result     *session.Result
		wantOK     bool
		wantStdout string
		wantStderr string
	}{
		"output": {
			result:     &session.Result{Output: []string{"2", "hello"}},
			wantOK:     true,
			wantStdout: "2\nhello\n",
		},
		"errors and hints": {
			result: &session.Result{
				Error: []string{"Submission#0:1:1: error: undefined: sum"},
				Diagnostics: []*compile.Diagnostic{
					{Severity: compile.SeverityError, Filename: "Submission#0", Line: 1, Column: 1, Message: "undefined: sum"},
					{Severity: compile.SeverityInfo, Filename: "Submission#0", Line: 1, Column: 1, Message: "sum is exported by library \"prelude\""},
				},
			},
			wantStderr: "Submission#0:1:1: info: sum is exported by library \"prelude\"\nSubmission#0:1:1: error: undefined: sum\n",
		},
	} {
		t.Run(name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if got := report(&stdout, &stderr, tc.result); got != tc.wantOK {
				t.Errorf("ok: want %v, got %v", tc.wantOK, got)
			}
			if diff := cmp.Diff(tc.wantStdout, stdout.String()); diff != "" {
				t.Errorf("stdout (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantStderr, stderr.String()); diff != "" {
				t.Errorf("stderr (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewProvider(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testutil.FileSpec{
		{Path: "strings.star", Content: "def upper(s):\n    return s.upper()\n"},
	})
	defer cleanup()

	provider := newProvider(dir, "")
	for _, name := range []string{"strings", reference.CoreLibrary} {
		rc, err := provider.Fetch(context.Background(), name)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if len(data) == 0 {
			t.Errorf("%s: empty library", name)
		}
	}
}

func TestLibraryNames(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testutil.FileSpec{
		{Path: "strings.star", Content: "def upper(s):\n    return s.upper()\n"},
		{Path: "lib/lists.star", Content: "def first(xs):\n    return xs[0]\n"},
		{Path: "README.md", Content: "docs"},
	})
	defer cleanup()

	for name, tc := range map[string]struct {
		cfg  config
		want []string
	}{
		"defaults": {},
		"explicit": {
			cfg:  config{libraryDir: dir, libraries: []string{"strings"}},
			want: []string{"strings"},
		},
		"directory": {
			cfg:  config{libraryDir: dir},
			want: append(reference.DefaultLibraries(), "lib/lists", "strings"),
		},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := tc.cfg.libraryNames()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}
