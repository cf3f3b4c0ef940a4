package starlarkeval

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func lines(input ...string) func() ([]byte, error) {
	return func() ([]byte, error) {
		if len(input) == 0 {
			return nil, io.EOF
		}
		line := input[0]
		input = input[1:]
		return []byte(line + "\n"), nil
	}
}

func TestReadSubmission(t *testing.T) {
	for name, tc := range map[string]struct {
		input []string
		want  []string
	}{
		"simple statements": {
			input: []string{"x = 1", "x + 1"},
			want:  []string{"x = 1", "x + 1"},
		},
		"compound statement": {
			input: []string{"def f(n):", "    return n * 2", "", "f(2)"},
			want:  []string{"def f(n):\n    return n * 2", "f(2)"},
		},
		"open bracket": {
			input: []string{"xs = [", "  1,", "]"},
			want:  []string{"xs = [\n  1,\n]"},
		},
		"syntax error": {
			input: []string{"x = = 1", "y = 2"},
			want:  []string{"x = = 1", "y = 2"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			readline := lines(tc.input...)
			var got []string
			for {
				src, err := ReadSubmission(readline)
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatal(err)
				}
				got = append(got, src)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadSubmissionError(t *testing.T) {
	want := errors.New("terminal closed")
	_, err := ReadSubmission(func() ([]byte, error) { return nil, want })
	if err != want {
		t.Fatalf("want %v, got %v", want, err)
	}
}
