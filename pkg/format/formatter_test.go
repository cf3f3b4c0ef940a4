package format

import (
	"errors"
	"testing"
	"time"
)

type point struct {
	X, Y int
}

func TestDefault(t *testing.T) {
	for name, tc := range map[string]struct {
		value any
		want  string
	}{
		"nil":      {value: nil, want: "null"},
		"string":   {value: "a\"b", want: `"a\"b"`},
		"int":      {value: 42, want: "42"},
		"float":    {value: 1.5, want: "1.5"},
		"bool":     {value: true, want: "true"},
		"error":    {value: errors.New("boom"), want: "boom"},
		"stringer": {value: 3 * time.Second, want: "3s"},
		"struct":   {value: point{X: 1, Y: 2}, want: "{X:1 Y:2}"},
		"map":      {value: map[string]int{"b": 2, "a": 1}, want: "map[a:1 b:2]"},
	} {
		t.Run(name, func(t *testing.T) {
			got := Default.Format(tc.value)
			if got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
		})
	}
}
