package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLevel(t *testing.T) {
	for name, tc := range map[string]struct {
		flag    string
		env     string
		want    zerolog.Level
		wantErr string
	}{
		"default": {
			want: DefaultLevel,
		},
		"flag": {
			flag: "debug",
			want: zerolog.DebugLevel,
		},
		"env": {
			env:  "info",
			want: zerolog.InfoLevel,
		},
		"flag wins": {
			flag: "error",
			env:  "info",
			want: zerolog.ErrorLevel,
		},
		"invalid": {
			flag:    "loud",
			wantErr: `invalid log level "loud"`,
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(string(REPL_LOG_LEVEL), tc.env)
			got, err := Level(tc.flag)
			if tc.wantErr != "" {
				if err == nil || !strings.HasPrefix(err.Error(), tc.wantErr) {
					t.Fatalf("error: want prefix %q, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("level: want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, zerolog.InfoLevel)
	logger.Debug().Msg("hidden")
	logger.Info().Str("library", "strings").Msg("fetched")

	got := buf.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message should be filtered: %q", got)
	}
	if !strings.Contains(got, "fetched") || !strings.Contains(got, "library=strings") {
		t.Errorf("unexpected output: %q", got)
	}
}
