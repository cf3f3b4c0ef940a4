package progress

import (
	"bytes"
	"testing"

	"github.com/pcj/mobyprogress"
)

func TestProgressOutput(t *testing.T) {
	for name, tc := range map[string]struct {
		updates []mobyprogress.Progress
		want    string
	}{
		"message": {
			updates: []mobyprogress.Progress{{ID: "x", Message: "hello"}},
			want:    "hello\r\n",
		},
		"message with verbs": {
			updates: []mobyprogress.Progress{{ID: "x", Message: "100% of %s fetched"}},
			want:    "100% of %s fetched\r\n",
		},
		"counts": {
			updates: []mobyprogress.Progress{
				{ID: "references", Action: "fetching libraries", Current: 1, Total: 2, Units: "libraries"},
				{ID: "references", Action: "fetching libraries", Current: 2, Total: 2, Units: "libraries", LastUpdate: true},
			},
			want: "fetching libraries 1/2 libraries\rfetching libraries 2/2 libraries\r\r\n",
		},
		"no total": {
			updates: []mobyprogress.Progress{{ID: "x", Action: "waiting"}},
			want:    "waiting \r\n",
		},
	} {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			out := NewProgressOutput(&buf)
			for _, u := range tc.updates {
				if err := out.WriteProgress(u); err != nil {
					t.Fatal(err)
				}
			}
			if got := buf.String(); got != tc.want {
				t.Errorf("want %q, got %q", tc.want, got)
			}
		})
	}
}

func TestHelpers(t *testing.T) {
	var buf bytes.Buffer
	out := NewProgressOutput(&buf)
	Messagef(out, "x", "compiled %d units", 3)
	Updatef(out, "x", "step %s", "one")
	if want := "compiled 3 units\r\nstep one \r\n"; buf.String() != want {
		t.Errorf("want %q, got %q", want, buf.String())
	}
	if err := Discard.WriteProgress(mobyprogress.Progress{}); err != nil {
		t.Error(err)
	}
}
