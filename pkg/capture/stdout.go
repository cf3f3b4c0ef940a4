package capture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
)

// mu serializes captures: os.Stdout is process-wide, so only one redirection
// may be active at a time.
var mu sync.Mutex

// Stdout runs fn with os.Stdout redirected to an in-memory sink and returns
// the text written during the call.  The previous os.Stdout is restored
// exactly once when fn returns, fails or panics.
func Stdout(fn func() error) (output string, err error) {
	mu.Lock()
	defer mu.Unlock()

	r, w, err := os.Pipe()
	if err != nil {
		return "", fmt.Errorf("creating stdout pipe: %w", err)
	}

	// drain concurrently so that writers never block on a full pipe
	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		defer close(done)
		io.Copy(&buf, r)
		r.Close()
	}()

	previous := os.Stdout
	os.Stdout = w
	defer func() {
		os.Stdout = previous
		w.Close()
		<-done
		output = buf.String()
	}()

	return "", fn()
}
