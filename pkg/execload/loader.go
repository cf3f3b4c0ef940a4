// Package execload loads units compiled to native executables.  The
// executable is run once per invocation with the flag --entry=<entry
// point>.  It receives the state slots as a JSON array on stdin, writes
// program output to stdout and reports its result as a JSON object
// {"value": ..., "writes": {"<slot>": ...}, "error": "..."} on file
// descriptor 3.
package execload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/amenzhinsky/go-memexec"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/loader"
	"github.com/stackb/repl-session/pkg/procutil"
	"github.com/stackb/repl-session/pkg/state"
)

// CommandFunc prepares a command running the executable data with args.
// The returned cleanup func is called once the command has exited.
type CommandFunc func(data []byte, args ...string) (cmd *exec.Cmd, cleanup func() error, err error)

// MemExec runs data from memory with go-memexec.
func MemExec(data []byte, args ...string) (*exec.Cmd, func() error, error) {
	exe, err := memexec.New(data)
	if err != nil {
		return nil, nil, err
	}
	return exe.Command(args...), exe.Close, nil
}

// Loader implements loader.Loader for native executables.
type Loader struct {
	command CommandFunc
}

// NewLoader returns a loader running artifacts with command, or MemExec
// when command is nil.
func NewLoader(command CommandFunc) *Loader {
	if command == nil {
		command = MemExec
	}
	return &Loader{command: command}
}

// Load implements loader.Loader.
func (l *Loader) Load(ctx context.Context, data []byte) (loader.Executable, error) {
	if len(data) == 0 {
		return nil, errors.New("empty executable")
	}
	return &executable{command: l.command, data: data}, nil
}

type executable struct {
	command CommandFunc
	data    []byte
}

// EntryPoint implements loader.Executable.  A native executable cannot be
// inspected, so resolution succeeds and a missing entry point is reported
// by the process itself.
func (e *executable) EntryPoint(ep compile.EntryPoint) (loader.Invocable, error) {
	return func(ctx context.Context, store *state.Store) (any, error) {
		return e.invoke(ctx, ep, store)
	}, nil
}

// result is the document read from file descriptor 3.
type result struct {
	Value  json.RawMessage         `json:"value"`
	Writes map[int]json.RawMessage `json:"writes"`
	Error  string                  `json:"error"`
}

func (e *executable) invoke(ctx context.Context, ep compile.EntryPoint, store *state.Store) (any, error) {
	input, err := encodeSlots(store.Snapshot())
	if err != nil {
		return nil, err
	}

	cmd, cleanup, err := e.command(e.data, "--entry="+ep.String())
	if err != nil {
		return nil, fmt.Errorf("preparing %s: %w", ep, err)
	}
	defer cleanup()

	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.ExtraFiles = []*os.File{w}

	if err := cmd.Start(); err != nil {
		w.Close()
		return nil, fmt.Errorf("starting %s: %w", ep, err)
	}
	w.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cmd.Process.Kill()
		case <-done:
		}
	}()

	report, readErr := io.ReadAll(r)
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if code := procutil.CmdExitCode(cmd, waitErr); code != 0 {
		return nil, fmt.Errorf("%s exited with code %d", ep, code)
	}
	if readErr != nil {
		return nil, fmt.Errorf("reading result of %s: %w", ep, readErr)
	}
	if len(bytes.TrimSpace(report)) == 0 {
		return nil, nil
	}

	var res result
	if err := json.Unmarshal(report, &res); err != nil {
		return nil, fmt.Errorf("decoding result of %s: %w", ep, err)
	}
	for slot, raw := range res.Writes {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding write of slot %d: %w", slot, err)
		}
		if err := store.Set(slot, v); err != nil {
			return nil, err
		}
	}
	if res.Error != "" {
		return nil, errors.New(res.Error)
	}
	return decodeValue(res.Value)
}

// encodeSlots renders the store as a JSON array.  Slots holding values
// JSON cannot represent are sent as null.
func encodeSlots(slots []any) ([]byte, error) {
	raw := make([]json.RawMessage, len(slots))
	for i, v := range slots {
		data, err := json.Marshal(v)
		if err != nil {
			data = []byte("null")
		}
		raw[i] = data
	}
	return json.Marshal(raw)
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
