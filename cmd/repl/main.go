// repl is an interactive front end for an evaluation session.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	"github.com/stackb/repl-session/pkg/compile"
	"github.com/stackb/repl-session/pkg/logger"
	"github.com/stackb/repl-session/pkg/procutil"
	"github.com/stackb/repl-session/pkg/progress"
	"github.com/stackb/repl-session/pkg/session"
	"github.com/stackb/repl-session/pkg/starlarkeval"
)

const (
	promptMain  = ">>> "
	promptCont  = "... "
	historyFile = ".repl_history"
)

const REPL_NO_COLOR = procutil.EnvVar("REPL_NO_COLOR")

var (
	errorColor   = color.New(color.FgRed)
	warningColor = color.New(color.FgYellow)
	infoColor    = color.New(color.FgCyan)
)

func main() {
	log.SetPrefix("repl: ")
	log.SetFlags(0) // don't print timestamps

	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	cfg := newConfig()
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	cfg.registerFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if procutil.LookupBoolEnv(REPL_NO_COLOR, false) {
		color.NoColor = true
	}

	zlog, closeLog, err := logger.Setup(cfg.logLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.checkFlags(fs, zlog); err != nil {
		return err
	}
	defer cfg.close(context.Background())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	s := session.New(
		session.WithLogger(zlog),
		session.WithProvider(cfg.provider()),
		session.WithProgress(progress.NewProgressOutput(os.Stderr)),
		session.WithCompiler(compile.NewMemoCompiler(cfg.compiler())),
		session.WithLoaderFactory(cfg.loaderFactory(ctx)),
	)
	libraries, err := cfg.libraryNames()
	if err != nil {
		return err
	}
	if err := s.Initialize(ctx, libraries, cfg.namespaceNames()); err != nil {
		return err
	}

	if files := fs.Args(); len(files) > 0 {
		return runFiles(ctx, s, files)
	}
	return interact(ctx, s)
}

// runFiles evaluates each file as one submission and stops at the first
// that fails.
func runFiles(ctx context.Context, s *session.Session, files []string) error {
	for _, filename := range files {
		data, err := os.ReadFile(filename)
		if err != nil {
			return err
		}
		if r := s.Run(ctx, string(data)); !report(os.Stdout, os.Stderr, r) {
			return fmt.Errorf("%s failed", filename)
		}
	}
	return nil
}

func interact(ctx context.Context, s *session.Session) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)
	ln.SetMultiLineMode(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	for {
		src, err := readSubmission(ln)
		if err == io.EOF {
			fmt.Println()
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}
		if strings.TrimSpace(src) == "" {
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(src, "\n", " "))

		if strings.TrimSpace(src) == ":quit" {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		report(os.Stdout, os.Stderr, s.Run(ctx, src))
	}
}

func readSubmission(ln *liner.State) (string, error) {
	prompt := promptMain
	return starlarkeval.ReadSubmission(func() ([]byte, error) {
		line, err := ln.Prompt(prompt)
		prompt = promptCont
		if err != nil {
			return nil, err
		}
		return []byte(line + "\n"), nil
	})
}

// report prints a result and returns whether it had no errors.
func report(stdout, stderr io.Writer, r *session.Result) bool {
	for _, d := range r.Diagnostics {
		switch d.Severity {
		case compile.SeverityWarning:
			warningColor.Fprintln(stderr, d.String())
		case compile.SeverityInfo:
			infoColor.Fprintln(stderr, d.String())
		}
	}
	for _, line := range r.Error {
		errorColor.Fprintln(stderr, line)
	}
	for _, line := range r.Output {
		fmt.Fprintln(stdout, line)
	}
	return r.OK()
}
