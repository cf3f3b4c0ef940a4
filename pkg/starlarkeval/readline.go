package starlarkeval

import (
	"io"
	"strings"
)

// ReadSubmission reads lines until they form a complete top-level
// statement and returns their text.  A compound statement such as def or
// if continues until it is terminated by a blank line.  Text that fails to
// parse is returned as is, so its errors are reported when it is run.  At
// end of input with nothing read, ReadSubmission returns io.EOF.
func ReadSubmission(readline func() ([]byte, error)) (string, error) {
	var b strings.Builder
	var readErr error
	eof := false

	// Only whether the input is complete matters here; a syntax error is
	// reported by the compiler once the text is run.
	_, _ = submissionOptions.ParseCompoundStmt("<stdin>", func() ([]byte, error) {
		line, err := readline()
		switch {
		case err == io.EOF:
			eof = true
		case err != nil:
			readErr = err
		}
		b.Write(line)
		return line, err
	})

	if readErr != nil {
		return "", readErr
	}
	src := b.String()
	if eof && strings.TrimSpace(src) == "" {
		return "", io.EOF
	}
	return strings.TrimRight(src, "\n"), nil
}
