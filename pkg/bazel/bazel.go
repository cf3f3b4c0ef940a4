package bazel

import (
	"os"

	"github.com/bazelbuild/rules_go/go/tools/bazel"
)

// the name of an environment variable at runtime
const TEST_TMPDIR = "TEST_TMPDIR"

// Runfile locates a data dependency when running under bazel.
var Runfile = bazel.Runfile

// NewTmpDir creates a new temporary directory, rooted in TEST_TMPDIR when
// running under a test runner that sets it.
func NewTmpDir(prefix string) (string, error) {
	if tmp, ok := os.LookupEnv(TEST_TMPDIR); ok {
		return os.MkdirTemp(tmp, prefix)
	}
	return os.MkdirTemp("", prefix)
}
