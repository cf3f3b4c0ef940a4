package procutil

import (
	"errors"
	"os/exec"
	"syscall"
)

// CmdExitCode returns the exit status of a finished command given the
// error from Run or Wait.  It is -1 when the command never ran.
func CmdExitCode(cmd *exec.Cmd, err error) int {
	if err == nil {
		if cmd.ProcessState == nil {
			return -1
		}
		ws := cmd.ProcessState.Sys().(syscall.WaitStatus)
		return ws.ExitStatus()
	}

	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		ws := exitError.Sys().(syscall.WaitStatus)
		return ws.ExitStatus()
	}

	// The binary could not be started (not found, not executable).
	return -1
}
