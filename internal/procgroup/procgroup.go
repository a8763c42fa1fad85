// SPDX-License-Identifier: MIT

// Package procgroup spawns external tools in their own process group and
// reaps the whole tree on termination. ffmpeg and ffprobe fork helpers;
// killing only the leader leaks them.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/ccore/internal/metrics"
)

// ErrKillTimeout reports that the group survived SIGKILL past the timeout.
var ErrKillTimeout = errors.New("procgroup: group did not exit before timeout")

// Set configures cmd to start as a process group leader. Required before
// Start for KillGroup and Terminate to reach the whole tree.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// KillGroup terminates the process group led by pid: SIGTERM, a grace wait,
// then SIGKILL. A group that is already gone is a success.
func KillGroup(pid int, grace, timeout time.Duration) error {
	return killGroup(pid, grace, timeout)
}

// Terminate stops a started command through its group. It sends SIGTERM,
// waits up to grace on waitCh (the channel fed by cmd.Wait), escalates to
// SIGKILL, and always drains waitCh so the process is reaped. The returned
// error is the process exit error. Nil commands are a no-op.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if err := signal(cmd, syscall.SIGTERM); err == nil {
		metrics.IncProcSignal("SIGTERM", "sent")
	} else {
		metrics.IncProcSignal("SIGTERM", "error")
	}

	select {
	case err := <-waitCh:
		if err == nil {
			metrics.IncProcWait("exit0")
		} else {
			metrics.IncProcWait("exit_nonzero")
		}
		return err
	case <-time.After(grace):
	}

	if err := signal(cmd, syscall.SIGKILL); err == nil {
		metrics.IncProcSignal("SIGKILL", "sent")
	} else {
		metrics.IncProcSignal("SIGKILL", "error")
	}

	// SIGKILL frees a blocked process; the drain must not be skipped.
	err := <-waitCh
	if err == nil {
		metrics.IncProcWait("forced_exit0")
	} else {
		metrics.IncProcWait("forced_error")
	}
	return err
}
