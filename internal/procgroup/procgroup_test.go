// SPDX-License-Identifier: MIT

//go:build linux

package procgroup

import (
	"os"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKillGroupReapsTree(t *testing.T) {
	cmd := exec.Command("sh", "-c", "sleep 100 & sleep 100")
	Set(cmd)
	require.NoError(t, cmd.Start())

	pid := cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	require.Equal(t, pid, pgid, "leader PID must equal PGID")

	require.NoError(t, KillGroup(pid, 100*time.Millisecond, 500*time.Millisecond))

	proc, _ := os.FindProcess(pid)
	require.Error(t, proc.Signal(syscall.Signal(0)), "leader must be dead")
	require.Equal(t, syscall.ESRCH, syscall.Kill(-pgid, syscall.Signal(0)), "group must be dead")
}

func TestKillGroupAlreadyGone(t *testing.T) {
	require.NoError(t, KillGroup(999999, 10*time.Millisecond, 10*time.Millisecond))
}

func TestTerminateNilCommand(t *testing.T) {
	require.NoError(t, Terminate(nil, nil, time.Second))
}

func TestTerminateGraceful(t *testing.T) {
	cmd := exec.Command("sleep", "100")
	Set(cmd)
	require.NoError(t, cmd.Start())

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	err := Terminate(cmd, waitCh, 2*time.Second)
	require.Error(t, err, "SIGTERM exit surfaces as an exit error")

	proc, _ := os.FindProcess(cmd.Process.Pid)
	require.Error(t, proc.Signal(syscall.Signal(0)))
}

func TestTerminateEscalatesToKill(t *testing.T) {
	// The child ignores SIGTERM, forcing the SIGKILL path.
	cmd := exec.Command("sh", "-c", `trap "" TERM; sleep 100`)
	Set(cmd)
	require.NoError(t, cmd.Start())

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	start := time.Now()
	err := Terminate(cmd, waitCh, 100*time.Millisecond)
	require.Error(t, err)
	require.Less(t, time.Since(start), 5*time.Second)

	proc, _ := os.FindProcess(cmd.Process.Pid)
	require.Error(t, proc.Signal(syscall.Signal(0)))
}

func TestTerminateAfterExit(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	require.NoError(t, cmd.Start())

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	require.NoError(t, Terminate(cmd, waitCh, time.Second))
}
