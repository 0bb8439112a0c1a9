//go:build !windows

package downloads

import (
	"os"
	"os/exec"
	"syscall"
)

// setProcGroup puts the worker in its own process group so children
// (e.g. ffmpeg) are killable together.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessTree force-kills the worker's whole process group.
func killProcessTree(p *os.Process) error {
	if p == nil {
		return nil
	}
	if err := syscall.Kill(-p.Pid, syscall.SIGKILL); err != nil {
		// Group kill can fail when the leader already exited; fall
		// back to the single process.
		return p.Kill()
	}
	return nil
}
