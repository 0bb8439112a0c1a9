//go:build windows

package downloads

import (
	"os"
	"os/exec"
	"strconv"
)

func setProcGroup(cmd *exec.Cmd) {
	// Process groups are not usable for tree kills here; taskkill /T
	// handles descendants instead.
}

// killProcessTree force-kills the worker and its descendants. Windows
// has no graceful group kill for console children, so the whole tree
// goes through taskkill.
func killProcessTree(p *os.Process) error {
	if p == nil {
		return nil
	}
	if err := exec.Command("taskkill", "/pid", strconv.Itoa(p.Pid), "/T", "/F").Run(); err != nil {
		return p.Kill()
	}
	return nil
}
