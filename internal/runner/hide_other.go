//go:build !windows

package runner

import "os/exec"

// hideConsoleWindow is a no-op outside Windows; only the Windows console
// subsystem spawns a visible window for child processes.
func hideConsoleWindow(cmd *exec.Cmd) {}
