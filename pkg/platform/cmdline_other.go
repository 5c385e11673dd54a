//go:build !windows

package platform

import "os/exec"

// setCmdLine is a no-op: only Windows passes a single command line string
// to new processes.
func setCmdLine(*exec.Cmd, string) {}
