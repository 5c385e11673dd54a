//go:build windows

package platform

import (
	"os/exec"
	"syscall"
)

// setCmdLine makes c start with line as its exact command line.
func setCmdLine(c *exec.Cmd, line string) {
	if c.SysProcAttr == nil {
		c.SysProcAttr = &syscall.SysProcAttr{}
	}
	c.SysProcAttr.CmdLine = line
}
