package platform

import (
	"context"
	"os/exec"
	"strings"
)

// Windows wraps every invocation in a cmd.exe command line.
type Windows struct{}

func (Windows) Name() string { return "windows" }

// Run hands cmd.exe the wrapped line verbatim. Letting exec quote it again
// would turn the inner quotes into \" sequences that cmd.exe does not
// understand.
func (w Windows) Run(ctx context.Context, cmd Command) (Status, error) {
	argv := w.Wrap(cmd.Argv)
	line := strings.Join(argv, " ")
	return run(ctx, argv, cmd, func(c *exec.Cmd) { setCmdLine(c, line) })
}

// Wrap builds the cmd.exe invocation for argv. With /S, cmd.exe strips
// exactly the outer pair of quotes and runs the rest as typed.
func (Windows) Wrap(argv []string) []string {
	return []string{"cmd", "/S", "/C", `"` + commandLine(argv) + `"`}
}

func (Windows) Download(url, dest string) Command {
	return Command{Argv: []string{"curl.exe", "-fsSL", "-o", dest, url}}
}

func (Windows) MarkExecutable(path string) (Command, bool) {
	return Command{Argv: []string{"attrib", "-R", path}}, true
}

// commandLine joins argv, quoting arguments that contain spaces or quotes.
func commandLine(argv []string) string {
	parts := make([]string, len(argv))
	for i, a := range argv {
		if a == "" || strings.ContainsAny(a, " \t\"") {
			a = `"` + strings.ReplaceAll(a, `"`, `\"`) + `"`
		}
		parts[i] = a
	}
	return strings.Join(parts, " ")
}
