package platform

import (
	"fmt"

	"github.com/mattn/go-shellwords"
)

// Split breaks a command line into arguments, honouring single quotes,
// double quotes and backslash escapes. Variables and backquotes are not
// expanded, and pipes, redirects and command separators are rejected since
// commands run without a shell.
func Split(line string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false

	args, err := p.Parse(line)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", line, err)
	}
	if p.Position != -1 {
		return nil, fmt.Errorf("invalid command %q: shell operators are not supported", line)
	}
	return args, nil
}
