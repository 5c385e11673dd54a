package platform

import "context"

// Unix invokes utilities directly, without an intermediate shell.
type Unix struct{}

func (Unix) Name() string { return "unix" }

func (Unix) Run(ctx context.Context, cmd Command) (Status, error) {
	return run(ctx, cmd.Argv, cmd)
}

func (Unix) Download(url, dest string) Command {
	return Command{Argv: []string{"curl", "-fsSL", "-o", dest, url}}
}

func (Unix) MarkExecutable(path string) (Command, bool) {
	return Command{Argv: []string{"chmod", "+x", path}}, true
}
