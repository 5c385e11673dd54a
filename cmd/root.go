package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the zzz command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{})
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zzz",
		Short: "Project-level dependency fetcher and task runner",
		Long: `zzz installs the tools a project declares in its <name>.zzz.yaml into a
namespace private to that project, then runs the project's commands with
those tools on PATH.

Any other command is looked up in ~/.snooze/ext and run as an extension.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.delegate(cmd, args[0], extArgs(os.Args[1:], args[0]))
		},
	}
	// Unknown flags belong to extensions.
	rootCmd.FParseErrWhitelist.UnknownFlags = true
	a.opts.bind(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newLoadCmd(a),
		newRunCmd(a),
		newListCmd(a),
		newNewCmd(a),
		newAddCmd(a),
		newRemoveCmd(a),
		newForgetCmd(a),
		newStatusCmd(a),
		newGraphCmd(a),
		newCacheCmd(a),
		newSchemaCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// extArgs returns what follows name in the raw command line, so flags meant
// for an extension reach it untouched.
func extArgs(raw []string, name string) []string {
	for i, arg := range raw {
		if arg == name {
			return raw[i+1:]
		}
	}
	return nil
}

// delegate runs the extension called name from the ext directory.
func (a *app) delegate(cmd *cobra.Command, name string, args []string) error {
	path := filepath.Join(a.layout.Ext(), name)
	if runtime.GOOS == "windows" && filepath.Ext(path) == "" {
		path += ".exe"
	}

	if info, err := os.Stat(path); err != nil || info.IsDir() {
		msg := fmt.Sprintf("unknown command %q for zzz", name)
		if suggestion, ok := a.suggest(cmd, name); ok {
			msg += fmt.Sprintf("\n\nDid you mean this?\n\t%s", suggestion)
		}
		return &ExitError{Code: ExitFailure, Err: errors.New(msg), Hint: "Run 'zzz --help' for usage."}
	}

	a.logger.WithField("ext", path).Debug("Delegating to extension")
	c := exec.CommandContext(cmd.Context(), path, args...)
	c.Stdin = a.in
	c.Stdout = a.out
	c.Stderr = a.errOut
	c.Env = append(os.Environ(), "ZZZ_HOME="+a.layout.Root)

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Code: exitErr.ExitCode()}
		}
		return fmt.Errorf("failed to run extension %s: %w", name, err)
	}
	return nil
}

// suggest finds the command or extension name closest to name.
func (a *app) suggest(cmd *cobra.Command, name string) (string, bool) {
	var candidates []string
	for _, c := range cmd.Root().Commands() {
		if c.IsAvailableCommand() {
			candidates = append(candidates, c.Name())
			candidates = append(candidates, c.Aliases...)
		}
	}
	if entries, err := os.ReadDir(a.layout.Ext()); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				candidates = append(candidates, e.Name())
			}
		}
	}

	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0].Str, true
}
