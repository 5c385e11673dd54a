package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/grovetools/zzz/pkg/load"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/runner"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:     "run [name]",
		Aliases: []string{"r"},
		Short:   "Load a project, then run its ON.RUN commands",
		Long: `Load the project like 'zzz load', then run each ON.RUN command from the
manifest's directory with the project's namespace first on PATH.

When a command fails you are asked whether to continue, unless -f is set.`,
		Example: `  zzz run
  zzz run demo -f`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.runLoad(cmd, args, &flags)
			if err != nil {
				return err
			}
			path, err := manifestPath(args)
			if err != nil {
				return err
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			return a.runCommands(cmd, m, filepath.Dir(path), res.Dir)
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

func (a *app) runCommands(cmd *cobra.Command, m *manifest.Manifest, dir, bins string) error {
	if len(m.On.Run) == 0 {
		a.ui.Info("%s has nothing to run", m.Project.Name)
		return nil
	}

	var confirm *confirmer
	if !a.opts.Force {
		confirm = a.prompter()
	}

	results, err := runner.Run(cmd.Context(), m.On.Run, runner.Options{
		Shell:    a.shell,
		Dir:      dir,
		PathDirs: []string{bins},
		Stdout:   a.out,
		Stderr:   a.errOut,
		Logger:   a.logger,
		OnFailure: func(r runner.Result) bool {
			a.ui.Error("%s", r.Error())
			if confirm == nil {
				return true
			}
			ok, err := confirm.Confirm(load.ContinuePrompt)
			return err == nil && ok
		},
	})
	if errors.Is(err, runner.ErrStopped) {
		return load.ErrAborted
	}
	if err != nil {
		return err
	}

	if failed := runner.Failures(results); len(failed) > 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d commands failed", len(failed), len(results))}
	}
	a.ui.Success("Ran %d %s", len(results), plural(len(results), "command", "commands"))
	return nil
}
