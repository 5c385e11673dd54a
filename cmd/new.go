package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/grovetools/zzz/pkg/load"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/spf13/cobra"
)

// defaultProjectName is used by 'zzz new' without a name.
const defaultProjectName = "dream"

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "new [name]",
		Aliases: []string{"init", "i"},
		Short:   "Create a project manifest",
		Long: `Write <name>.zzz.yaml in the current directory from a template.

An existing file is only overwritten after confirmation, or with -f.`,
		Example: `  zzz new
  zzz new demo`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultProjectName
			if len(args) > 0 && args[0] != "" {
				name = args[0]
			}
			path := manifest.FileName(name)

			if _, err := os.Stat(path); err == nil && !a.opts.Force {
				ok, err := a.prompter().Confirm(fmt.Sprintf("%s already exists. Overwrite it?", path))
				if err != nil {
					return err
				}
				if !ok {
					return load.ErrAborted
				}
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			if err := manifest.New(name).Save(path); err != nil {
				return err
			}
			a.ui.Success("Created %s", path)
			return nil
		},
	}
}
