package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/zzz/pkg/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the user configuration",
		Long: `Settings live in ~/.snooze/config.toml:

  [install]
  timeout = "10m"   # per-package install timeout
  jobs = 1          # packages installed at once

  [resolve]
  transitive = false

  [log]
  verbose = false

Command-line flags override them.`,
	}
	cmd.AddCommand(newConfigInitCmd(a), newConfigShowCmd(a), newConfigPathCmd(a))
	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.layout.ConfigFile()
			if _, err := os.Stat(path); err == nil && !a.opts.Force {
				return fmt.Errorf("%s already exists; use -f to overwrite it", path)
			}
			if err := config.Default().Save(path); err != nil {
				return err
			}
			a.ui.Success("Wrote %s", path)
			return nil
		},
	}
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.cfg.Marshal()
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(a.out, a.layout.ConfigFile())
			return nil
		},
	}
}
