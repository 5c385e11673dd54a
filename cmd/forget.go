package cmd

import (
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/spf13/cobra"
)

func newForgetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "forget [name]",
		Short: "Delete a project's installed tools",
		Long: `Remove the project's namespace directory and recorded install status, and
mark the project as not loaded. The manifest itself is kept.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(args)
			if err != nil {
				return err
			}

			orch, closeFn := a.orchestrator()
			defer closeFn()

			ns, err := orch.Forget(cmd.Context(), path)
			if err != nil {
				return err
			}
			a.ui.Success("Forgot namespace %s", namespace.Format(ns))
			return nil
		},
	}
}
