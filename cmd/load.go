package cmd

import (
	"fmt"

	"github.com/grovetools/zzz/pkg/load"
	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/spf13/cobra"
)

func newLoadCmd(a *app) *cobra.Command {
	var flags loadFlags

	cmd := &cobra.Command{
		Use:     "load [name]",
		Aliases: []string{"start", "l"},
		Short:   "Install the tools a project declares",
		Long: `Resolve the project's declared tools against the dependency cache and
install the closure into the project's namespace under ~/.snooze/bins.

A project that is already loaded is left alone unless --clean is given.
Packages that fail to install are reported and do not stop the load.`,
		Example: `  # Load the only project in the current directory
  zzz load

  # Load demo.zzz.yaml without prompts, four packages at a time
  zzz load demo -f -j 4

  # Reinstall only what failed last time
  zzz load --retry-failed`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.runLoad(cmd, args, &flags)
			return err
		},
	}
	flags.bind(cmd.Flags())
	return cmd
}

// runLoad loads the project named by args and prints the summary.
func (a *app) runLoad(cmd *cobra.Command, args []string, flags *loadFlags) (*load.Result, error) {
	path, err := manifestPath(args)
	if err != nil {
		return nil, err
	}
	opts, err := flags.options(a, cmd.Flags())
	if err != nil {
		return nil, err
	}

	orch, closeFn := a.orchestrator()
	defer closeFn()

	res, err := orch.Load(cmd.Context(), path, opts)
	if err != nil {
		return nil, err
	}
	a.printLoadResult(res)
	return res, nil
}

func (a *app) printLoadResult(res *load.Result) {
	if res.FastPath {
		a.ui.Info("Already loaded, nothing to install. Use --clean to reinstall.")
	} else {
		a.ui.Success("Installed %d %s", len(res.Tools), plural(len(res.Tools), "tool", "tools"))
		if len(res.Failed) > 0 {
			names := make([]string, len(res.Failed))
			for i, o := range res.Failed {
				names[i] = o.Tool.Name
			}
			a.ui.Warn("%d failed: %s. Retry with 'zzz load --retry-failed'.", len(res.Failed), joinNames(names))
		}
	}
	fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render("Namespace:"), namespace.Format(res.Namespace))
	fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render("Directory:"), res.Dir)
	if !res.FastPath {
		fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render("Tools:"), joinNames(res.Tools))
	}
}
