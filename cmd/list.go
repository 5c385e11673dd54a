package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/grovetools/zzz/pkg/depcache"
	"github.com/grovetools/zzz/pkg/load"
	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/resolve"
	"github.com/spf13/cobra"
)

func newListCmd(a *app) *cobra.Command {
	var (
		resolved   bool
		transitive bool
	)

	cmd := &cobra.Command{
		Use:     "list [name]",
		Aliases: []string{"L"},
		Short:   "List a project's declared tools",
		Long: `List the tools declared in the project's manifest.

With --resolved, print the closure that 'zzz load' would install instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(args)
			if err != nil {
				return err
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}

			for _, w := range m.Validate() {
				a.ui.Warn("%s", w)
			}

			tools := m.Tools()
			if !resolved {
				if len(tools) == 0 {
					a.ui.Info("No tools")
					return nil
				}
				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tMETHOD\tLINK")
				for _, t := range tools {
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, t.Method, t.Link)
				}
				return w.Flush()
			}

			if !cmd.Flags().Changed("transitive") {
				transitive = a.cfg.Resolve.Transitive
			}
			res, err := a.resolveClosure(m, transitive)
			if err != nil {
				return err
			}
			if len(res.Tools) == 0 {
				a.ui.Info("No tools")
				return nil
			}
			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMETHOD\tREQUIRES\tREQUIRED BY\tLINK")
			for _, t := range res.Tools {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.Name, t.Method,
					joinNames(res.Graph.GetDependencies(t.Name)),
					joinNames(res.Graph.GetDependents(t.Name)),
					t.Link)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&resolved, "resolved", false, "Print the resolved closure")
	cmd.Flags().BoolVar(&transitive, "transitive", false, "Resolve requirements of requirements")
	return cmd
}

// resolveClosure resolves m against the dependency cache and reports tools
// the cache does not know.
func (a *app) resolveClosure(m *manifest.Manifest, transitive bool) (*resolve.Result, error) {
	cache, err := depcache.Load(a.layout.CacheFile())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", load.ErrCacheUnavailable, err)
	}
	res, err := resolve.Resolve(m.Tools(), cache, resolve.Options{Transitive: transitive, Logger: a.logger})
	if err != nil {
		return nil, err
	}
	for _, t := range res.Missing {
		suggestion, _ := cache.Suggest(t.Name)
		reporter{a.ui}.Skipped(t, suggestion)
	}
	return res, nil
}
