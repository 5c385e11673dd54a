package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/grovetools/zzz/pkg/render"
	"github.com/spf13/cobra"
)

func newGraphCmd(a *app) *cobra.Command {
	var (
		format     string
		output     string
		detailed   bool
		transitive bool
	)

	cmd := &cobra.Command{
		Use:   "graph [name]",
		Short: "Draw a project's dependency closure",
		Long: `Print the closure of the project's tools as a Graphviz graph. Declared
tools are bold, tools without a cache entry of their own are dashed.`,
		Example: `  zzz graph | dot -Tpng > deps.png
  zzz graph demo --transitive --format svg -o deps.svg`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "dot" && format != "svg" {
				return fmt.Errorf("unknown format %q (expected dot or svg)", format)
			}
			path, err := manifestPath(args)
			if err != nil {
				return err
			}
			m, err := manifest.Load(path)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("transitive") {
				transitive = a.cfg.Resolve.Transitive
			}

			res, err := a.resolveClosure(m, transitive)
			if err != nil {
				return err
			}

			data := []byte(render.ToDOT(res.Graph, render.Options{Title: m.Project.Name, Detailed: detailed}))
			if format == "svg" {
				data, err = render.RenderSVG(cmd.Context(), string(data))
				if err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err = a.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			a.ui.Success("Wrote %s", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "dot", "Output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "Show install methods in node labels")
	cmd.Flags().BoolVar(&transitive, "transitive", false, "Resolve requirements of requirements")
	return cmd
}
