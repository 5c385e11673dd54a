package cmd

import (
	"fmt"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/spf13/cobra"
)

func newAddCmd(a *app) *cobra.Command {
	var method string

	cmd := &cobra.Command{
		Use:     "add <tool> <link> [name]",
		Aliases: []string{"a"},
		Short:   "Declare a tool in a project",
		Long: `Add a tool to the project's DEPENDANCIES, or update its link and method
if it is already declared. The project must be loaded again afterwards.`,
		Example: `  zzz add jq https://example.com/jq-linux64
  zzz add widget https://github.com/acme/widget.git --method git`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manifest.ParseMethod(method)
			if err != nil {
				return err
			}
			path, err := manifestPath(args[2:])
			if err != nil {
				return err
			}
			mf, err := manifest.Load(path)
			if err != nil {
				return err
			}

			tool := manifest.Tool{Name: args[0], Link: args[1], Method: m}
			replaced := mf.AddTool(tool)
			mf.Project.IsLoaded = false
			if err := mf.Save(path); err != nil {
				return err
			}

			if replaced {
				a.ui.Success("Updated %s in %s", toolNameStyle.Render(tool.Name), path)
			} else {
				a.ui.Success("Added %s to %s", toolNameStyle.Render(tool.Name), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&method, "method", "m", "linkzip", "Install method: linkzip or git")
	return cmd
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <tool> [name]",
		Aliases: []string{"rm"},
		Short:   "Remove a declared tool from a project",
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(args[1:])
			if err != nil {
				return err
			}
			mf, err := manifest.Load(path)
			if err != nil {
				return err
			}
			if !mf.RemoveTool(args[0]) {
				return fmt.Errorf("%s does not declare %q", path, args[0])
			}
			mf.Project.IsLoaded = false
			if err := mf.Save(path); err != nil {
				return err
			}
			a.ui.Success("Removed %s from %s", toolNameStyle.Render(args[0]), path)
			return nil
		},
	}
}
