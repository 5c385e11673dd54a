package cmd

import (
	"fmt"

	"github.com/grovetools/zzz/pkg/manifest"
	"github.com/spf13/cobra"
)

func newSchemaCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of the manifest format",
		Long: `Print the JSON schema describing <name>.zzz.yaml files. Point an editor's
YAML language server at it for completion and validation.`,
		Example: `  zzz schema > zzz.schema.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := manifest.Schema()
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, string(data))
			return nil
		},
	}
}
