package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/grovetools/zzz/pkg/namespace"
	"github.com/grovetools/zzz/pkg/state"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status [name]",
		Short: "Show the install status of a project's tools",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := manifestPath(args)
			if err != nil {
				return err
			}

			orch, closeFn := a.orchestrator()
			defer closeFn()

			st, err := orch.Status(cmd.Context(), path)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(st, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(a.out, string(data))
				return nil
			}

			loaded := "no"
			if st.Loaded {
				loaded = "yes"
			}
			fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render("Project:"), st.Project)
			fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render("Namespace:"), namespace.Format(st.Namespace))
			fmt.Fprintf(a.out, "%s %s\n", headerStyle.Render("Directory:"), st.Dir)
			fmt.Fprintf(a.out, "%s %s\n\n", headerStyle.Render("Loaded:"), loaded)

			if len(st.Entries) == 0 {
				a.ui.Info("No install status recorded")
				return nil
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tSTATUS\tKIND\tUPDATED")
			for _, e := range st.Entries {
				status := successStyle.Render(string(e.Status))
				if e.Status == state.StatusFailed {
					status = errorStyle.Render(string(e.Status))
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Tool.Name, status, e.Kind, e.UpdatedAt.Local().Format(time.DateTime))
			}
			if err := w.Flush(); err != nil {
				return err
			}

			for _, e := range st.Entries {
				if e.Status == state.StatusFailed && e.Error != "" {
					fmt.Fprintf(a.out, "\n%s %s\n", toolNameStyle.Render(e.Tool.Name+":"), faintStyle.Render(e.Error))
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
