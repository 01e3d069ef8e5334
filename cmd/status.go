package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crview/crview/internal/controller"
	"github.com/crview/crview/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the session at a glance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statusRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusRun handles both `crview status` and bare `crview`.
func statusRun(cmd *cobra.Command) error {
	c, err := getController()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	st, err := c.State(ctx)
	if err != nil {
		return err
	}

	if !st.Session.Authenticated() {
		ui.Info("Not logged in. Use 'crview login <username>' to start.")
		return nil
	}

	fmt.Fprintf(ui.Out, "Logged in as %s\n", output.Cyan(st.Session.Username))

	switch st.View {
	case controller.ViewShowingResult:
		label := "current upload"
		if st.Historical {
			label = "historical review"
		}
		fmt.Fprintf(ui.Out, "Viewing:   %s (%.1f avg score, %d issues)\n",
			label, st.Result.Summary.AverageScore, st.Result.Summary.TotalIssuesFound)
	default:
		fmt.Fprintln(ui.Out, "Viewing:   upload screen")
	}

	staged, err := c.Staged(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ui.Out, "Staged:    %d file(s)\n", len(staged))

	records, err := c.History(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(ui.Out, "History:   %d cached upload(s)\n", len(records))

	if st.LastError != "" {
		ui.Warning("Last error: %s (crview dismiss to clear)", st.LastError)
	}
	return nil
}
