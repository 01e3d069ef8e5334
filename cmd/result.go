package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crview/crview/internal/review"
)

var resultFilter string

var resultCmd = &cobra.Command{
	Use:   "result",
	Short: "Show the current review result",
	Long: `Show the review the session is currently looking at.

--filter narrows the issue feed to one severity; the counts in the
header always describe the whole result.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		st, err := c.State(cmd.Context())
		if err != nil {
			return err
		}
		if st.Result == nil {
			ui.Info("No result to show. Upload something first.")
			return nil
		}
		if st.Historical {
			ui.Info("Historical review (read-only)")
		}
		ui.RenderSummary(st.Result)
		fmt.Fprintln(ui.Out)
		ui.RenderFiles(st.Result.Files)
		ui.RenderDistribution(st.Result.Summary.IssueDistribution)
		fmt.Fprintln(ui.Out)
		ui.RenderIssues(st.Result.Files, resultFilter)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the current result and return to uploading",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		if err := c.Reset(cmd.Context()); err != nil {
			return err
		}
		ui.Success("Ready for a new upload")
		return nil
	},
}

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Clear the last error",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		return c.DismissError(cmd.Context())
	},
}

func init() {
	resultCmd.Flags().StringVar(&resultFilter, "filter", review.FilterAll,
		"Show only issues of this severity (all, critical, major, minor)")
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(dismissCmd)
}
