package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crview/crview/internal/models"
	"github.com/crview/crview/internal/review"
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload code for review",
	Long: `Upload code for review.

'upload file' and 'upload archive' submit immediately. 'upload stage'
builds a selection that is submitted together with 'upload submit'.`,
}

var uploadFileCmd = &cobra.Command{
	Use:   "file <path>",
	Short: "Submit one source file for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		result, err := c.UploadSingle(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderResult(result)
		return nil
	},
}

var uploadArchiveCmd = &cobra.Command{
	Use:   "archive <path.zip>",
	Short: "Submit a zip archive for review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		result, err := c.UploadArchive(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		renderResult(result)
		return nil
	},
}

var uploadStageCmd = &cobra.Command{
	Use:   "stage <path>...",
	Short: "Add files to the staged selection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		if err := c.StageFiles(cmd.Context(), args); err != nil {
			return err
		}
		staged, err := c.Staged(cmd.Context())
		if err != nil {
			return err
		}
		ui.Success("Staged %d file(s), %d total", len(args), len(staged))
		return nil
	},
}

var uploadStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "List the staged selection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		staged, err := c.Staged(cmd.Context())
		if err != nil {
			return err
		}
		if len(staged) == 0 {
			ui.Info("No files staged. Use 'crview upload stage <path>...' to add some.")
			return nil
		}
		table := ui.Table([]string{"#", "File", "Path"})
		for i, f := range staged {
			table.Append([]string{fmt.Sprintf("%d", i+1), f.Filename, f.Path})
		}
		return table.Render()
	},
}

var uploadUnstageCmd = &cobra.Command{
	Use:   "unstage <n>",
	Short: "Remove entry n from the staged selection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		if err := c.Unstage(cmd.Context(), index); err != nil {
			return err
		}
		ui.Success("Removed")
		return nil
	},
}

var uploadSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the staged selection for review",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		result, err := c.SubmitStaged(cmd.Context())
		if err != nil {
			return err
		}
		renderResult(result)
		return nil
	},
}

func init() {
	uploadCmd.AddCommand(uploadFileCmd)
	uploadCmd.AddCommand(uploadArchiveCmd)
	uploadCmd.AddCommand(uploadStageCmd)
	uploadCmd.AddCommand(uploadStagedCmd)
	uploadCmd.AddCommand(uploadUnstageCmd)
	uploadCmd.AddCommand(uploadSubmitCmd)
	rootCmd.AddCommand(uploadCmd)
}

// parseIndex converts a 1-based positional argument to a 0-based index.
func parseIndex(arg string) (int, error) {
	var n int
	if _, err := fmt.Sscanf(arg, "%d", &n); err != nil || n < 1 {
		return 0, fmt.Errorf("invalid entry number %q", arg)
	}
	return n - 1, nil
}

// renderResult prints a full review: summary, per-file scores, distribution,
// and the severity-ranked issue feed.
func renderResult(result *models.ReviewResult) {
	ui.RenderSummary(result)
	fmt.Fprintln(ui.Out)
	ui.RenderFiles(result.Files)
	ui.RenderDistribution(result.Summary.IssueDistribution)
	fmt.Fprintln(ui.Out)
	ui.RenderIssues(result.Files, review.FilterAll)
}
