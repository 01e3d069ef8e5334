package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/crview/crview/internal/client"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch and list past uploads",
	Long: `Fetch the upload history from the service and list it.

Every run replaces the cached list with what the server returned.
Use 'crview history show <n>' to open one of the listed reviews.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := getController()
		if err != nil {
			return err
		}
		records, err := c.FetchHistory(cmd.Context())
		if err != nil {
			if errors.Is(err, client.ErrNoHistory) {
				ui.Info("No uploads yet.")
				return nil
			}
			return err
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}
		ui.RenderHistory(records)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <n>",
	Short: "Show a past review from the fetched list",
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
		result, err := c.SelectHistory(cmd.Context(), index)
		if err != nil {
			return err
		}
		ui.Info("Historical review (read-only)")
		renderResult(result)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Show at most this many records (0 = all)")
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(historyCmd)
}
