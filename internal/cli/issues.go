package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"booking-metrics/internal/app"
)

var issuesLimit int

var issuesCmd = &cobra.Command{
	Use:     "issues",
	Aliases: []string{"show"},
	Short:   "List recorded data-quality issues, newest first",
	Long: `List refund-rate data-quality issues (years with no orders and years
with more refunds than orders) stored by earlier report runs.`,
	Example: "  bookingmetrics issues --last 50",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := issuesOptions(issuesLimit)
		if err != nil {
			return err
		}
		return getApp().Show(cmd.Context(), opts)
	},
}

func issuesOptions(limit int) (app.ShowOptions, error) {
	if limit < 1 {
		return app.ShowOptions{}, fmt.Errorf("--last must be at least 1, got %d", limit)
	}
	return app.ShowOptions{Limit: limit}, nil
}

func init() {
	issuesCmd.Flags().IntVar(&issuesLimit, "last", 20, "How many of the most recent issues to list")
}
