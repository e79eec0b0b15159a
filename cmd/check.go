package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"labelme/internal/ui"
	"labelme/internal/warehouse"
	apperrors "labelme/pkg/errors"
)

var checkQueries bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the Snowflake connection",
	Long: `Open a warehouse session, run the version probe and print the result.
With --queries, also run each dashboard query once and report its row count.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, err := newApplication(ctx, appConfig, obs)
	if err != nil {
		return err
	}
	defer app.Close()

	version, err := app.session.Version(ctx)
	if err != nil {
		return err
	}

	ui.PrintSection("Warehouse")
	ui.PrintKeyValue("Account", appConfig.Snowflake.Account)
	ui.PrintKeyValue("Warehouse", appConfig.Snowflake.Warehouse)
	ui.PrintKeyValue("Objects", appConfig.Snowflake.Database+"."+appConfig.Snowflake.Schema)
	ui.PrintKeyValue("Version", version)

	if !checkQueries {
		ui.ShowSuccess("Connected to Snowflake")
		return nil
	}

	ui.PrintSection("Dashboard Queries")
	failed := 0
	for _, id := range warehouse.QueryIDs {
		table, err := app.repo.Fetch(ctx, id)
		switch {
		case err == nil:
			ui.PrintKeyValue(id, humanize.Comma(int64(table.Len()))+" rows")
		case apperrors.IsEmptyResult(err):
			ui.PrintKeyValue(id, ui.ColorWarning("no rows"))
		default:
			failed++
			ui.PrintKeyValue(id, ui.ColorError(apperrors.Summary(err)))
		}
	}

	if failed > 0 {
		return apperrors.New(apperrors.ErrCodeDataAccess, fmt.Sprintf("%d of %d dashboard queries failed", failed, len(warehouse.QueryIDs))).
			WithSuggestions("Make sure the demo is fully deployed and tables contain data.")
	}
	ui.ShowSuccess("All dashboard queries succeeded")
	return nil
}

func init() {
	checkCmd.Flags().BoolVar(&checkQueries, "queries", false, "also run every dashboard query")
	rootCmd.AddCommand(checkCmd)
}
