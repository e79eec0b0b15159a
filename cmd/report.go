package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"labelme/internal/dashboard"
	"labelme/internal/ui"
)

var (
	reportNoColor bool
	reportTab     string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the dashboard to the terminal",
	Long:  `Run the dashboard queries once and print every tab, or a single tab with --tab.`,
	RunE:  runReport,
}

func runReport(cmd *cobra.Command, args []string) error {
	var tab dashboard.Tab
	if reportTab != "" {
		var ok bool
		if tab, ok = dashboard.LookupTab(dashboard.ViewID(reportTab)); !ok {
			return fmt.Errorf("unknown tab %q", reportTab)
		}
	}

	ctx := cmd.Context()
	app, err := newApplication(ctx, appConfig, obs)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	useColor := !reportNoColor && ui.ColorEnabled()
	ui.SetColor(useColor)
	report := ui.NewReport(out, useColor)

	var spinner *ui.Spinner
	if useColor {
		spinner = ui.NewSpinner("Loading dashboard data...")
		spinner.Start()
	}
	start := time.Now()

	if tab.ID != "" {
		view, err := app.composer.ComposeView(ctx, tab.ID)
		if spinner != nil {
			spinner.Stop(err == nil, "Loaded in "+ui.FormatDuration(time.Since(start)))
		}
		if err != nil {
			return err
		}
		report.RenderView(tab, view)
		return nil
	}

	views := app.composer.Compose(ctx)
	if spinner != nil {
		spinner.Stop(true, "Loaded in "+ui.FormatDuration(time.Since(start)))
	}
	report.Render(appConfig.Dashboard, views)
	return nil
}

func init() {
	reportCmd.Flags().BoolVar(&reportNoColor, "no-color", false, "disable colored output")
	reportCmd.Flags().StringVar(&reportTab, "tab", "", "print a single tab: quality, artists, streaming, pipeline or before-after")
	rootCmd.AddCommand(reportCmd)
}
