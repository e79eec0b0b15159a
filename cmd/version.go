package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version is set at build time
	Version = "dev"
	// BuildTime is set at build time
	BuildTime = "unknown"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display LabelMe version information",
	Long:  `Display the current version of the LabelMe dashboard along with build information.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "labelme version %s\n", Version)
		fmt.Fprintf(out, "Built at: %s\n", BuildTime)
		if appConfig != nil {
			fmt.Fprintf(out, "Dashboard: %s %s\n", appConfig.Dashboard.Title, appConfig.Dashboard.Version)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
