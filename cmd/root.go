package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"labelme/internal/config"
	"labelme/internal/observability"
	"labelme/internal/ui"
	"labelme/pkg/models"
)

var (
	cfgFile string

	// settings and the values derived from it are rebuilt before every command
	settings  *viper.Viper
	appConfig *models.Config
	obs       *observability.Observability

	rootCmd = &cobra.Command{
		Use:   "labelme",
		Short: "LabelMe data quality dashboard",
		Long: "LabelMe - Data quality, artist, streaming and pipeline dashboards over the " +
			"LabelMe Snowflake views",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(cmd)
		},
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.ShowError(err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./config.yaml or ~/.labelme/config.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("log-format", "", "log format: json or text")
}

func initConfig(cmd *cobra.Command) error {
	ui.Output = cmd.OutOrStdout()

	settings = viper.New()
	if err := config.Init(settings, cfgFile); err != nil {
		return err
	}

	flags := cmd.Root().PersistentFlags()
	if err := settings.BindPFlag("logging.level", flags.Lookup("log-level")); err != nil {
		return err
	}
	if err := settings.BindPFlag("logging.format", flags.Lookup("log-format")); err != nil {
		return err
	}

	cfg, err := config.Load(settings)
	if err != nil {
		return err
	}
	appConfig = cfg

	obs = observability.New(observability.Config{
		LogLevel:  cfg.Logging.Level,
		LogFormat: cfg.Logging.Format,
		LogOutput: cmd.ErrOrStderr(),
		Version:   Version,
	})
	if used := settings.ConfigFileUsed(); used != "" {
		obs.Logger.WithField("file", used).Debug("Loaded configuration")
	}
	return nil
}
