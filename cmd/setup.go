package cmd

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"labelme/internal/config"
	"labelme/internal/ui"
)

// newWizard builds the setup wizard; tests replace it
var newWizard = ui.NewConfigWizard

// confirmOverwrite asks before replacing an existing config file; tests replace it
var confirmOverwrite = func(path string) (bool, error) {
	overwrite := false
	prompt := &survey.Confirm{
		Message: "Configuration already exists at " + path + ". Overwrite it?",
		Default: false,
	}
	err := survey.AskOne(prompt, &overwrite)
	return overwrite, err
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration setup",
	Long: `Prompt for the Snowflake connection and dashboard settings, write config.yaml
and store the password in the system keyring.`,
	RunE: runSetup,
}

func runSetup(cmd *cobra.Command, args []string) error {
	if config.Exists() {
		overwrite, err := confirmOverwrite(config.GetConfigFile())
		if err != nil {
			return err
		}
		if !overwrite {
			ui.ShowInfo("Setup cancelled")
			return nil
		}
	}

	cfg, err := newWizard().Run(appConfig)
	if err != nil {
		if err == ui.ErrSetupCancelled {
			ui.ShowInfo("Setup cancelled")
			return nil
		}
		return err
	}

	if err := config.Save(cfg); err != nil {
		return err
	}
	ui.ShowSuccess("Configuration saved to " + config.GetConfigFile())

	if cfg.Snowflake.Password != "" {
		if err := config.StorePassword(cfg.Snowflake); err != nil {
			ui.ShowWarning("Could not store the password in the keyring; set LABELME_SNOWFLAKE_PASSWORD instead")
			obs.Logger.WithError(err).Warn("Keyring write failed")
			return nil
		}
		ui.ShowSuccess("Password stored in the system keyring")
	}

	ui.ShowInfo("Run 'labelme check' to verify the connection")
	return nil
}

func init() {
	rootCmd.AddCommand(setupCmd)
}
