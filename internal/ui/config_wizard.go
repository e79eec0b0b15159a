package ui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"labelme/internal/config"
	"labelme/internal/warehouse"
	"labelme/pkg/models"
)

// ErrSetupCancelled is returned when the user aborts the wizard
var ErrSetupCancelled = errors.New("setup cancelled")

// Asker runs survey prompts
type Asker interface {
	Ask(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error
	AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error
}

type surveyAsker struct{}

func (surveyAsker) Ask(qs []*survey.Question, response interface{}, opts ...survey.AskOpt) error {
	return survey.Ask(qs, response, opts...)
}

func (surveyAsker) AskOne(p survey.Prompt, response interface{}, opts ...survey.AskOpt) error {
	return survey.AskOne(p, response, opts...)
}

// ConfigWizard provides an interactive configuration setup
type ConfigWizard struct {
	asker       Asker
	currentStep int
	totalSteps  int
}

type connectionAnswers struct {
	Account       string `survey:"account"`
	Username      string `survey:"username"`
	Authenticator string `survey:"authenticator"`
	Role          string `survey:"role"`
	Warehouse     string `survey:"warehouse"`
	Database      string `survey:"database"`
	Schema        string `survey:"schema"`
}

type serverAnswers struct {
	Addr     string `survey:"addr"`
	CacheTTL string `survey:"cache_ttl"`
	LogLevel string `survey:"log_level"`
}

// NewConfigWizard creates a wizard that prompts on the terminal
func NewConfigWizard() *ConfigWizard {
	return NewConfigWizardWithAsker(surveyAsker{})
}

// NewConfigWizardWithAsker creates a wizard driven by asker
func NewConfigWizardWithAsker(asker Asker) *ConfigWizard {
	return &ConfigWizard{
		asker:       asker,
		currentStep: 1,
		totalSteps:  4,
	}
}

// Run executes the wizard. Values in base are offered as defaults.
func (w *ConfigWizard) Run(base *models.Config) (*models.Config, error) {
	ShowHeader("LabelMe - Dashboard Setup")

	cfg := *base
	steps := []func(*models.Config) error{
		w.connectionStep,
		w.credentialStep,
		w.serverStep,
		w.reviewStep,
	}
	for _, step := range steps {
		if err := step(&cfg); err != nil {
			if errors.Is(err, terminal.InterruptErr) {
				return nil, ErrSetupCancelled
			}
			return nil, err
		}
	}
	return &cfg, nil
}

func (w *ConfigWizard) connectionStep(cfg *models.Config) error {
	w.showProgress("Snowflake Connection")

	sf := cfg.Snowflake
	questions := []*survey.Question{
		{
			Name: "account",
			Prompt: &survey.Input{
				Message: "Snowflake Account:",
				Default: sf.Account,
				Help:    "Your Snowflake account identifier (e.g., xy12345.us-east-1)",
			},
			Validate: survey.Required,
		},
		{
			Name: "username",
			Prompt: &survey.Input{
				Message: "Username:",
				Default: sf.Username,
			},
			Validate: survey.Required,
		},
		{
			Name: "authenticator",
			Prompt: &survey.Select{
				Message: "Authentication:",
				Options: []string{"snowflake", "externalbrowser"},
				Default: defaultString(sf.Authenticator, "snowflake"),
				Help:    "externalbrowser signs in through your identity provider",
			},
		},
		{
			Name: "role",
			Prompt: &survey.Input{
				Message: "Role:",
				Default: sf.Role,
				Help:    "Role with read access to the LABELME schema (optional)",
			},
		},
		{
			Name: "warehouse",
			Prompt: &survey.Input{
				Message: "Warehouse:",
				Default: defaultString(sf.Warehouse, "COMPUTE_WH"),
			},
			Validate: survey.Required,
		},
		{
			Name: "database",
			Prompt: &survey.Input{
				Message: "Database:",
				Default: defaultString(sf.Database, warehouse.DefaultDatabase),
			},
			Validate: survey.ComposeValidators(survey.Required, validateIdentifier),
		},
		{
			Name: "schema",
			Prompt: &survey.Input{
				Message: "Schema:",
				Default: defaultString(sf.Schema, warehouse.DefaultSchema),
			},
			Validate: survey.ComposeValidators(survey.Required, validateIdentifier),
		},
	}

	answers := connectionAnswers{}
	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	cfg.Snowflake.Account = strings.TrimSpace(answers.Account)
	cfg.Snowflake.Username = strings.TrimSpace(answers.Username)
	cfg.Snowflake.Authenticator = answers.Authenticator
	cfg.Snowflake.Role = strings.TrimSpace(answers.Role)
	cfg.Snowflake.Warehouse = strings.TrimSpace(answers.Warehouse)
	cfg.Snowflake.Database = strings.TrimSpace(answers.Database)
	cfg.Snowflake.Schema = strings.TrimSpace(answers.Schema)

	w.currentStep++
	return nil
}

func (w *ConfigWizard) credentialStep(cfg *models.Config) error {
	w.showProgress("Credentials")

	if config.PasswordlessAuth(cfg.Snowflake.Authenticator) {
		ShowInfo("No password needed for " + cfg.Snowflake.Authenticator + " authentication")
		cfg.Snowflake.Password = ""
		w.currentStep++
		return nil
	}

	var password string
	prompt := &survey.Password{
		Message: "Password:",
		Help:    "Stored in the system keyring, never in the config file",
	}
	if err := w.asker.AskOne(prompt, &password, survey.WithValidator(survey.Required)); err != nil {
		return err
	}
	cfg.Snowflake.Password = password

	w.currentStep++
	return nil
}

func (w *ConfigWizard) serverStep(cfg *models.Config) error {
	w.showProgress("Dashboard Settings")

	questions := []*survey.Question{
		{
			Name: "addr",
			Prompt: &survey.Input{
				Message: "Listen Address:",
				Default: defaultString(cfg.Server.Addr, ":8501"),
			},
			Validate: survey.Required,
		},
		{
			Name: "cache_ttl",
			Prompt: &survey.Input{
				Message: "Cache TTL:",
				Default: durationDefault(cfg.Cache.TTL, config.DefaultTTL),
				Help:    "How long query results are reused, e.g. 5m",
			},
			Validate: validateDuration,
		},
		{
			Name: "log_level",
			Prompt: &survey.Select{
				Message: "Log Level:",
				Options: []string{"debug", "info", "warn", "error"},
				Default: defaultString(cfg.Logging.Level, "info"),
			},
		},
	}

	answers := serverAnswers{}
	if err := w.asker.Ask(questions, &answers); err != nil {
		return err
	}

	ttl, err := time.ParseDuration(answers.CacheTTL)
	if err != nil {
		return fmt.Errorf("invalid cache TTL: %w", err)
	}
	cfg.Server.Addr = answers.Addr
	cfg.Cache.TTL = ttl
	cfg.Logging.Level = answers.LogLevel

	w.currentStep++
	return nil
}

func (w *ConfigWizard) reviewStep(cfg *models.Config) error {
	w.showProgress("Review Configuration")

	PrintSection("Configuration Summary")
	PrintKeyValue("Account", cfg.Snowflake.Account)
	PrintKeyValue("Username", cfg.Snowflake.Username)
	PrintKeyValue("Authenticator", cfg.Snowflake.Authenticator)
	PrintKeyValue("Warehouse", cfg.Snowflake.Warehouse)
	PrintKeyValue("Objects", cfg.Snowflake.Database+"."+cfg.Snowflake.Schema)
	PrintKeyValue("Listen Address", cfg.Server.Addr)
	PrintKeyValue("Cache TTL", cfg.Cache.TTL.String())

	confirm := false
	prompt := &survey.Confirm{
		Message: "Save this configuration?",
		Default: true,
	}
	if err := w.asker.AskOne(prompt, &confirm); err != nil {
		return err
	}
	if !confirm {
		return ErrSetupCancelled
	}

	w.currentStep++
	return nil
}

func (w *ConfigWizard) showProgress(step string) {
	fmt.Fprintf(out(), "\n%s [Step %d/%d] %s\n\n",
		ColorProgress("►"),
		w.currentStep,
		w.totalSteps,
		ColorBold(step),
	)
}

func validateIdentifier(val interface{}) error {
	s, _ := val.(string)
	if !warehouse.ValidIdentifier(strings.TrimSpace(s)) {
		return fmt.Errorf("%q is not a valid unquoted identifier", s)
	}
	return nil
}

func validateDuration(val interface{}) error {
	s, _ := val.(string)
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%q is not a duration (e.g. 5m, 30s)", s)
	}
	if d <= 0 {
		return errors.New("duration must be positive")
	}
	return nil
}

func defaultString(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}

func durationDefault(value, fallback time.Duration) string {
	if value > 0 {
		return value.String()
	}
	return fallback.String()
}
