package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"labelme/pkg/errors"
	"labelme/pkg/models"
)

const (
	// EnvConfigFile overrides the config file location
	EnvConfigFile = "LABELME_CONFIG"
	// EnvPrefix is the prefix for environment overrides, e.g. LABELME_SNOWFLAKE_ACCOUNT
	EnvPrefix = "LABELME"
	// KeyringService is the OS keyring service holding warehouse passwords
	KeyringService = "labelme"

	DefaultTTL = 5 * time.Minute
)

func GetConfigPath() string {
	if configPath := os.Getenv(EnvConfigFile); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".labelme")
}

func GetConfigFile() string {
	if configFile := os.Getenv(EnvConfigFile); configFile != "" {
		cleaned, err := cleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	// Empty defaults make the keys visible to AutomaticEnv during Unmarshal
	for _, key := range []string{"account", "username", "password", "role", "warehouse"} {
		v.SetDefault("snowflake."+key, "")
	}
	v.SetDefault("snowflake.database", "SNOWFLAKE_EXAMPLE")
	v.SetDefault("snowflake.schema", "LABELME")
	v.SetDefault("snowflake.authenticator", "snowflake")
	v.SetDefault("snowflake.timeout", 30*time.Second)

	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("cache.ttl", DefaultTTL)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("dashboard.title", "LabelMe Data Quality Dashboard")
	v.SetDefault("dashboard.author", "SE Community")
	v.SetDefault("dashboard.expires", "2026-01-16")
	v.SetDefault("dashboard.version", "1.0.0")
}

// Init prepares v to read config.yaml from the working directory, the user
// config directory or an explicit file, with LABELME_* environment overrides.
func Init(v *viper.Viper, explicitFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Only a file named on the command line must exist
	required := explicitFile != ""
	if !required {
		explicitFile = os.Getenv(EnvConfigFile)
	}
	if explicitFile != "" {
		cleaned, err := cleanPath(explicitFile)
		if err != nil {
			return errors.ConfigError(fmt.Sprintf("invalid config file path: %v", err), "config")
		}
		v.SetConfigFile(cleaned)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(GetConfigPath())
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, everything can come from the environment
		var notFound viper.ConfigFileNotFoundError
		if !required && (stderrors.As(err, &notFound) || os.IsNotExist(err)) {
			return nil
		}
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithContext("file", v.ConfigFileUsed())
	}
	return nil
}

// Load decodes the configuration held by v
func Load(v *viper.Viper) (*models.Config, error) {
	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to decode configuration")
	}
	if cfg.Cache.TTL <= 0 {
		cfg.Cache.TTL = DefaultTTL
	}
	return &cfg, nil
}

// Validate checks the fields required to open a warehouse session
func Validate(cfg *models.Config) error {
	sf := cfg.Snowflake
	if sf.Account == "" {
		return errors.ConfigError("account is required", "snowflake.account")
	}
	if sf.Username == "" {
		return errors.ConfigError("username is required", "snowflake.username")
	}
	if sf.Warehouse == "" {
		return errors.ConfigError("warehouse is required", "snowflake.warehouse")
	}
	if sf.Password == "" && !PasswordlessAuth(sf.Authenticator) {
		return errors.ConfigError("password is required", "snowflake.password")
	}
	return nil
}

// PasswordlessAuth reports whether the authenticator does not need a password
func PasswordlessAuth(authenticator string) bool {
	switch strings.ToLower(authenticator) {
	case "externalbrowser":
		return true
	}
	return false
}

// KeyringUser is the keyring account name for a Snowflake login
func KeyringUser(sf models.Snowflake) string {
	return strings.ToLower(sf.Account) + "/" + strings.ToLower(sf.Username)
}

// ResolvePassword fills an empty password from the OS keyring. A missing
// keyring entry is not an error; Validate reports it instead.
func ResolvePassword(cfg *models.Config) error {
	if cfg.Snowflake.Password != "" || PasswordlessAuth(cfg.Snowflake.Authenticator) {
		return nil
	}
	if cfg.Snowflake.Account == "" || cfg.Snowflake.Username == "" {
		return nil
	}

	secret, err := keyring.Get(KeyringService, KeyringUser(cfg.Snowflake))
	if err == keyring.ErrNotFound {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigMissing, "failed to read password from keyring")
	}
	cfg.Snowflake.Password = secret
	return nil
}

// StorePassword saves the Snowflake password in the OS keyring
func StorePassword(sf models.Snowflake) error {
	if err := keyring.Set(KeyringService, KeyringUser(sf), sf.Password); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to store password in keyring")
	}
	return nil
}

// Save writes cfg to the config file. The password is never written to disk.
func Save(cfg *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, dirPermission); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	out := *cfg
	out.Snowflake.Password = ""

	data, err := yaml.Marshal(&out)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, filePermission); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}
