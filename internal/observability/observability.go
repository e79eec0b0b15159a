package observability

import (
	"io"
	"os"
	"time"
)

// Config contains configuration for the observability system
type Config struct {
	LogLevel      string
	LogFormat     string // "json" or "text"
	LogOutput     io.Writer
	Service       string
	Version       string
	HealthTimeout time.Duration
}

// Observability bundles the logger, metrics and health checks of a process
type Observability struct {
	Logger  *Logger
	Metrics *Metrics
	Health  *HealthManager
}

// New builds the observability stack and installs its logger as the default
func New(config Config) *Observability {
	if config.LogOutput == nil {
		config.LogOutput = os.Stderr
	}
	if config.Service == "" {
		config.Service = "labelme"
	}
	if config.HealthTimeout <= 0 {
		config.HealthTimeout = 10 * time.Second
	}

	logger := NewLogger(LoggerConfig{
		Level:   LogLevelFromString(config.LogLevel),
		Output:  config.LogOutput,
		Format:  config.LogFormat,
		Service: config.Service,
		Version: config.Version,
	})
	SetDefaultLogger(logger)

	return &Observability{
		Logger:  logger,
		Metrics: NewMetrics(),
		Health:  NewHealthManager(config.HealthTimeout, logger),
	}
}
