package models

import "time"

type Config struct {
	Snowflake Snowflake `yaml:"snowflake" mapstructure:"snowflake"`
	Server    Server    `yaml:"server" mapstructure:"server"`
	Cache     Cache     `yaml:"cache" mapstructure:"cache"`
	Logging   Logging   `yaml:"logging" mapstructure:"logging"`
	Dashboard Dashboard `yaml:"dashboard" mapstructure:"dashboard"`
}

type Snowflake struct {
	Account       string        `yaml:"account" mapstructure:"account"`
	Username      string        `yaml:"username" mapstructure:"username"`
	Password      string        `yaml:"password,omitempty" mapstructure:"password"`
	Role          string        `yaml:"role" mapstructure:"role"`
	Warehouse     string        `yaml:"warehouse" mapstructure:"warehouse"`
	Database      string        `yaml:"database" mapstructure:"database"`
	Schema        string        `yaml:"schema" mapstructure:"schema"`
	Authenticator string        `yaml:"authenticator,omitempty" mapstructure:"authenticator"` // "snowflake" or "externalbrowser"
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`                        // per-query timeout
}

// Server configures the HTTP dashboard
type Server struct {
	Addr         string        `yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
}

// Cache configures the query result cache
type Cache struct {
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type Logging struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// Dashboard holds the static page metadata shown in the header, sidebar and footer
type Dashboard struct {
	Title   string `yaml:"title" mapstructure:"title"`
	Author  string `yaml:"author" mapstructure:"author"`
	Expires string `yaml:"expires" mapstructure:"expires"`
	Version string `yaml:"version" mapstructure:"version"`
}
