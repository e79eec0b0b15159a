package snowflake

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/snowflakedb/gosnowflake"

	"labelme/internal/observability"
	"labelme/pkg/errors"
	"labelme/pkg/models"
)

// ProbeQuery is issued when a session is opened and by health checks
const ProbeQuery = "SELECT CURRENT_VERSION()"

// errObjectNotFound is the Snowflake error number for a missing or
// unauthorized table or view
const errObjectNotFound = 2003

// Service provides read-only Snowflake queries
type Service struct {
	mu        sync.RWMutex
	db        *sql.DB
	config    Config
	connected bool
	logger    *observability.Logger
}

// Config holds Snowflake connection configuration
type Config struct {
	Account       string
	Username      string
	Password      string
	Database      string
	Schema        string
	Warehouse     string
	Role          string
	Authenticator string
	Timeout       time.Duration
}

// ConfigFromModel converts the file configuration into a connection Config
func ConfigFromModel(m models.Snowflake) Config {
	return Config{
		Account:       m.Account,
		Username:      m.Username,
		Password:      m.Password,
		Database:      m.Database,
		Schema:        m.Schema,
		Warehouse:     m.Warehouse,
		Role:          m.Role,
		Authenticator: m.Authenticator,
		Timeout:       m.Timeout,
	}
}

// NewService creates a new Snowflake service
func NewService(config Config, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.GetDefaultLogger()
	}
	return &Service{
		config: config,
		logger: logger.WithField("component", "snowflake"),
	}
}

// NewServiceWithDB wraps an already open database handle. The service is
// considered connected.
func NewServiceWithDB(db *sql.DB, config Config, logger *observability.Logger) *Service {
	s := NewService(config, logger)
	s.db = db
	s.connected = true
	return s
}

// DSN builds the gosnowflake data source name for the configuration
func (s *Service) DSN() (string, error) {
	cfg := &gosnowflake.Config{
		Account:     s.config.Account,
		User:        s.config.Username,
		Password:    s.config.Password,
		Database:    s.config.Database,
		Schema:      s.config.Schema,
		Warehouse:   s.config.Warehouse,
		Role:        s.config.Role,
		Application: "labelme-dashboard",
	}
	if strings.EqualFold(s.config.Authenticator, "externalbrowser") {
		cfg.Authenticator = gosnowflake.AuthTypeExternalBrowser
	}
	if s.config.Timeout > 0 {
		cfg.LoginTimeout = s.config.Timeout
	}

	dsn, err := gosnowflake.DSN(cfg)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeConfigInvalid, "invalid Snowflake configuration").
			WithContext("account", s.config.Account)
	}
	return dsn, nil
}

// Connect opens the warehouse session and verifies it with the probe query
func (s *Service) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.connected {
		return nil
	}

	dsn, err := s.DSN()
	if err != nil {
		return err
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return errors.ConnectionError("Failed to open Snowflake connection", err).
			WithContext("account", s.config.Account).
			WithContext("warehouse", s.config.Warehouse)
	}

	db.SetMaxOpenConns(6)
	db.SetMaxIdleConns(6)
	db.SetConnMaxLifetime(10 * time.Minute)

	connCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var version string
	if err := db.QueryRowContext(connCtx, ProbeQuery).Scan(&version); err != nil {
		db.Close()

		if strings.Contains(strings.ToLower(err.Error()), "authentication") {
			return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
				WithContext("user", s.config.Username).
				WithSuggestions(
					"Verify your username and password",
					"Check if your account is locked",
				)
		}

		return errors.ConnectionError("Failed to connect to Snowflake", err).
			WithContext("account", s.config.Account).
			AsRecoverable()
	}

	s.db = db
	s.connected = true
	s.logger.InfoWithFields("Warehouse session opened", map[string]interface{}{
		"account":   s.config.Account,
		"warehouse": s.config.Warehouse,
		"version":   version,
	})
	return nil
}

// Close closes the database connection
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return nil
	}

	s.connected = false
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

// Connected reports whether a session is open
func (s *Service) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Query runs a read-only statement and materializes the full result set.
// name identifies the query in errors and logs.
func (s *Service) Query(ctx context.Context, name, query string) (*Table, error) {
	s.mu.RLock()
	db, connected := s.db, s.connected
	s.mu.RUnlock()

	if !connected {
		return nil, errors.NotConnected().WithContext("query", name)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.queryError(name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to read result columns").
			WithContext("query", name)
	}

	table := &Table{Name: name, Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		valuePtrs := make([]interface{}, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultParsing, "failed to scan result row").
				WithContext("query", name)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, s.queryError(name, err)
	}

	table.FetchedAt = time.Now()
	s.logger.DebugWithFields("Query completed", map[string]interface{}{
		"query":       name,
		"rows":        table.Len(),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return table, nil
}

// Version runs the probe query and returns the warehouse version
func (s *Service) Version(ctx context.Context) (string, error) {
	table, err := s.Query(ctx, "probe", ProbeQuery)
	if err != nil {
		return "", err
	}
	if table.Empty() || len(table.Columns) == 0 {
		return "", errors.EmptyResult("probe")
	}
	return FormatValue(table.Rows[0][0]), nil
}

func (s *Service) queryError(name string, err error) error {
	appErr := errors.DataAccessError(name, err)

	var sfErr *gosnowflake.SnowflakeError
	if stderrors.As(err, &sfErr) {
		_ = appErr.WithContext("snowflake_error", sfErr.Number).
			WithContext("query_id", sfErr.QueryID)
		if sfErr.Number == errObjectNotFound {
			appErr.Code = errors.ErrCodeSQLObjectNotFound
		}
	}

	s.logger.ErrorWithFields("Query failed", map[string]interface{}{
		"query": name,
		"code":  string(appErr.Code),
		"error": err.Error(),
	})
	return appErr
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// ValidateConfig validates the Snowflake configuration
func ValidateConfig(config Config) error {
	if config.Account == "" {
		return fmt.Errorf("account is required")
	}
	if config.Username == "" {
		return fmt.Errorf("username is required")
	}
	if config.Password == "" && !strings.EqualFold(config.Authenticator, "externalbrowser") {
		return fmt.Errorf("password is required")
	}
	if config.Warehouse == "" {
		return fmt.Errorf("warehouse is required")
	}
	return nil
}
