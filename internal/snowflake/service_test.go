package snowflake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelme/internal/observability"
	apperrors "labelme/pkg/errors"
	"labelme/pkg/models"
)

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	service := NewServiceWithDB(db, Config{Timeout: 5 * time.Second}, observability.NewNopLogger())
	return service, mock
}

func TestNewService(t *testing.T) {
	config := Config{
		Account:   "test123.us-east-1",
		Username:  "testuser",
		Password:  "testpass",
		Database:  "SNOWFLAKE_EXAMPLE",
		Schema:    "LABELME",
		Warehouse: "SFE_LABELME_WH",
		Role:      "SYSADMIN",
		Timeout:   30 * time.Second,
	}

	service := NewService(config, nil)

	assert.NotNil(t, service)
	assert.Equal(t, config, service.config)
	assert.False(t, service.Connected())
}

func TestConfigFromModel(t *testing.T) {
	m := models.Snowflake{
		Account:       "acct",
		Username:      "user",
		Password:      "secret",
		Role:          "ANALYST",
		Warehouse:     "WH",
		Database:      "DB",
		Schema:        "SCH",
		Authenticator: "externalbrowser",
		Timeout:       10 * time.Second,
	}

	config := ConfigFromModel(m)
	assert.Equal(t, Config{
		Account:       "acct",
		Username:      "user",
		Password:      "secret",
		Database:      "DB",
		Schema:        "SCH",
		Warehouse:     "WH",
		Role:          "ANALYST",
		Authenticator: "externalbrowser",
		Timeout:       10 * time.Second,
	}, config)
}

func TestDSN(t *testing.T) {
	service := NewService(Config{
		Account:   "test123.us-east-1",
		Username:  "testuser",
		Password:  "testpass",
		Database:  "SNOWFLAKE_EXAMPLE",
		Schema:    "LABELME",
		Warehouse: "SFE_LABELME_WH",
		Role:      "SYSADMIN",
	}, observability.NewNopLogger())

	dsn, err := service.DSN()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dsn, "testuser:testpass@test123.us-east-1"), dsn)
	assert.Contains(t, dsn, "database=SNOWFLAKE_EXAMPLE")
	assert.Contains(t, dsn, "schema=LABELME")
	assert.Contains(t, dsn, "warehouse=SFE_LABELME_WH")
	assert.Contains(t, dsn, "role=SYSADMIN")
	assert.Contains(t, dsn, "application=labelme-dashboard")
}

func TestDSNMissingAccount(t *testing.T) {
	service := NewService(Config{Username: "user", Password: "pass"}, observability.NewNopLogger())
	_, err := service.DSN()
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConfigInvalid, apperrors.GetErrorCode(err))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		errorMsg string
	}{
		{
			name: "valid config",
			config: Config{
				Account:   "test123.us-east-1",
				Username:  "testuser",
				Password:  "testpass",
				Warehouse: "TEST_WH",
			},
		},
		{
			name:     "missing account",
			config:   Config{Username: "testuser", Password: "testpass", Warehouse: "TEST_WH"},
			errorMsg: "account is required",
		},
		{
			name:     "missing username",
			config:   Config{Account: "acct", Password: "testpass", Warehouse: "TEST_WH"},
			errorMsg: "username is required",
		},
		{
			name:     "missing password",
			config:   Config{Account: "acct", Username: "testuser", Warehouse: "TEST_WH"},
			errorMsg: "password is required",
		},
		{
			name: "external browser needs no password",
			config: Config{
				Account:       "acct",
				Username:      "testuser",
				Warehouse:     "TEST_WH",
				Authenticator: "externalbrowser",
			},
		},
		{
			name:     "missing warehouse",
			config:   Config{Account: "acct", Username: "testuser", Password: "testpass"},
			errorMsg: "warehouse is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(tt.config)
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestQuery(t *testing.T) {
	service, mock := newMockService(t)
	metricDate := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT metric_date, platform, streams FROM trends").
		WillReturnRows(sqlmock.NewRows([]string{"METRIC_DATE", "PLATFORM", "STREAMS"}).
			AddRow(metricDate, []byte("Spotify"), "700").
			AddRow(metricDate, "Apple Music", nil))

	table, err := service.Query(context.Background(), "streaming_trends", "SELECT metric_date, platform, streams FROM trends")
	require.NoError(t, err)

	assert.Equal(t, "streaming_trends", table.Name)
	assert.Equal(t, []string{"METRIC_DATE", "PLATFORM", "STREAMS"}, table.Columns)
	require.Equal(t, 2, table.Len())
	assert.False(t, table.FetchedAt.IsZero())

	platform, ok := table.Row(0).String("platform")
	require.True(t, ok)
	assert.Equal(t, "Spotify", platform)

	streams, ok := table.Row(0).Float("STREAMS")
	require.True(t, ok)
	assert.Equal(t, 700.0, streams)

	_, ok = table.Row(1).Float("STREAMS")
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryEmptyResult(t *testing.T) {
	service, mock := newMockService(t)
	mock.ExpectQuery("SELECT * FROM alerts").
		WillReturnRows(sqlmock.NewRows([]string{"ARTIST_NAME"}))

	table, err := service.Query(context.Background(), "contract_alerts", "SELECT * FROM alerts")
	require.NoError(t, err)
	assert.True(t, table.Empty())
	assert.Equal(t, []string{"ARTIST_NAME"}, table.Columns)
}

func TestQueryNotConnected(t *testing.T) {
	service := NewService(Config{}, observability.NewNopLogger())
	_, err := service.Query(context.Background(), "quality_scorecard", "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeConnectionFailed, apperrors.GetErrorCode(err))
}

func TestQueryErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code apperrors.ErrorCode
	}{
		{
			name: "generic failure",
			err:  errors.New("network unreachable"),
			code: apperrors.ErrCodeDataAccess,
		},
		{
			name: "missing object by message",
			err:  errors.New("Object 'V_CATALOG_HEALTH' does not exist or not authorized."),
			code: apperrors.ErrCodeSQLObjectNotFound,
		},
		{
			name: "missing object by error number",
			err:  &gosnowflake.SnowflakeError{Number: 2003, Message: "SQL compilation error", QueryID: "01ab"},
			code: apperrors.ErrCodeSQLObjectNotFound,
		},
		{
			name: "permission",
			err:  errors.New("Insufficient privileges to operate on view"),
			code: apperrors.ErrCodeSQLPermission,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, mock := newMockService(t)
			mock.ExpectQuery("SELECT * FROM V_CATALOG_HEALTH").WillReturnError(tt.err)

			_, err := service.Query(context.Background(), "catalog_health", "SELECT * FROM V_CATALOG_HEALTH")
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.GetErrorCode(err))
			assert.ErrorIs(t, err, tt.err)

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "catalog_health", appErr.Context["query"])
		})
	}
}

func TestVersion(t *testing.T) {
	service, mock := newMockService(t)
	mock.ExpectQuery(ProbeQuery).
		WillReturnRows(sqlmock.NewRows([]string{"CURRENT_VERSION()"}).AddRow("8.12.1"))

	version, err := service.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.12.1", version)

	mock.ExpectQuery(ProbeQuery).
		WillReturnRows(sqlmock.NewRows([]string{"CURRENT_VERSION()"}))
	_, err = service.Version(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsEmptyResult(err))
}

func TestClose(t *testing.T) {
	service, mock := newMockService(t)
	mock.ExpectClose()

	require.NoError(t, service.Close())
	assert.False(t, service.Connected())
	assert.NoError(t, service.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
