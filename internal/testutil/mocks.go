package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"labelme/internal/snowflake"
	"labelme/pkg/models"
)

// MockQuerier serves canned tables by query id and records every call
type MockQuerier struct {
	mu sync.Mutex

	Results map[string]*snowflake.Table
	Errors  map[string]error
	Delay   time.Duration

	Calls []string
}

// NewMockQuerier returns a querier loaded with the default fixtures
func NewMockQuerier() *MockQuerier {
	return &MockQuerier{
		Results: Fixtures(),
		Errors:  make(map[string]error),
	}
}

// Query implements warehouse.Querier
func (m *MockQuerier) Query(ctx context.Context, name, query string) (*snowflake.Table, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, name)
	delay := m.Delay
	err := m.Errors[name]
	table, ok := m.Results[name]
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no fixture for query %s", name)
	}
	return table, nil
}

// SetResult replaces the table returned for a query id
func (m *MockQuerier) SetResult(name string, table *snowflake.Table) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Results[name] = table
}

// SetError makes a query id fail
func (m *MockQuerier) SetError(name string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[name] = err
}

// CallCount returns how many times a query id was issued
func (m *MockQuerier) CallCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == name {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of queries issued
func (m *MockQuerier) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// TestConfig returns a sample configuration for testing
func TestConfig() *models.Config {
	return &models.Config{
		Snowflake: models.Snowflake{
			Account:   "test123.us-east-1",
			Username:  "testuser",
			Password:  "testpass",
			Role:      "TESTROLE",
			Warehouse: "TEST_WH",
			Database:  "SNOWFLAKE_EXAMPLE",
			Schema:    "LABELME",
			Timeout:   5 * time.Second,
		},
		Server: models.Server{
			Addr:         "127.0.0.1:0",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Cache:   models.Cache{TTL: time.Minute},
		Logging: models.Logging{Level: "error", Format: "json"},
		Dashboard: models.Dashboard{
			Title:   "LabelMe Data Quality Dashboard",
			Author:  "SE Community",
			Expires: "2026-01-16",
			Version: "1.0.0",
		},
	}
}
