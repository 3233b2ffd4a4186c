package tsdb_test

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/infrastructure/tsdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.TSDBConfig {
	return config.TSDBConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:8086",
		Token:   "lumina-dev-token",
		Org:     "lumina",
		Bucket:  "outcomes",
	}
}

// requireInfluxDB skips the test if no local InfluxDB is reachable.
func requireInfluxDB(t *testing.T) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", "127.0.0.1:8086", 500*time.Millisecond)
	if err != nil {
		t.Skip("InfluxDB not available, skipping integration test")
	}
	conn.Close()
}

func TestConnect(t *testing.T) {
	requireInfluxDB(t)

	client, err := tsdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := tsdb.Connect(cfg)
	if !errors.Is(err, tsdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectInvalidURL(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999" // Non-existent port

	if _, err := tsdb.Connect(cfg); err == nil {
		t.Fatal("Connect() should return error for unreachable server")
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var client *tsdb.Client

	// The pipeline holds a nil client when recording is disabled; every
	// write and lifecycle call must be a no-op.
	client.WriteDecision("alice", "turn_on", "light-salon", 0.9)
	client.WriteOutcome("light-salon", "turn_on", 0.8)
	client.WritePoint("custom", nil, map[string]interface{}{"v": 1.0})
	client.Flush()
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() on nil client = true")
	}
}

func TestWriteAndFlush(t *testing.T) {
	requireInfluxDB(t)

	client, err := tsdb.Connect(testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var writeErr error
	client.SetOnError(func(err error) { writeErr = err })

	client.WriteDecision("alice", "turn_on", "light-salon", 0.87)
	client.WriteOutcome("light-salon", "turn_on", 0.74)
	client.Flush()

	if writeErr != nil {
		t.Errorf("async write error: %v", writeErr)
	}
}
