// Package tsdb provides InfluxDB connectivity for Lumina Core.
//
// It wraps the official influxdb-client-go v2 library for recording what the
// pipeline did: executed decisions, their confidence, and evaluated outcome
// quality. Recording is optional; when the tsdb section of config.yaml is
// disabled, Connect returns ErrDisabled and the pipeline simply skips
// recording.
//
// # Usage
//
//	client, err := tsdb.Connect(cfg.TSDB)
//	if err != nil && !errors.Is(err, tsdb.ErrDisabled) {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDecision("alice", "turn_on", "light-salon", 0.87)
//	client.WriteOutcome("light-salon", "turn_on", 0.74)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking; batch errors are delivered via the
// SetOnError callback. Connection and health check errors are returned
// directly.
package tsdb
