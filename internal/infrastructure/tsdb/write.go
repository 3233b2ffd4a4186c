package tsdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteDecision records an executed decision.
//
// The write is non-blocking; data is batched and sent asynchronously.
// A nil or disconnected client silently drops the point, so callers never
// need to guard outcome recording.
//
// Parameters:
//   - userID: Who triggered the decision ("anonymous" when unknown)
//   - action: Decision action (e.g. "turn_on")
//   - target: Device or group the action was applied to
//   - confidence: Final decision confidence
func (c *Client) WriteDecision(userID, action, target string, confidence float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"decisions",
		map[string]string{
			"user_id": userID,
			"action":  action,
			"target":  target,
		},
		map[string]interface{}{
			"confidence": confidence,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteOutcome records the evaluated quality of an executed decision.
//
// Parameters:
//   - target: Device or group the action was applied to
//   - action: The executed action
//   - quality: Quality score from outcome evaluation
func (c *Client) WriteOutcome(target, action string, quality float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"outcomes",
		map[string]string{
			"target": target,
			"action": action,
		},
		map[string]interface{}{
			"quality": quality,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
