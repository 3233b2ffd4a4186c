package situation

import (
	"encoding/json"
	"time"
)

// Source names, in priority order.
const (
	SourceUserProfile  = "user_profile"
	SourceDeviceStates = "device_states"
	SourceEnvironment  = "environment"
	SourceWeather      = "weather"
	SourceTime         = "time"
	SourceHistory      = "history"
)

// maxRecentActions caps the action history carried in a context.
const maxRecentActions = 10

// Source describes one context data source.
type Source struct {
	Name     string
	Priority int
	CacheTTL time.Duration
	Enabled  bool
}

// defaultSources returns the six standard sources in priority order.
func defaultSources() []Source {
	return []Source{
		{Name: SourceUserProfile, Priority: 1, CacheTTL: 3600 * time.Second, Enabled: true},
		{Name: SourceDeviceStates, Priority: 2, CacheTTL: 30 * time.Second, Enabled: true},
		{Name: SourceEnvironment, Priority: 3, CacheTTL: 300 * time.Second, Enabled: true},
		{Name: SourceWeather, Priority: 4, CacheTTL: 1800 * time.Second, Enabled: true},
		{Name: SourceTime, Priority: 5, CacheTTL: 60 * time.Second, Enabled: true},
		{Name: SourceHistory, Priority: 6, CacheTTL: 900 * time.Second, Enabled: true},
	}
}

// Action is one entry in the recent-action history. It stays free-form
// because actions originate from several layers with different shapes.
type Action map[string]any

// Context is a merged snapshot of situational data. Treat it as immutable;
// UpdateContext returns a new value instead of mutating.
type Context struct {
	UserID          string         `json:"user_id,omitempty"`
	Location        string         `json:"location,omitempty"`
	TimeOfDay       string         `json:"time_of_day,omitempty"`
	Weather         map[string]any `json:"weather,omitempty"`
	DeviceStates    map[string]any `json:"device_states"`
	UserPreferences map[string]any `json:"user_preferences"`
	RecentActions   []Action       `json:"recent_actions"`
	Timestamp       time.Time      `json:"timestamp"`
}

// Updates carries partial changes for UpdateContext. Zero-value fields
// leave the corresponding context field untouched; map fields merge
// shallowly; RecentActions appends.
type Updates struct {
	UserID          string
	Location        string
	TimeOfDay       string
	Weather         map[string]any
	DeviceStates    map[string]any
	UserPreferences map[string]any
	RecentActions   []Action
}

// copyMap shallow-copies a string-keyed map, tolerating nil.
func copyMap(src map[string]any) map[string]any {
	out := make(map[string]any, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

// toActions normalises a cached or fetched recent_actions value, which may
// arrive as []Action directly or as []any after a JSON round trip.
func toActions(value any) []Action {
	switch v := value.(type) {
	case []Action:
		return append([]Action(nil), v...)
	case []any:
		out := make([]Action, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Action(m))
			}
		}
		return out
	default:
		return nil
	}
}

// encodeJSONMap marshals source data for the shared cache.
func encodeJSONMap(data map[string]any) (string, bool) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

// decodeJSONMap parses a shared cache entry, returning nil for anything
// that is not a JSON object.
func decodeJSONMap(raw string) map[string]any {
	var data map[string]any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil
	}
	return data
}
