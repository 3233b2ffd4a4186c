package intent

import "time"

// Type classifies what the user is asking for.
type Type string

// Intent types, ordered by how often they occur in practice.
const (
	TypeControl    Type = "control"
	TypeQuery      Type = "query"
	TypeAutomation Type = "automation"
	TypeScene      Type = "scene"
	TypeRoutine    Type = "routine"
	TypeDiagnostic Type = "diagnostic"
)

// allTypes fixes the iteration order for scoring so classification is
// deterministic when scores tie.
var allTypes = []Type{
	TypeControl,
	TypeQuery,
	TypeAutomation,
	TypeScene,
	TypeRoutine,
	TypeDiagnostic,
}

// Intent is the structured result of parsing one piece of text.
// Treat it as immutable once created; Enrich returns a copy rather than
// mutating in place.
type Intent struct {
	Type       Type             `json:"type"`
	Text       string           `json:"text"`
	Confidence float64          `json:"confidence"`
	Entities   map[string]any   `json:"entities"`
	Timestamp  time.Time        `json:"timestamp"`
	UserID     string           `json:"user_id,omitempty"`
}

// EntityStrings returns the string values extracted for a category, or nil
// when the category is absent. Non-string categories (numeric, preferences)
// yield nil.
func (i Intent) EntityStrings(category string) []string {
	switch v := i.Entities[category].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// HasEntity reports whether a category was extracted.
func (i Intent) HasEntity(category string) bool {
	_, ok := i.Entities[category]
	return ok
}

// cloneEntities copies the entity map one level deep. Value slices are
// copied so the clone cannot alias the original's backing arrays.
func cloneEntities(entities map[string]any) map[string]any {
	out := make(map[string]any, len(entities))
	for k, v := range entities {
		switch vv := v.(type) {
		case []string:
			out[k] = append([]string(nil), vv...)
		case []int:
			out[k] = append([]int(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}

// Suggestion is a concrete follow-up action derived from an intent.
type Suggestion struct {
	Action      string         `json:"action"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Confidence  float64        `json:"confidence"`
}
