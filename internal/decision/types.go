package decision

import "time"

// Decision is the engine's output: what to do, where, and how sure it is.
type Decision struct {
	// ID correlates a decision with its logged execution and outcome.
	ID string `json:"id"`

	Action       string         `json:"action"`
	Target       string         `json:"target"`
	Parameters   map[string]any `json:"parameters"`
	Confidence   float64        `json:"confidence"`
	Reasoning    string         `json:"reasoning"`
	Alternatives []Alternative  `json:"alternatives"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Alternative is a competing decision that lost the rule selection.
type Alternative struct {
	Action     string         `json:"action"`
	Target     string         `json:"target"`
	Parameters map[string]any `json:"parameters"`
	Confidence float64        `json:"confidence"`
	Reasoning  string         `json:"reasoning"`
}

// Rule pairs a condition with the action to take when it matches.
// Rules are static, loaded at startup.
type Rule struct {
	Name       string         `yaml:"name"`
	Condition  Condition      `yaml:"condition"`
	Action     string         `yaml:"action"`
	Target     string         `yaml:"target"`
	Parameters map[string]any `yaml:"parameters"`

	// Priority selects among matching rules: the larger number wins.
	Priority int `yaml:"priority"`

	// Confidence is the rule's base weight before factor scaling.
	Confidence float64 `yaml:"confidence"`
}

// Outcome describes what happened after a decision was executed.
type Outcome struct {
	Success          bool    `json:"success"`
	UserSatisfaction float64 `json:"user_satisfaction"`
	Efficiency       float64 `json:"efficiency"`
	EnergySaved      float64 `json:"energy_saved"`
}
