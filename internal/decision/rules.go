package decision

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/luminahome/lumina-core/internal/intent"
)

// DefaultRules returns the built-in rule set used when no rules file is
// configured. The vocabulary matches the intent parser's.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "turn-on-lights",
			Condition: All(
				IntentTypeEquals(intent.TypeControl),
				EntityContainsAny("action", "allume", "active"),
			),
			Action:     "turn_on",
			Target:     "living_room_light",
			Parameters: map[string]any{},
			Priority:   1,
			Confidence: 0.9,
		},
		{
			Name: "turn-off-lights",
			Condition: All(
				IntentTypeEquals(intent.TypeControl),
				EntityContainsAny("action", "éteins", "désactive"),
			),
			Action:     "turn_off",
			Target:     "living_room_light",
			Parameters: map[string]any{},
			Priority:   1,
			Confidence: 0.9,
		},
		{
			Name:       "query-status",
			Condition:  IntentTypeEquals(intent.TypeQuery),
			Action:     "query_status",
			Target:     "all_devices",
			Parameters: map[string]any{},
			Priority:   2,
			Confidence: 0.8,
		},
		{
			Name: "scene-cinema",
			Condition: All(
				IntentTypeEquals(intent.TypeScene),
				EntityContainsAny("scene", "cinéma", "cinema"),
			),
			Action:     "activate_scene",
			Target:     "living_room",
			Parameters: map[string]any{"scene_name": "cinema"},
			Priority:   1,
			Confidence: 0.85,
		},
		{
			Name: "scene-reading",
			Condition: All(
				IntentTypeEquals(intent.TypeScene),
				EntityContainsAny("scene", "lecture", "reading"),
			),
			Action:     "activate_scene",
			Target:     "living_room",
			Parameters: map[string]any{"scene_name": "reading"},
			Priority:   1,
			Confidence: 0.85,
		},
		{
			Name:       "create-automation",
			Condition:  IntentTypeEquals(intent.TypeAutomation),
			Action:     "create_automation",
			Target:     "system",
			Parameters: map[string]any{},
			Priority:   3,
			Confidence: 0.7,
		},
		{
			Name:       "diagnose",
			Condition:  IntentTypeEquals(intent.TypeDiagnostic),
			Action:     "diagnose",
			Target:     "system",
			Parameters: map[string]any{},
			Priority:   4,
			Confidence: 0.6,
		},
	}
}

// rulesFile is the on-disk shape of a rules file.
type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads a YAML rules file.
//
// File format:
//
//	rules:
//	  - name: turn-on-lights
//	    action: turn_on
//	    target: living_room_light
//	    priority: 1
//	    confidence: 0.9
//	    condition:
//	      all:
//	        - intent_type: control
//	        - entity: {category: action, any: [allume, active]}
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("decision: reading rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decision: parsing rules file: %w", err)
	}

	for i, rule := range file.Rules {
		if rule.Action == "" {
			return nil, fmt.Errorf("decision: rule %d (%s) has no action", i, rule.Name)
		}
		if rule.Confidence < 0 || rule.Confidence > 1 {
			return nil, fmt.Errorf("decision: rule %d (%s) confidence %v outside [0,1]", i, rule.Name, rule.Confidence)
		}
	}

	return file.Rules, nil
}
