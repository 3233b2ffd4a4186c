package decision

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/luminahome/lumina-core/internal/intent"
	"github.com/luminahome/lumina-core/internal/situation"
)

// conditionKind tags the condition variants.
type conditionKind string

const (
	kindIntentType   conditionKind = "intent_type"
	kindEntityAny    conditionKind = "entity"
	kindContextField conditionKind = "context_field"
	kindAll          conditionKind = "all"
	kindAny          conditionKind = "any"
)

// Condition is a closed predicate AST over intents and context. Build
// values with the constructors; the zero value matches nothing.
type Condition struct {
	kind conditionKind

	intentType intent.Type
	entity     string
	values     []string
	field      string
	value      string
	children   []Condition
}

// IntentTypeEquals matches intents of exactly the given type.
func IntentTypeEquals(t intent.Type) Condition {
	return Condition{kind: kindIntentType, intentType: t}
}

// EntityContainsAny matches when the intent carries the entity category and
// at least one extracted value is in the expected set.
func EntityContainsAny(category string, values ...string) Condition {
	return Condition{kind: kindEntityAny, entity: category, values: values}
}

// ContextFieldEquals matches on a context field. Supported fields:
// "location", "time_of_day", "user_id".
func ContextFieldEquals(field, value string) Condition {
	return Condition{kind: kindContextField, field: field, value: value}
}

// All matches when every child condition matches.
func All(children ...Condition) Condition {
	return Condition{kind: kindAll, children: children}
}

// Any matches when at least one child condition matches.
func Any(children ...Condition) Condition {
	return Condition{kind: kindAny, children: children}
}

// Matches is the single interpreter over the condition AST.
func (c Condition) Matches(it intent.Intent, sctx situation.Context) bool {
	switch c.kind {
	case kindIntentType:
		return it.Type == c.intentType

	case kindEntityAny:
		extracted := it.EntityStrings(c.entity)
		if len(extracted) == 0 {
			return false
		}
		for _, expected := range c.values {
			for _, value := range extracted {
				if value == expected {
					return true
				}
			}
		}
		return false

	case kindContextField:
		return contextField(sctx, c.field) == c.value

	case kindAll:
		for _, child := range c.children {
			if !child.Matches(it, sctx) {
				return false
			}
		}
		return true

	case kindAny:
		for _, child := range c.children {
			if child.Matches(it, sctx) {
				return true
			}
		}
		return false

	default:
		return false
	}
}

// contextField resolves the fields addressable from rule conditions.
func contextField(sctx situation.Context, field string) string {
	switch field {
	case "location":
		return sctx.Location
	case "time_of_day":
		return sctx.TimeOfDay
	case "user_id":
		return sctx.UserID
	default:
		return ""
	}
}

// conditionYAML is the on-disk shape of a condition.
type conditionYAML struct {
	IntentType string `yaml:"intent_type"`
	Entity     *struct {
		Category string   `yaml:"category"`
		Any      []string `yaml:"any"`
	} `yaml:"entity"`
	ContextField *struct {
		Field  string `yaml:"field"`
		Equals string `yaml:"equals"`
	} `yaml:"context_field"`
	All []Condition `yaml:"all"`
	Any []Condition `yaml:"any"`
}

// UnmarshalYAML decodes a condition from a rules file. Exactly one variant
// key must be present per node.
func (c *Condition) UnmarshalYAML(node *yaml.Node) error {
	var raw conditionYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	variants := 0
	if raw.IntentType != "" {
		variants++
		*c = IntentTypeEquals(intent.Type(raw.IntentType))
	}
	if raw.Entity != nil {
		variants++
		*c = EntityContainsAny(raw.Entity.Category, raw.Entity.Any...)
	}
	if raw.ContextField != nil {
		variants++
		*c = ContextFieldEquals(raw.ContextField.Field, raw.ContextField.Equals)
	}
	if len(raw.All) > 0 {
		variants++
		*c = All(raw.All...)
	}
	if len(raw.Any) > 0 {
		variants++
		*c = Any(raw.Any...)
	}

	if variants != 1 {
		return fmt.Errorf("decision: condition must have exactly one variant key, got %d (line %d)", variants, node.Line)
	}
	return nil
}
