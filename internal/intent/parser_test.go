package intent

import (
	"testing"
)

func TestParseControlIntent(t *testing.T) {
	parser := NewParser(nil)

	it := parser.Parse("allume la lumière du salon", "user-1")

	if it.Type != TypeControl {
		t.Errorf("Type = %v, want %v", it.Type, TypeControl)
	}
	if it.Confidence < 0.1 {
		t.Errorf("Confidence = %v, want >= 0.1", it.Confidence)
	}

	actions := it.EntityStrings("action")
	if len(actions) != 1 || actions[0] != "allume" {
		t.Errorf("action entities = %v, want [allume]", actions)
	}

	devices := it.EntityStrings("device")
	if len(devices) != 2 || devices[0] != "lumière" || devices[1] != "salon" {
		t.Errorf("device entities = %v, want [lumière salon]", devices)
	}

	if it.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", it.UserID)
	}
}

func TestParseQueryIntent(t *testing.T) {
	parser := NewParser(nil)

	it := parser.Parse("quelle est la température du salon", "")

	if it.Type != TypeQuery {
		t.Errorf("Type = %v, want %v", it.Type, TypeQuery)
	}
}

func TestParseAutomationIntent(t *testing.T) {
	parser := NewParser(nil)

	it := parser.Parse("programme une routine pour le matin", "")

	if it.Type != TypeAutomation {
		t.Errorf("Type = %v, want %v", it.Type, TypeAutomation)
	}
}

func TestParseLowSignalFallsBackToControl(t *testing.T) {
	parser := NewParser(nil)

	it := parser.Parse("blah blah xyz", "")

	if it.Type != TypeControl {
		t.Errorf("Type = %v, want %v fallback", it.Type, TypeControl)
	}
	if it.Confidence != 0.1 {
		t.Errorf("Confidence = %v, want 0.1", it.Confidence)
	}
}

func TestParseControlKeywordsAlwaysYieldAction(t *testing.T) {
	texts := []string{
		"allume la lampe",
		"éteins la lumière de la cuisine",
		"active la prise du bureau",
		"désactive le capteur du jardin",
	}

	parser := NewParser(nil)
	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			it := parser.Parse(text, "")
			if it.Type != TypeControl {
				t.Errorf("Type = %v, want %v", it.Type, TypeControl)
			}
			if len(it.EntityStrings("action")) == 0 {
				t.Error("action entity missing")
			}
			if it.Confidence < 0.1 {
				t.Errorf("Confidence = %v, want >= 0.1", it.Confidence)
			}
		})
	}
}

func TestParseNumericAndUnits(t *testing.T) {
	parser := NewParser(nil)

	it := parser.Parse("règle le thermostat à 21 degrés", "")

	numbers, ok := it.Entities["numeric"].([]int)
	if !ok || len(numbers) != 1 || numbers[0] != 21 {
		t.Errorf("numeric = %v, want [21]", it.Entities["numeric"])
	}

	units, ok := it.Entities["units"].([]string)
	if !ok || len(units) != 1 || units[0] != "degrés" {
		t.Errorf("units = %v, want [degrés]", it.Entities["units"])
	}
}

func TestValidate(t *testing.T) {
	parser := NewParser(nil)

	tests := []struct {
		name string
		it   Intent
		want bool
	}{
		{
			name: "valid control",
			it: Intent{
				Type:       TypeControl,
				Text:       "allume la lampe",
				Confidence: 0.8,
				Entities:   map[string]any{"action": []string{"allume"}},
			},
			want: true,
		},
		{
			name: "empty text",
			it:   Intent{Type: TypeQuery, Text: "   ", Confidence: 0.8},
			want: false,
		},
		{
			name: "confidence below floor",
			it:   Intent{Type: TypeQuery, Text: "x", Confidence: 0.05},
			want: false,
		},
		{
			name: "control without action",
			it: Intent{
				Type:       TypeControl,
				Text:       "la lampe",
				Confidence: 0.5,
				Entities:   map[string]any{"device": []string{"lampe"}},
			},
			want: false,
		},
		{
			name: "query without action is fine",
			it:   Intent{Type: TypeQuery, Text: "quelle température", Confidence: 0.5},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parser.Validate(tt.it); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnrichDoesNotMutateOriginal(t *testing.T) {
	parser := NewParser(nil)

	original := parser.Parse("allume la lumière du salon", "")
	enriched := parser.Enrich(original, map[string]any{
		"user_id":     "user-1",
		"location":    "salon",
		"preferences": map[string]any{"auto_optimization": true},
	})

	if original.HasEntity("user") {
		t.Error("original intent gained a user entity")
	}
	if got := enriched.EntityStrings("user"); len(got) != 1 || got[0] != "user-1" {
		t.Errorf("enriched user = %v, want [user-1]", got)
	}
	if got := enriched.EntityStrings("location"); len(got) != 1 || got[0] != "salon" {
		t.Errorf("enriched location = %v, want [salon]", got)
	}
	if !enriched.HasEntity("preferences") {
		t.Error("enriched intent missing preferences")
	}
}

func TestSuggestedActions(t *testing.T) {
	parser := NewParser(nil)

	it := parser.Parse("allume la lumière du salon", "")
	suggestions := parser.SuggestedActions(it)
	if len(suggestions) != 1 {
		t.Fatalf("len(suggestions) = %d, want 1", len(suggestions))
	}
	if suggestions[0].Action != "turn_on" {
		t.Errorf("Action = %q, want turn_on", suggestions[0].Action)
	}

	it = parser.Parse("éteins la lampe", "")
	suggestions = parser.SuggestedActions(it)
	if len(suggestions) != 1 || suggestions[0].Action != "turn_off" {
		t.Errorf("suggestions = %+v, want one turn_off", suggestions)
	}

	it = parser.Parse("quel est l'état du capteur", "")
	suggestions = parser.SuggestedActions(it)
	if len(suggestions) != 1 || suggestions[0].Action != "query_status" {
		t.Errorf("suggestions = %+v, want one query_status", suggestions)
	}
}
