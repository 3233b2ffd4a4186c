package intent

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Scoring weights for intent classification.
const (
	patternWeight = 0.3
	keywordWeight = 0.2

	// minConfidence is the floor below which classification falls back to
	// CONTROL rather than reporting a winner.
	minConfidence = 0.1
)

// typePatterns maps each intent type to its detection patterns.
var typePatterns = map[Type][]*regexp.Regexp{
	TypeControl: {
		regexp.MustCompile(`(?i)(allume|éteins|active|désactive|mets|change|règle|ajuste)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(lumière|lampe|éclairage|interrupteur)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(augmente|diminue|monte|descends)\s+(.+?)(\s|$)`),
	},
	TypeQuery: {
		regexp.MustCompile(`(?i)(combien|quelle|quel|quelles|quels|état|statut|valeur)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(température|humidité|luminosité|pression)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(est-ce que|est ce que|est-ce|est ce)\s+(.+?)(\s|\?)`),
	},
	TypeScene: {
		regexp.MustCompile(`(?i)(scène|mode|ambiance|atmosphère)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(cinéma|lecture|dîner|romantique|travail|relax)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(mets|active|lance)\s+(.+?)(\s|$)`),
	},
	TypeAutomation: {
		regexp.MustCompile(`(?i)(quand|si|lorsque|dès que)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(automatise|programme|planifie)\s+(.+?)(\s|$)`),
		regexp.MustCompile(`(?i)(routine|automatisation|scénario)\s+(.+?)(\s|$)`),
	},
}

// typeKeywords maps each intent type to keywords whose presence raises its
// score. Cheaper than patterns, catches texts the patterns miss.
var typeKeywords = map[Type][]string{
	TypeControl:    {"allume", "éteins", "active", "désactive", "mets", "change"},
	TypeQuery:      {"combien", "quelle", "quel", "état", "statut", "valeur"},
	TypeScene:      {"scène", "mode", "ambiance", "atmosphère", "cinéma"},
	TypeAutomation: {"quand", "si", "automatise", "programme", "routine"},
	TypeRoutine:    {"routine", "habitude", "quotidien", "matin", "soir"},
	TypeDiagnostic: {"problème", "erreur", "ne marche pas", "dysfonctionne"},
}

// entityPatterns defines the fixed extraction categories.
var entityPatterns = map[string][]*regexp.Regexp{
	"device": {
		regexp.MustCompile(`(?i)(lumière|lampe|éclairage|interrupteur|prise|capteur|thermostat)`),
		regexp.MustCompile(`(?i)(salon|cuisine|chambre|salle de bain|bureau|couloir|jardin)`),
	},
	"action": {
		regexp.MustCompile(`(?i)(allume|éteins|active|désactive|mets|change)`),
		regexp.MustCompile(`(?i)(augmente|diminue|monte|descends|règle|ajuste)`),
	},
	"value": {
		regexp.MustCompile(`(?i)(\d+)\s*(pourcent|%|degrés|°C|°F|lux|hPa)`),
		regexp.MustCompile(`(?i)(chaud|froid|clair|sombre|fort|faible|haut|bas)`),
	},
	"time": {
		regexp.MustCompile(`(?i)(maintenant|tout de suite|immédiatement|plus tard)`),
		regexp.MustCompile(`(?i)(dans\s+\d+\s+(minutes|heures|jours))`),
		regexp.MustCompile(`(?i)(à\s+\d+\s*h\s*\d*)`),
	},
}

// entityCategories fixes the extraction order so entity maps are built
// deterministically.
var entityCategories = []string{"device", "action", "value", "time"}

var (
	numericPattern = regexp.MustCompile(`\b\d+\b`)
	unitsPattern   = regexp.MustCompile(`(?i)(pourcent|%|degrés|°C|°F|lux|hPa)`)
)

// Logger is the narrow logging interface used by the parser.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// Parser classifies text into intents and extracts entities.
// Stateless after construction and safe for concurrent use.
type Parser struct {
	logger Logger
}

// NewParser creates an intent parser. logger may be nil.
func NewParser(logger Logger) *Parser {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Parser{logger: logger}
}

// Parse analyses text and returns the detected intent.
//
// Parameters:
//   - text: The raw user text (any case, any surrounding whitespace)
//   - userID: The requesting user, or "" when anonymous
//
// Returns:
//   - Intent: always populated; low-signal text yields a CONTROL intent
//     with confidence 0.1 rather than an error
func (p *Parser) Parse(text, userID string) Intent {
	normalised := strings.ToLower(strings.TrimSpace(text))

	intentType, confidence := classify(normalised)
	entities := extractEntities(normalised)

	p.logger.Debug("intent parsed", "type", string(intentType), "confidence", confidence)

	return Intent{
		Type:       intentType,
		Text:       text,
		Confidence: confidence,
		Entities:   entities,
		Timestamp:  time.Now().UTC(),
		UserID:     userID,
	}
}

// Validate reports whether an intent is usable downstream.
//
// Rejects empty text, confidence below the floor, and CONTROL intents
// lacking an action entity (nothing to execute).
func (p *Parser) Validate(it Intent) bool {
	if strings.TrimSpace(it.Text) == "" {
		return false
	}
	if it.Confidence < minConfidence {
		return false
	}
	if it.Type == TypeControl && !it.HasEntity("action") {
		return false
	}
	return true
}

// Enrich returns a copy of the intent whose entities are extended with
// caller-supplied context fields. The original intent is not mutated.
//
// Recognised context keys: "user_id", "location", "preferences".
func (p *Parser) Enrich(it Intent, context map[string]any) Intent {
	enriched := it
	enriched.Entities = cloneEntities(it.Entities)

	if userID, ok := context["user_id"].(string); ok && userID != "" {
		enriched.Entities["user"] = []string{userID}
	}
	if location, ok := context["location"].(string); ok && location != "" {
		enriched.Entities["location"] = []string{location}
	}
	if prefs, ok := context["preferences"]; ok {
		enriched.Entities["preferences"] = prefs
	}

	return enriched
}

// SuggestedActions maps an intent to concrete follow-up actions.
//
// CONTROL on/off verbs become turn_on/turn_off suggestions, QUERY intents
// suggest a status query, and SCENE intents suggest activating each named
// scene. Other types yield no suggestions.
func (p *Parser) SuggestedActions(it Intent) []Suggestion {
	var suggestions []Suggestion

	switch it.Type {
	case TypeControl:
		device := "l'appareil"
		if devices := it.EntityStrings("device"); len(devices) > 0 {
			device = devices[0]
		}
		for _, action := range it.EntityStrings("action") {
			switch action {
			case "allume", "active":
				suggestions = append(suggestions, Suggestion{
					Action:      "turn_on",
					Description: "Allumer " + device,
					Confidence:  it.Confidence,
				})
			case "éteins", "désactive":
				suggestions = append(suggestions, Suggestion{
					Action:      "turn_off",
					Description: "Éteindre " + device,
					Confidence:  it.Confidence,
				})
			}
		}

	case TypeQuery:
		suggestions = append(suggestions, Suggestion{
			Action:      "query_status",
			Description: "Récupérer le statut des appareils",
			Confidence:  it.Confidence,
		})

	case TypeScene:
		for _, scene := range it.EntityStrings("scene") {
			suggestions = append(suggestions, Suggestion{
				Action:      "activate_scene",
				Description: "Activer la scène " + scene,
				Parameters:  map[string]any{"scene_name": scene},
				Confidence:  it.Confidence,
			})
		}
	}

	return suggestions
}

// classify scores the text against every intent type and returns the
// winner with its normalised score.
func classify(text string) (Type, float64) {
	scores := make(map[Type]float64, len(allTypes))

	for intentType, patterns := range typePatterns {
		for _, pattern := range patterns {
			if pattern.MatchString(text) {
				scores[intentType] += patternWeight
			}
		}
	}

	for intentType, keywords := range typeKeywords {
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				scores[intentType] += keywordWeight
			}
		}
	}

	var total float64
	for _, score := range scores {
		total += score
	}
	if total > 0 {
		for intentType := range scores {
			scores[intentType] /= total
		}
	}

	best := TypeControl
	bestScore := 0.0
	for _, intentType := range allTypes {
		if scores[intentType] > bestScore {
			best = intentType
			bestScore = scores[intentType]
		}
	}

	if bestScore < minConfidence {
		return TypeControl, minConfidence
	}
	return best, bestScore
}

// extractEntities pulls the fixed entity categories, free-standing
// integers, and unit tokens out of the text.
func extractEntities(text string) map[string]any {
	entities := make(map[string]any)

	for _, category := range entityCategories {
		var values []string
		seen := make(map[string]bool)

		for _, pattern := range entityPatterns[category] {
			for _, match := range pattern.FindAllStringSubmatch(text, -1) {
				value := firstGroup(match)
				if value != "" && !seen[value] {
					seen[value] = true
					values = append(values, value)
				}
			}
		}

		if len(values) > 0 {
			entities[category] = values
		}
	}

	if matches := numericPattern.FindAllString(text, -1); len(matches) > 0 {
		numbers := make([]int, 0, len(matches))
		for _, m := range matches {
			if n, err := strconv.Atoi(m); err == nil {
				numbers = append(numbers, n)
			}
		}
		entities["numeric"] = numbers
	}

	if matches := unitsPattern.FindAllString(text, -1); len(matches) > 0 {
		entities["units"] = matches
	}

	return entities
}

// firstGroup returns the first non-empty capture group, falling back to the
// full match for patterns without groups.
func firstGroup(match []string) string {
	for _, group := range match[1:] {
		if group != "" {
			return group
		}
	}
	return match[0]
}
