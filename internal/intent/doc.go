// Package intent turns natural-language text into structured intents.
//
// # Overview
//
// The parser is deliberately simple: regex patterns and keyword lists score
// each intent type, scores are normalised, and the best type wins. There is
// no model inference here; the decision layer compensates with context and
// rules. The vocabulary is French, matching the deployments this system
// drives.
//
// # Classification
//
// Each intent type accumulates 0.3 per matching pattern and 0.2 per
// contained keyword. Scores are normalised to sum to 1 and the highest
// score becomes the intent confidence. When nothing scores at least 0.1
// the parser falls back to a CONTROL intent with confidence 0.1 rather
// than reporting failure, so downstream layers always receive an intent.
//
// # Entities
//
// Extraction runs independently of classification. Fixed categories
// (device, action, value, time) are matched by regex alternatives, with
// free-standing integers collected under "numeric" and unit tokens under
// "units".
//
// # Usage
//
//	parser := intent.NewParser(logger)
//	it := parser.Parse("allume la lumière du salon", "user-1")
//	// it.Type == intent.TypeControl
//	// it.Entities["action"] == []string{"allume"}
package intent
