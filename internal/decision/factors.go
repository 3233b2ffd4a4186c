package decision

import (
	"github.com/luminahome/lumina-core/internal/intent"
	"github.com/luminahome/lumina-core/internal/situation"
)

// Factor weights. They sum to 1.0 so a rule with every factor at its
// maximum keeps its base confidence.
const (
	weightIntentConfidence = 0.30
	weightContextRelevance = 0.20
	weightTimeOfDay        = 0.15
	weightUserPreferences  = 0.20
	weightEnergyEfficiency = 0.10
	weightPrivacyConcerns  = 0.05
)

// Confidence clamp bounds.
const (
	minDecisionConfidence = 0.1
	maxDecisionConfidence = 1.0
)

// Factor is one named contribution to a decision's confidence, kept for
// reasoning and diagnostics.
type Factor struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
	Value  float64 `json:"value"`
}

// computeFactors evaluates the six confidence factors for an intent and
// context pair.
func computeFactors(it intent.Intent, sctx situation.Context) []Factor {
	return []Factor{
		{Name: "intent_confidence", Weight: weightIntentConfidence, Value: it.Confidence},
		{Name: "context_relevance", Weight: weightContextRelevance, Value: contextRelevance(sctx)},
		{Name: "time_of_day", Weight: weightTimeOfDay, Value: timeOfDayFactor(sctx)},
		{Name: "user_preferences", Weight: weightUserPreferences, Value: preferenceFactor(sctx)},
		{Name: "energy_efficiency", Weight: weightEnergyEfficiency, Value: energyFactor(it)},
		{Name: "privacy_concerns", Weight: weightPrivacyConcerns, Value: privacyFactor(it)},
	}
}

// scaleConfidence applies the weighted factor sum to a rule's base
// confidence and clamps the result.
func scaleConfidence(base float64, factors []Factor) float64 {
	var weighted float64
	for _, factor := range factors {
		weighted += factor.Weight * factor.Value
	}

	confidence := base * weighted
	if confidence < minDecisionConfidence {
		return minDecisionConfidence
	}
	if confidence > maxDecisionConfidence {
		return maxDecisionConfidence
	}
	return confidence
}

// contextRelevance grows with how much of the context is populated.
// A richer context makes a rule-based decision more trustworthy.
func contextRelevance(sctx situation.Context) float64 {
	factor := 0.5
	if sctx.Location != "" {
		factor += 0.1
	}
	if len(sctx.Weather) > 0 {
		factor += 0.1
	}
	if len(sctx.DeviceStates) > 0 {
		factor += 0.2
	}
	if len(sctx.UserPreferences) > 0 {
		factor += 0.1
	}
	if factor > 1.0 {
		factor = 1.0
	}
	return factor
}

// timeOfDayFactor favours daytime automation.
func timeOfDayFactor(sctx situation.Context) float64 {
	switch sctx.TimeOfDay {
	case "morning":
		return 0.8
	case "afternoon":
		return 0.9
	case "evening":
		return 0.7
	case "night":
		return 0.5
	default:
		return 0.5
	}
}

// preferenceFactor rewards users who opted into automatic optimisation.
func preferenceFactor(sctx situation.Context) float64 {
	if auto, ok := sctx.UserPreferences["auto_optimization"].(bool); ok && auto {
		return 0.9
	}
	return 0.5
}

// energyFactor favours off-class control actions: switching things off is
// the energy-efficient move.
func energyFactor(it intent.Intent) float64 {
	if it.Type != intent.TypeControl {
		return 0.5
	}
	for _, action := range it.EntityStrings("action") {
		if action == "éteins" || action == "désactive" {
			return 0.9
		}
	}
	return 0.5
}

// privacyFactor treats read-only queries as less sensitive than controls.
func privacyFactor(it intent.Intent) float64 {
	if it.Type == intent.TypeQuery {
		return 0.8
	}
	return 0.5
}
