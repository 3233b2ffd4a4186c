// Package decision chooses device actions from intents and context.
//
// # Overview
//
// The engine tries a remote delegate first and falls back to local rule
// evaluation on any transport failure, so decisions keep flowing when the
// delegate is down. Results are cached per (intent type, text prefix,
// user, time of day) so repeated requests within a TTL window return the
// identical Decision.
//
// # Rules
//
// A DecisionRule pairs a predicate over the intent and context with an
// action, target, priority, and base confidence. Conditions are a small
// AST (intent-type equality, entity membership, context-field equality,
// and/or composition) evaluated by one interpreter. Among matching rules
// the highest priority number wins, ties broken by base confidence.
//
// # Confidence
//
// A selected rule's base confidence is scaled by the weighted sum of six
// factors:
//
//	intent_confidence   0.30
//	context_relevance   0.20
//	time_of_day         0.15
//	user_preferences    0.20
//	energy_efficiency   0.10
//	privacy_concerns    0.05
//
// The result is clamped to [0.1, 1.0]. When no rule matches, the engine
// returns a noop Decision at the 0.1 floor rather than an error.
//
// # Quality
//
// EvaluateQuality grades an executed decision after the fact from its
// outcome (success, satisfaction, efficiency, energy saved) scaled by the
// decision's original confidence. It informs reporting only; it never
// changes live behaviour.
package decision
