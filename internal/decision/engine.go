package decision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/intent"
	"github.com/luminahome/lumina-core/internal/situation"
)

// SharedCache is the slice of the Redis cache the engine needs. May be
// absent; the engine then caches locally only.
type SharedCache interface {
	GetJSON(ctx context.Context, key string, dest any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Logger is the narrow logging interface used by the engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// localEntry is one in-process cached decision.
type localEntry struct {
	decision  Decision
	expiresAt time.Time
}

// Engine makes decisions from intents and context. Safe for concurrent
// use.
type Engine struct {
	cfg    config.DecisionConfig
	rules  []Rule
	shared SharedCache
	client *http.Client
	logger Logger

	cacheMu sync.Mutex
	local   map[string]localEntry

	// now is swappable for tests.
	now func() time.Time
}

// NewEngine creates a decision engine.
//
// Parameters:
//   - cfg: Delegate URL, API key, timeouts, and cache TTL
//   - rules: The local rule set (DefaultRules or a loaded rules file)
//   - shared: Shared cache, or nil to cache in-process only
//   - logger: May be nil
func NewEngine(cfg config.DecisionConfig, rules []Rule, shared SharedCache, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		cfg:    cfg,
		rules:  rules,
		shared: shared,
		client: &http.Client{Timeout: cfg.Timeout()},
		logger: logger,
		local:  make(map[string]localEntry),
		now:    time.Now,
	}
}

// MakeDecision chooses an action for the intent under the given context.
//
// The remote delegate is tried first when configured; any failure there
// falls back to local rule evaluation, so this method never returns an
// error. Identical (intent, context) pairs within the cache TTL return
// the identical Decision.
//
// availableActions is advisory information forwarded to the delegate; the
// local rule path does not consume it.
func (e *Engine) MakeDecision(ctx context.Context, it intent.Intent, sctx situation.Context, availableActions []map[string]any) Decision {
	key := e.cacheKey(it, sctx)

	if cached, ok := e.cachedDecision(ctx, key); ok {
		e.logger.Debug("decision served from cache", "key", key)
		return cached
	}

	var decision Decision
	if e.cfg.DelegateURL != "" {
		delegated, err := e.callDelegate(ctx, it, sctx, availableActions)
		if err != nil {
			e.logger.Warn("decision delegate unavailable, using local rules", "error", err)
			decision = e.localDecision(it, sctx)
		} else {
			decision = delegated
		}
	} else {
		decision = e.localDecision(it, sctx)
	}

	e.storeDecision(ctx, key, decision)

	e.logger.Info("decision made",
		"action", decision.Action,
		"target", decision.Target,
		"confidence", decision.Confidence,
	)
	return decision
}

// EvaluateQuality grades an executed decision from its outcome.
//
// The score combines success (0.4), user satisfaction (0.3), efficiency
// (0.2), and energy saved capped at 1 (0.1), scaled by the decision's
// original confidence: a lucky guess scores lower than a confident hit.
func (e *Engine) EvaluateQuality(decision Decision, outcome Outcome) float64 {
	success := 0.0
	if outcome.Success {
		success = 1.0
	}

	energy := outcome.EnergySaved
	if energy > 1.0 {
		energy = 1.0
	}

	score := success*0.4 + outcome.UserSatisfaction*0.3 + outcome.Efficiency*0.2 + energy*0.1
	return score * decision.Confidence
}

// localDecision evaluates the rule set and builds a Decision from the best
// match, or a noop at the confidence floor when nothing matches.
func (e *Engine) localDecision(it intent.Intent, sctx situation.Context) Decision {
	var matching []Rule
	for _, rule := range e.rules {
		if rule.Condition.Matches(it, sctx) {
			matching = append(matching, rule)
		}
	}

	if len(matching) == 0 {
		return Decision{
			ID:           uuid.NewString(),
			Action:       "noop",
			Target:       "",
			Parameters:   map[string]any{},
			Confidence:   minDecisionConfidence,
			Reasoning:    "no matching rule found",
			Alternatives: []Alternative{},
			Timestamp:    e.now().UTC(),
		}
	}

	bestIdx := 0
	for i, rule := range matching[1:] {
		best := matching[bestIdx]
		if rule.Priority > best.Priority ||
			(rule.Priority == best.Priority && rule.Confidence > best.Confidence) {
			bestIdx = i + 1
		}
	}
	best := matching[bestIdx]

	factors := computeFactors(it, sctx)
	confidence := scaleConfidence(best.Confidence, factors)

	return Decision{
		ID:           uuid.NewString(),
		Action:       best.Action,
		Target:       best.Target,
		Parameters:   best.Parameters,
		Confidence:   confidence,
		Reasoning:    reasoning(it, sctx, best, confidence),
		Alternatives: alternatives(matching, bestIdx),
		Timestamp:    e.now().UTC(),
	}
}

// reasoning assembles the human-readable decision trace.
func reasoning(it intent.Intent, sctx situation.Context, rule Rule, confidence float64) string {
	trace := fmt.Sprintf("intent: %s", it.Type)
	if sctx.TimeOfDay != "" {
		trace += fmt.Sprintf(". time of day: %s", sctx.TimeOfDay)
	}
	if sctx.Location != "" {
		trace += fmt.Sprintf(". location: %s", sctx.Location)
	}
	trace += fmt.Sprintf(". applied rule: %s on %s. confidence: %.2f", rule.Action, rule.Target, confidence)
	return trace
}

// alternatives lists the losing matches, discounted so callers can see
// they were considered weaker.
func alternatives(matching []Rule, selectedIdx int) []Alternative {
	out := make([]Alternative, 0, len(matching)-1)
	for i, rule := range matching {
		if i == selectedIdx {
			continue
		}
		out = append(out, Alternative{
			Action:     rule.Action,
			Target:     rule.Target,
			Parameters: rule.Parameters,
			Confidence: rule.Confidence * 0.8,
			Reasoning:  fmt.Sprintf("alternative: %s on %s", rule.Action, rule.Target),
		})
	}
	return out
}

// delegatePayload is the request body sent to the remote delegate.
type delegatePayload struct {
	Intent           intent.Intent     `json:"intent"`
	Context          situation.Context `json:"context"`
	AvailableActions []map[string]any  `json:"available_actions"`
	Timestamp        string            `json:"timestamp"`
}

// callDelegate asks the remote decision API for a decision.
func (e *Engine) callDelegate(ctx context.Context, it intent.Intent, sctx situation.Context, availableActions []map[string]any) (Decision, error) {
	payload := delegatePayload{
		Intent:           it,
		Context:          sctx,
		AvailableActions: availableActions,
		Timestamp:        e.now().UTC().Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Decision{}, fmt.Errorf("encoding delegate payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.DelegateURL+"/api/decision", bytes.NewReader(body))
	if err != nil {
		return Decision{}, fmt.Errorf("building delegate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return Decision{}, fmt.Errorf("calling delegate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Decision{}, fmt.Errorf("delegate returned %d", resp.StatusCode)
	}

	var decision Decision
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return Decision{}, fmt.Errorf("decoding delegate response: %w", err)
	}

	if decision.ID == "" {
		decision.ID = uuid.NewString()
	}
	if decision.Action == "" {
		decision.Action = "noop"
	}
	if decision.Parameters == nil {
		decision.Parameters = map[string]any{}
	}
	if decision.Alternatives == nil {
		decision.Alternatives = []Alternative{}
	}
	if decision.Reasoning == "" {
		decision.Reasoning = "no reasoning provided"
	}
	if decision.Timestamp.IsZero() {
		decision.Timestamp = e.now().UTC()
	}
	return decision, nil
}

// cachedDecision checks the local cache, then the shared cache, promoting
// shared hits into the local layer.
func (e *Engine) cachedDecision(ctx context.Context, key string) (Decision, bool) {
	e.cacheMu.Lock()
	if entry, ok := e.local[key]; ok && e.now().Before(entry.expiresAt) {
		e.cacheMu.Unlock()
		return entry.decision, true
	}
	e.cacheMu.Unlock()

	if e.shared == nil {
		return Decision{}, false
	}

	var decision Decision
	if err := e.shared.GetJSON(ctx, key, &decision); err != nil {
		return Decision{}, false
	}

	e.cacheMu.Lock()
	e.local[key] = localEntry{decision: decision, expiresAt: e.now().Add(e.cacheTTL())}
	e.cacheMu.Unlock()
	return decision, true
}

// storeDecision writes to both cache layers. Shared cache failures are
// logged and ignored.
func (e *Engine) storeDecision(ctx context.Context, key string, decision Decision) {
	e.cacheMu.Lock()
	e.local[key] = localEntry{decision: decision, expiresAt: e.now().Add(e.cacheTTL())}
	e.cacheMu.Unlock()

	if e.shared == nil {
		return
	}
	if err := e.shared.SetJSON(ctx, key, decision, e.cacheTTL()); err != nil {
		e.logger.Warn("decision cache write failed", "key", key, "error", err)
	}
}

func (e *Engine) cacheTTL() time.Duration {
	if e.cfg.CacheTTL > 0 {
		return time.Duration(e.cfg.CacheTTL) * time.Second
	}
	return 300 * time.Second
}

// cacheKey builds the decision cache key from the intent type, the first
// twenty characters of the text, the user, and the time of day. The prefix
// is cut on rune boundaries so accented text never yields a broken key.
func (e *Engine) cacheKey(it intent.Intent, sctx situation.Context) string {
	text := it.Text
	if runes := []rune(text); len(runes) > 20 {
		text = string(runes[:20])
	}
	return fmt.Sprintf("decision:%s:%s:%s:%s", it.Type, text, sctx.UserID, sctx.TimeOfDay)
}
