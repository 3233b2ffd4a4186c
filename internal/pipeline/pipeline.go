package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/luminahome/lumina-core/internal/decision"
	"github.com/luminahome/lumina-core/internal/device"
	"github.com/luminahome/lumina-core/internal/intent"
	"github.com/luminahome/lumina-core/internal/protocol"
	"github.com/luminahome/lumina-core/internal/situation"
)

const (
	// defaultCooldown is the window within which an identical
	// (device, action) pair is not executed again.
	defaultCooldown = 60 * time.Second

	// lockTTL bounds how long an execution lock can outlive its holder.
	lockTTL = 5 * time.Second

	// decisionLogKey is the Redis list holding the rolling decision log.
	decisionLogKey = "lumina:decisions"

	// decisionLogCap caps the rolling decision log length.
	decisionLogCap = 100
)

// Skip reasons reported on Result.SkipReason.
const (
	SkipNone           = ""
	SkipNoAction       = "no_action"
	SkipCooldown       = "cooldown"
	SkipLockContention = "lock_contention"
)

// Pipeline errors.
var (
	// ErrInvalidIntent is returned when the parsed intent fails validation.
	ErrInvalidIntent = errors.New("pipeline: invalid intent")

	// ErrNoTransport is returned when no transport is available for the
	// target device.
	ErrNoTransport = errors.New("pipeline: no transport for device")
)

// Locker is the slice of the cache API the pipeline needs for execution
// locks and the decision log ring.
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key string) error
	PushCapped(ctx context.Context, key string, value any, maxLen int64) error
}

// Recorder persists executed actions per user.
type Recorder interface {
	Record(ctx context.Context, userID string, action map[string]any) error
}

// OutcomeWriter records decisions and outcome quality in a time series.
type OutcomeWriter interface {
	WriteDecision(userID, action, target string, confidence float64)
	WriteOutcome(target, action string, quality float64)
}

// Logger is the narrow logging interface the pipeline uses.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Deps bundles the pipeline's collaborators. Parser, Contexts, Engine and
// Transports are required; everything else is optional and nil-safe.
type Deps struct {
	Parser     *intent.Parser
	Contexts   *situation.Manager
	Engine     *decision.Engine
	Registry   *device.Registry
	Transports map[string]protocol.Protocol

	// DefaultTransport names the transport used for devices not present in
	// the registry. Defaults to "mqtt" when unset.
	DefaultTransport string

	Locks    Locker
	History  Recorder
	Outcomes OutcomeWriter
	Logger   Logger

	// Cooldown overrides the identical-command window. Zero means default.
	Cooldown time.Duration
}

// Result is the outcome of one Execute call.
type Result struct {
	Intent   intent.Intent     `json:"intent"`
	Context  situation.Context `json:"context"`
	Decision decision.Decision `json:"decision"`
	Command  decision.Command  `json:"command"`
	Executed bool              `json:"executed"`

	// SkipReason explains why Executed is false without an error.
	SkipReason string `json:"skip_reason,omitempty"`

	Outcome *protocol.CommandResult `json:"outcome,omitempty"`
}

// Pipeline wires the stages together. Safe for concurrent use.
type Pipeline struct {
	parser           *intent.Parser
	contexts         *situation.Manager
	engine           *decision.Engine
	registry         *device.Registry
	transports       map[string]protocol.Protocol
	defaultTransport string

	locks    Locker
	history  Recorder
	outcomes OutcomeWriter
	logger   Logger

	cooldown   time.Duration
	cooldownMu sync.Mutex
	lastRun    map[string]time.Time

	// now is swappable for tests.
	now func() time.Time
}

// New creates a pipeline from its dependencies.
func New(deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	cooldown := deps.Cooldown
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	defaultTransport := deps.DefaultTransport
	if defaultTransport == "" {
		defaultTransport = "mqtt"
	}

	return &Pipeline{
		parser:           deps.Parser,
		contexts:         deps.Contexts,
		engine:           deps.Engine,
		registry:         deps.Registry,
		transports:       deps.Transports,
		defaultTransport: defaultTransport,
		locks:            deps.Locks,
		history:          deps.History,
		outcomes:         deps.Outcomes,
		logger:           logger,
		cooldown:         cooldown,
		lastRun:          make(map[string]time.Time),
		now:              time.Now,
	}
}

// Execute runs the full chain for one utterance.
//
// The returned Result always carries the parsed intent, the context and the
// decision, whether or not a command was sent. Executed is true only when
// the transport reported success; SkipReason explains guarded skips.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - text: The user's utterance
//   - userID: Requesting user ("" for anonymous)
//
// Returns:
//   - Result: Stage outputs plus execution outcome
//   - error: ErrInvalidIntent, ErrNoTransport, or a transport error
func (p *Pipeline) Execute(ctx context.Context, text, userID string) (Result, error) {
	var result Result

	result.Intent = p.parser.Parse(text, userID)
	if !p.parser.Validate(result.Intent) {
		return result, fmt.Errorf("%w: %q", ErrInvalidIntent, text)
	}

	result.Context = p.contexts.GetContext(ctx, userID)
	result.Decision = p.engine.MakeDecision(ctx, result.Intent, result.Context, nil)

	if result.Decision.Action == "noop" || result.Decision.Target == "" {
		result.SkipReason = SkipNoAction
		p.logger.Debug("no actionable decision", "text", text, "reasoning", result.Decision.Reasoning)
		return result, nil
	}

	result.Command = decision.Translate(result.Decision)

	if p.inCooldown(result.Command) {
		result.SkipReason = SkipCooldown
		p.logger.Info("command in cooldown, skipping",
			"device", result.Command.DeviceID, "command", result.Command.Command)
		return result, nil
	}

	release, acquired := p.acquireLock(ctx, result.Command.DeviceID)
	if !acquired {
		result.SkipReason = SkipLockContention
		p.logger.Info("execution lock held elsewhere, skipping",
			"device", result.Command.DeviceID)
		return result, nil
	}
	defer release()

	dev := p.deviceFor(result.Command.DeviceID)
	transport, err := p.transportFor(dev)
	if err != nil {
		return result, err
	}

	wireCmd, wireParams, err := device.WireCommand(transport, dev, result.Command.Command, result.Command.Parameters)
	if err != nil {
		return result, err
	}

	outcome, err := transport.SendCommand(ctx, result.Command.DeviceID, wireCmd, wireParams)
	result.Outcome = outcome
	if err != nil {
		p.logger.Warn("command send failed",
			"device", result.Command.DeviceID, "command", result.Command.Command, "error", err)
		return result, err
	}

	result.Executed = outcome != nil && outcome.Success
	if result.Executed {
		p.stampCooldown(result.Command)
		p.record(ctx, userID, result)
	}

	return result, nil
}

// RecordOutcome evaluates an executed decision against its observed outcome
// and writes the quality score to the time series when one is configured.
//
// Returns:
//   - float64: The quality score
func (p *Pipeline) RecordOutcome(d decision.Decision, outcome decision.Outcome) float64 {
	quality := p.engine.EvaluateQuality(d, outcome)
	if p.outcomes != nil {
		p.outcomes.WriteOutcome(d.Target, d.Action, quality)
	}
	return quality
}

// inCooldown reports whether the identical (device, action) pair ran within
// the cooldown window.
func (p *Pipeline) inCooldown(cmd decision.Command) bool {
	key := cmd.DeviceID + "|" + cmd.Command

	p.cooldownMu.Lock()
	defer p.cooldownMu.Unlock()

	last, ok := p.lastRun[key]
	return ok && p.now().Sub(last) < p.cooldown
}

func (p *Pipeline) stampCooldown(cmd decision.Command) {
	key := cmd.DeviceID + "|" + cmd.Command

	p.cooldownMu.Lock()
	p.lastRun[key] = p.now()
	p.cooldownMu.Unlock()
}

// acquireLock takes the per-device execution lock. Without a lock backend,
// or when the backend errors, execution proceeds unguarded.
func (p *Pipeline) acquireLock(ctx context.Context, deviceID string) (release func(), acquired bool) {
	if p.locks == nil {
		return func() {}, true
	}

	key := "lock:" + deviceID
	ok, err := p.locks.AcquireLock(ctx, key, lockTTL)
	if err != nil {
		p.logger.Warn("lock backend unavailable, proceeding without lock", "key", key, "error", err)
		return func() {}, true
	}
	if !ok {
		return func() {}, false
	}

	return func() {
		if err := p.locks.ReleaseLock(ctx, key); err != nil {
			p.logger.Warn("releasing execution lock failed", "key", key, "error", err)
		}
	}, true
}

// deviceFor looks the target up in the registry, falling back to a bare
// entry for devices the catalogue does not know.
func (p *Pipeline) deviceFor(deviceID string) *device.Device {
	if p.registry != nil {
		if dev, err := p.registry.Get(deviceID); err == nil {
			return dev
		}
	}
	return &device.Device{ID: deviceID}
}

// transportFor picks the transport for a device: the one it is registered
// on, or the default for unknown devices.
func (p *Pipeline) transportFor(dev *device.Device) (protocol.Protocol, error) {
	name := p.defaultTransport
	if dev.Protocol != "" {
		name = dev.Protocol
	}

	transport, ok := p.transports[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (transport %q)", ErrNoTransport, dev.ID, name)
	}
	return transport, nil
}

// record fans the executed action out to the history stores and the
// decision log. Every sink is optional and failures only log.
func (p *Pipeline) record(ctx context.Context, userID string, result Result) {
	action := situation.Action{
		"action":     result.Command.Command,
		"device":     result.Command.DeviceID,
		"confidence": result.Decision.Confidence,
		"timestamp":  p.now().UTC().Format(time.RFC3339),
	}

	p.contexts.AddActionToHistory(ctx, userID, action)

	if p.history != nil {
		if err := p.history.Record(ctx, userID, action); err != nil {
			p.logger.Warn("persisting action history failed", "error", err)
		}
	}

	if p.locks != nil {
		entry := map[string]any{
			"decision_id": result.Decision.ID,
			"action":      result.Decision.Action,
			"target":      result.Decision.Target,
			"confidence":  result.Decision.Confidence,
			"reasoning":   result.Decision.Reasoning,
			"user_id":     userID,
			"timestamp":   p.now().UTC().Format(time.RFC3339),
		}
		if err := p.locks.PushCapped(ctx, decisionLogKey, entry, decisionLogCap); err != nil {
			p.logger.Warn("pushing decision log failed", "error", err)
		}
	}

	if p.outcomes != nil {
		who := userID
		if who == "" {
			who = "anonymous"
		}
		p.outcomes.WriteDecision(who, result.Decision.Action, result.Decision.Target, result.Decision.Confidence)
	}

	p.logger.Info("command executed",
		"device", result.Command.DeviceID,
		"command", result.Command.Command,
		"confidence", result.Decision.Confidence)
}
