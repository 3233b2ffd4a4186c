// Lumina Core - Home Automation Intelligence
//
// This is the main entry point for the Lumina Core application. Lumina turns
// natural-language requests into device commands:
//
//	text → IntentParser → ContextManager → DecisionEngine → Protocol Layer
//
// Intents arrive over MQTT (lumina/intent/{source}); executed decisions are
// announced on lumina/decision/{device}.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/luminahome/lumina-core/migrations"

	"github.com/luminahome/lumina-core/internal/decision"
	"github.com/luminahome/lumina-core/internal/device"
	"github.com/luminahome/lumina-core/internal/history"
	"github.com/luminahome/lumina-core/internal/infrastructure/cache"
	"github.com/luminahome/lumina-core/internal/infrastructure/config"
	"github.com/luminahome/lumina-core/internal/infrastructure/database"
	"github.com/luminahome/lumina-core/internal/infrastructure/logging"
	"github.com/luminahome/lumina-core/internal/infrastructure/tsdb"
	"github.com/luminahome/lumina-core/internal/intent"
	"github.com/luminahome/lumina-core/internal/pipeline"
	"github.com/luminahome/lumina-core/internal/protocol"
	"github.com/luminahome/lumina-core/internal/protocol/httpx"
	"github.com/luminahome/lumina-core/internal/protocol/mqtt"
	"github.com/luminahome/lumina-core/internal/protocol/ws"
	"github.com/luminahome/lumina-core/internal/situation"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// executeTimeout bounds one utterance's trip through the pipeline.
const executeTimeout = 15 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumina Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open the action history database
	db, err := database.Open(database.Config{
		Path:        cfg.History.Path,
		WALMode:     cfg.History.WALMode,
		BusyTimeout: cfg.History.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.History.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	historyRepo := history.NewRepository(db.DB)

	// Connect to the shared cache (optional). The interface variables stay
	// nil when the cache is off so downstream components skip it cleanly.
	var (
		contextCache  situation.SharedCache
		decisionCache decision.SharedCache
		locks         pipeline.Locker
	)
	shared, err := cache.New(cfg.Cache)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		log.Info("shared cache disabled")
	case err != nil:
		return fmt.Errorf("connecting to cache: %w", err)
	default:
		defer func() {
			log.Info("closing cache connection")
			if closeErr := shared.Close(); closeErr != nil {
				log.Error("error closing cache", "error", closeErr)
			}
		}()
		contextCache, decisionCache, locks = shared, shared, shared
		log.Info("shared cache connected", "addr", cfg.Cache.Addr)
	}

	// Connect to the time series database (optional)
	outcomes, err := tsdb.Connect(cfg.TSDB)
	switch {
	case errors.Is(err, tsdb.ErrDisabled):
		log.Info("outcome recording disabled")
	case err != nil:
		return fmt.Errorf("connecting to tsdb: %w", err)
	default:
		defer func() {
			log.Info("closing tsdb connection")
			if closeErr := outcomes.Close(); closeErr != nil {
				log.Error("error closing tsdb", "error", closeErr)
			}
		}()
		outcomes.SetOnError(func(err error) {
			log.Error("tsdb write error", "error", err)
		})
		log.Info("tsdb connected",
			"url", cfg.TSDB.URL,
			"org", cfg.TSDB.Org,
			"bucket", cfg.TSDB.Bucket,
		)
	}

	// Transports. MQTT is the primary channel and must be reachable; HTTP
	// never opens a connection up front; WebSocket only when configured.
	mqttProto := mqtt.New(cfg.MQTT, log.Component("mqtt"))
	if err := mqttProto.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttProto.Disconnect(context.Background()); closeErr != nil {
			log.Error("error disconnecting MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	httpProto := httpx.New(cfg.HTTP, log.Component("http"))
	if err := httpProto.Connect(ctx); err != nil {
		return fmt.Errorf("initialising HTTP transport: %w", err)
	}
	defer func() { _ = httpProto.Disconnect(context.Background()) }()

	transports := map[string]protocol.Protocol{
		"mqtt": mqttProto,
		"http": httpProto,
	}

	if cfg.WebSocket.URL != "" {
		wsProto := ws.New(cfg.WebSocket, log.Component("websocket"))
		if err := wsProto.Connect(ctx); err != nil {
			return fmt.Errorf("connecting WebSocket: %w", err)
		}
		defer func() {
			log.Info("disconnecting WebSocket")
			if closeErr := wsProto.Disconnect(context.Background()); closeErr != nil {
				log.Error("error disconnecting WebSocket", "error", closeErr)
			}
		}()
		transports["websocket"] = wsProto
		log.Info("WebSocket connected", "url", cfg.WebSocket.URL)
	}

	// Pipeline stages
	registry := device.NewRegistry(log)

	contexts := situation.NewManager(cfg.Context, contextCache, log)
	contexts.Register(situation.SourceHistory, situation.FetcherFunc(historyRepo.Fetch))

	rules := decision.DefaultRules()
	if cfg.Decision.RulesFile != "" {
		extra, loadErr := decision.LoadRules(cfg.Decision.RulesFile)
		if loadErr != nil {
			return fmt.Errorf("loading rules: %w", loadErr)
		}
		rules = append(rules, extra...)
		log.Info("additional rules loaded", "path", cfg.Decision.RulesFile, "count", len(extra))
	}
	engine := decision.NewEngine(cfg.Decision, rules, decisionCache, log)

	pipe := pipeline.New(pipeline.Deps{
		Parser:     intent.NewParser(log),
		Contexts:   contexts,
		Engine:     engine,
		Registry:   registry,
		Transports: transports,
		Locks:      locks,
		History:    historyRepo,
		Outcomes:   outcomes,
		Logger:     log.Component("pipeline"),
		Cooldown:   time.Duration(cfg.Decision.CooldownSeconds) * time.Second,
	})

	// Listen for intent requests over MQTT
	listener := &intentListener{pipe: pipe, announcer: mqttProto, log: log}
	mqttProto.AddObserver(listener)
	defer mqttProto.RemoveObserver(listener)

	topics := mqtt.Topics{}
	if err := mqttProto.Subscribe(ctx, topics.IntentAll(), byte(cfg.MQTT.QoS)); err != nil {
		return fmt.Errorf("subscribing to intent topics: %w", err)
	}
	log.Info("listening for intents", "topic", topics.IntentAll())

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttProto, outcomes); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred cleanup runs in reverse order: observer, transports, tsdb,
	// cache, database.

	log.Info("Lumina Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMINA_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMINA_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttProto: MQTT transport to check
//   - outcomes: Time series client to check (nil when disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttProto *mqtt.Protocol, outcomes *tsdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttProto.State() != protocol.StateConnected {
		return fmt.Errorf("mqtt: state %s", mqttProto.State())
	}

	if outcomes.IsConnected() {
		if err := outcomes.HealthCheck(ctx); err != nil {
			return fmt.Errorf("tsdb: %w", err)
		}
	}

	return nil
}

// intentListener feeds inbound intent requests into the pipeline.
//
// Requests arrive on lumina/intent/{source} as a JSON object
// {"text": "...", "user_id": "..."} or as plain text (anonymous). Each
// executed decision is announced on lumina/decision/{device}.
type intentListener struct {
	pipe      *pipeline.Pipeline
	announcer protocol.Protocol
	log       *logging.Logger
}

// OnMessage implements protocol.Observer.
func (l *intentListener) OnMessage(msg protocol.Message) {
	text, userID, ok := parseIntentRequest(msg)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), executeTimeout)
	defer cancel()

	result, err := l.pipe.Execute(ctx, text, userID)
	if err != nil {
		l.log.Warn("intent request failed", "topic", msg.Topic, "error", err)
		return
	}
	if !result.Executed {
		l.log.Debug("intent request not executed",
			"topic", msg.Topic,
			"skip_reason", result.SkipReason,
		)
		return
	}

	announcement := map[string]any{
		"action":     result.Decision.Action,
		"target":     result.Decision.Target,
		"confidence": result.Decision.Confidence,
		"reasoning":  result.Decision.Reasoning,
	}
	topic := mqtt.Topics{}.Decision(result.Decision.Target)
	if err := l.announcer.Publish(ctx, topic, announcement, 0, false); err != nil {
		l.log.Warn("announcing decision failed", "topic", topic, "error", err)
	}
}

// OnStateChange implements protocol.Observer.
func (l *intentListener) OnStateChange(state protocol.State, err error) {
	if err != nil {
		l.log.Warn("transport state changed", "state", state, "error", err)
		return
	}
	l.log.Debug("transport state changed", "state", state)
}

// parseIntentRequest extracts the utterance and user from an inbound message.
// Non-intent topics and empty payloads are ignored.
func parseIntentRequest(msg protocol.Message) (text, userID string, ok bool) {
	if !strings.HasPrefix(msg.Topic, mqtt.TopicPrefixLumina+"/intent/") {
		return "", "", false
	}

	switch payload := msg.Payload.(type) {
	case string:
		text = payload
	case map[string]any:
		text, _ = payload["text"].(string)
		userID, _ = payload["user_id"].(string)
	}

	if text == "" {
		return "", "", false
	}
	return text, userID, true
}
