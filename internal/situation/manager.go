package situation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/luminahome/lumina-core/internal/infrastructure/cache"
	"github.com/luminahome/lumina-core/internal/infrastructure/config"
)

// Fetcher retrieves raw data for one source. Implementations are provided
// by the caller (device registry, history repository, weather client).
type Fetcher interface {
	Fetch(ctx context.Context, userID string) (map[string]any, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, userID string) (map[string]any, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, userID string) (map[string]any, error) {
	return f(ctx, userID)
}

// SharedCache is the slice of the Redis cache the manager needs.
type SharedCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Logger is the narrow logging interface used by the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// localEntry is one in-process cache record.
type localEntry struct {
	data      map[string]any
	expiresAt time.Time
}

// Manager aggregates source data into Context snapshots.
// Safe for concurrent use.
type Manager struct {
	cfg    config.ContextConfig
	shared SharedCache
	logger Logger

	sources []Source

	fetcherMu sync.RWMutex
	fetchers  map[string]Fetcher

	cacheMu sync.Mutex
	local   map[string]localEntry

	// now is swappable for tests.
	now func() time.Time
}

// NewManager creates a context manager. shared may be nil when no external
// cache is available; logger may be nil.
//
// The time source is built in. All other sources need a Fetcher registered
// via Register before they contribute data. Sources named in
// cfg.Disabled are skipped entirely.
func NewManager(cfg config.ContextConfig, shared SharedCache, logger Logger) *Manager {
	if logger == nil {
		logger = noopLogger{}
	}

	sources := defaultSources()
	for i := range sources {
		for _, disabled := range cfg.Disabled {
			if sources[i].Name == disabled {
				sources[i].Enabled = false
			}
		}
	}

	return &Manager{
		cfg:      cfg,
		shared:   shared,
		logger:   logger,
		sources:  sources,
		fetchers: make(map[string]Fetcher),
		local:    make(map[string]localEntry),
		now:      time.Now,
	}
}

// Register installs the fetcher for a named source, replacing any previous
// one.
func (m *Manager) Register(source string, fetcher Fetcher) {
	m.fetcherMu.Lock()
	defer m.fetcherMu.Unlock()
	m.fetchers[source] = fetcher
}

// GetContext builds a fresh Context for the user.
//
// Sources are visited in priority order. A failing or unregistered source
// is skipped, so the returned Context may be partial but is never an
// error: callers always get something to decide with.
func (m *Manager) GetContext(ctx context.Context, userID string) Context {
	collected := make(map[string]map[string]any)

	ordered := make([]Source, len(m.sources))
	copy(ordered, m.sources)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Priority < ordered[j].Priority })

	for _, source := range ordered {
		if !source.Enabled {
			continue
		}

		data, err := m.sourceData(ctx, source, userID)
		if err != nil {
			m.logger.Warn("context source failed", "source", source.Name, "error", err)
			continue
		}
		if len(data) > 0 {
			collected[source.Name] = data
			m.logger.Debug("context source collected", "source", source.Name)
		}
	}

	return m.merge(collected, userID)
}

// UpdateContext returns a new Context with the updates applied. Maps merge
// shallowly, recent actions append (capped at the ten most recent), and
// the original context is left untouched.
func (m *Manager) UpdateContext(current Context, updates Updates) Context {
	updated := Context{
		UserID:          current.UserID,
		Location:        current.Location,
		TimeOfDay:       current.TimeOfDay,
		Weather:         current.Weather,
		DeviceStates:    copyMap(current.DeviceStates),
		UserPreferences: copyMap(current.UserPreferences),
		Timestamp:       m.now().UTC(),
	}

	if updates.UserID != "" {
		updated.UserID = updates.UserID
	}
	if updates.Location != "" {
		updated.Location = updates.Location
	}
	if updates.TimeOfDay != "" {
		updated.TimeOfDay = updates.TimeOfDay
	}
	if updates.Weather != nil {
		updated.Weather = updates.Weather
	}
	for k, v := range updates.DeviceStates {
		updated.DeviceStates[k] = v
	}
	for k, v := range updates.UserPreferences {
		updated.UserPreferences[k] = v
	}

	actions := make([]Action, 0, len(current.RecentActions)+len(updates.RecentActions))
	actions = append(actions, current.RecentActions...)
	actions = append(actions, updates.RecentActions...)
	if len(actions) > maxRecentActions {
		actions = actions[len(actions)-maxRecentActions:]
	}
	updated.RecentActions = actions

	return updated
}

// AddActionToHistory appends an action to the user's cached history,
// keeping only the ten most recent entries. Anonymous actions are not
// recorded.
func (m *Manager) AddActionToHistory(ctx context.Context, userID string, action Action) {
	if userID == "" {
		return
	}

	source := m.sourceByName(SourceHistory)
	key := m.cacheKey(SourceHistory, userID)

	data := m.cachedData(ctx, key)
	if data == nil {
		data = map[string]any{}
	}

	actions := toActions(data["recent_actions"])
	actions = append(actions, action)
	if len(actions) > maxRecentActions {
		actions = actions[len(actions)-maxRecentActions:]
	}
	data["recent_actions"] = actions

	m.storeData(ctx, key, data, source.CacheTTL)
}

// ClearCache drops local cache entries for one source, or every entry when
// source is empty. The shared cache is left to expire on its own TTLs.
func (m *Manager) ClearCache(source string) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if source == "" {
		m.local = make(map[string]localEntry)
		return
	}

	marker := ":" + source + ":"
	for key := range m.local {
		if strings.Contains(key, marker) {
			delete(m.local, key)
		}
	}
}

// sourceData returns data for one source, consulting the layered cache
// before the fetcher.
func (m *Manager) sourceData(ctx context.Context, source Source, userID string) (map[string]any, error) {
	key := m.cacheKey(source.Name, userID)

	if data := m.cachedData(ctx, key); data != nil {
		return data, nil
	}

	var data map[string]any
	var err error

	if source.Name == SourceTime {
		data = m.timeData()
	} else {
		fetcher := m.fetcherFor(source.Name)
		if fetcher == nil {
			return nil, nil
		}

		timeout := m.cfg.FetchTimeout()
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		fetchCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		data, err = fetcher.Fetch(fetchCtx, userID)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
		}
	}

	if len(data) > 0 {
		m.storeData(ctx, key, data, source.CacheTTL)
	}
	return data, nil
}

// cachedData checks the local cache, then the shared cache, promoting
// shared hits into the local layer. The returned map is a copy: cached
// entries must never be reachable through a caller's reference, or a
// caller mutating its result would race concurrent readers.
func (m *Manager) cachedData(ctx context.Context, key string) map[string]any {
	m.cacheMu.Lock()
	if entry, ok := m.local[key]; ok && m.now().Before(entry.expiresAt) {
		data := copyMap(entry.data)
		m.cacheMu.Unlock()
		return data
	}
	m.cacheMu.Unlock()

	if m.shared == nil {
		return nil
	}

	raw, err := m.shared.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			m.logger.Warn("shared cache read failed", "key", key, "error", err)
		}
		return nil
	}

	data := decodeJSONMap(raw)
	if data != nil {
		m.cacheMu.Lock()
		m.local[key] = localEntry{data: copyMap(data), expiresAt: m.now().Add(time.Minute)}
		m.cacheMu.Unlock()
	}
	return data
}

// storeData writes to both cache layers. Shared cache failures are logged
// and ignored. The local layer keeps its own copy so the caller's map
// stays private.
func (m *Manager) storeData(ctx context.Context, key string, data map[string]any, ttl time.Duration) {
	m.cacheMu.Lock()
	m.local[key] = localEntry{data: copyMap(data), expiresAt: m.now().Add(ttl)}
	m.cacheMu.Unlock()

	if m.shared == nil {
		return
	}
	if raw, ok := encodeJSONMap(data); ok {
		if err := m.shared.Set(ctx, key, raw, ttl); err != nil {
			m.logger.Warn("shared cache write failed", "key", key, "error", err)
		}
	}
}

// merge applies the per-source merge rules and assembles the Context.
func (m *Manager) merge(collected map[string]map[string]any, userID string) Context {
	merged := Context{
		UserID:          userID,
		DeviceStates:    map[string]any{},
		UserPreferences: map[string]any{},
		RecentActions:   []Action{},
		Timestamp:       m.now().UTC(),
	}

	if data, ok := collected[SourceUserProfile]; ok {
		if prefs, ok := data["preferences"].(map[string]any); ok {
			for k, v := range prefs {
				merged.UserPreferences[k] = v
			}
		}
	}
	if data, ok := collected[SourceDeviceStates]; ok {
		for k, v := range data {
			merged.DeviceStates[k] = v
		}
	}
	if data, ok := collected[SourceEnvironment]; ok {
		if location, ok := data["location"].(string); ok {
			merged.Location = location
		}
	}
	if data, ok := collected[SourceWeather]; ok {
		merged.Weather = data
	}
	if data, ok := collected[SourceTime]; ok {
		if timeOfDay, ok := data["time_of_day"].(string); ok {
			merged.TimeOfDay = timeOfDay
		}
	}
	if data, ok := collected[SourceHistory]; ok {
		actions := toActions(data["recent_actions"])
		if len(actions) > maxRecentActions {
			actions = actions[len(actions)-maxRecentActions:]
		}
		merged.RecentActions = actions
	}

	return merged
}

// timeData is the built-in time source.
func (m *Manager) timeData() map[string]any {
	now := m.now()
	hour := now.Hour()

	var timeOfDay string
	switch {
	case hour < 6:
		timeOfDay = "night"
	case hour < 12:
		timeOfDay = "morning"
	case hour < 18:
		timeOfDay = "afternoon"
	default:
		timeOfDay = "evening"
	}

	return map[string]any{
		"time_of_day": timeOfDay,
		"hour":        hour,
		"day_of_week": now.Weekday().String(),
		"is_weekend":  now.Weekday() == time.Saturday || now.Weekday() == time.Sunday,
		"season":      season(now.Month()),
	}
}

// season maps a month to its meteorological season.
func season(month time.Month) string {
	switch month {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

// cacheKey builds the shared cache key. The hour bucket scopes entries to
// the hour they were collected in.
func (m *Manager) cacheKey(source, userID string) string {
	user := userID
	if user == "" {
		user = "anonymous"
	}
	return fmt.Sprintf("context:%s:%s:%s", source, user, m.now().Format("2006010215"))
}

func (m *Manager) sourceByName(name string) Source {
	for _, source := range m.sources {
		if source.Name == name {
			return source
		}
	}
	return Source{Name: name, CacheTTL: 300 * time.Second}
}

func (m *Manager) fetcherFor(name string) Fetcher {
	m.fetcherMu.RLock()
	defer m.fetcherMu.RUnlock()
	return m.fetchers[name]
}
