package device

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/luminahome/lumina-core/internal/protocol"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the explicit in-memory device catalogue.
//
// It is constructed once at startup and passed by reference into the
// components that need it; there is no ambient global state. Devices cross
// the API boundary as deep copies so callers can never mutate the catalogue
// behind its back.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Device
	logger  Logger
	now     func() time.Time
}

// NewRegistry creates an empty device registry.
// A nil logger is replaced by a no-op implementation.
func NewRegistry(logger Logger) *Registry {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Registry{
		devices: make(map[string]*Device),
		logger:  logger,
		now:     time.Now,
	}
}

// Register adds a device to the catalogue.
//
// The device is validated, its capability map is inferred from its current
// state when absent, and LastSeen is stamped. Returns ErrExists when the ID
// is already registered.
func (r *Registry) Register(dev *Device) error {
	if err := validate(dev); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[dev.ID]; ok {
		return fmt.Errorf("%w: %s", ErrExists, dev.ID)
	}

	stored := dev.DeepCopy()
	if stored.Capabilities == nil {
		stored.Capabilities = InferCapabilities(stored.Domain, map[string]any{"state": stored.State})
	}
	stored.LastSeen = r.now().UTC()
	r.devices[stored.ID] = stored

	r.logger.Info("device registered", "id", stored.ID, "domain", stored.Domain, "protocol", stored.Protocol)
	return nil
}

// Get retrieves a device by ID.
// Returns ErrNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) Get(id string) (*Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dev, ok := r.devices[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return dev.DeepCopy(), nil
}

// List retrieves all devices.
// The returned devices are deep copies; callers can safely modify them.
func (r *Registry) List() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]Device, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, *d.DeepCopy())
	}
	return devices
}

// ByDomain retrieves all devices in a specific domain.
func (r *Registry) ByDomain(domain Domain) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []Device
	for _, d := range r.devices {
		if d.Domain == domain {
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices
}

// ByProtocol retrieves all devices reachable through a specific transport.
func (r *Registry) ByProtocol(protocol string) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []Device
	for _, d := range r.devices {
		if d.Protocol == protocol {
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices
}

// ByCapability retrieves all devices whose capability map has the named
// capability set to true.
func (r *Registry) ByCapability(capability string) []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []Device
	for _, d := range r.devices {
		if d.Capabilities[capability] {
			devices = append(devices, *d.DeepCopy())
		}
	}
	return devices
}

// UpdateState refreshes a device's raw state from a transport report.
//
// The capability map is re-inferred from the new state and LastSeen is
// stamped. Returns ErrNotFound if the device does not exist.
func (r *Registry) UpdateState(id string, state map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cached, ok := r.devices[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	// Atomic replacement so concurrent readers never observe a half-updated
	// device.
	updated := cached.DeepCopy()
	updated.State = deepCopyMap(state)
	updated.Capabilities = InferCapabilities(updated.Domain, map[string]any{"state": updated.State})
	updated.LastSeen = r.now().UTC()
	r.devices[id] = updated

	r.logger.Debug("device state updated", "id", id)
	return nil
}

// Control builds the typed control for a registered device.
//
// Unlike NewControl, the control carries the catalogue entry, so HTTP
// devices get their URL mapping from metadata. Returns ErrNotFound if the
// device does not exist.
func (r *Registry) Control(id string, proto protocol.Protocol) (Control, error) {
	dev, err := r.Get(id)
	if err != nil {
		return nil, err
	}

	ctor, ok := controlConstructors[dev.Domain]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDomain, dev.Domain)
	}
	return ctor(proto, dev), nil
}

// Remove deletes a device from the catalogue.
// Returns ErrNotFound if the device does not exist.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(r.devices, id)

	r.logger.Info("device removed", "id", id)
	return nil
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// Stats returns registry statistics for monitoring.
type Stats struct {
	TotalDevices int
	ByDomain     map[Domain]int
	ByProtocol   map[string]int
}

// GetStats returns current registry statistics.
func (r *Registry) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		TotalDevices: len(r.devices),
		ByDomain:     make(map[Domain]int),
		ByProtocol:   make(map[string]int),
	}
	for _, d := range r.devices {
		stats.ByDomain[d.Domain]++
		stats.ByProtocol[d.Protocol]++
	}
	return stats
}

// validate checks the fields a registry entry must carry.
func validate(dev *Device) error {
	if dev == nil {
		return fmt.Errorf("%w: nil device", ErrInvalidDevice)
	}
	if strings.TrimSpace(dev.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDevice)
	}
	if strings.TrimSpace(dev.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDevice)
	}
	if _, err := ParseDomain(string(dev.Domain)); err != nil {
		return err
	}
	return nil
}
