package protocol

import "sync"

// Base provides the state machine and observer plumbing shared by all
// transport implementations. Transports embed Base and call SetState on
// every transition; SetState records the new state and broadcasts it.
//
// Thread Safety: all methods are safe for concurrent use.
type Base struct {
	name string

	stateMu sync.RWMutex
	state   State

	broadcaster *Broadcaster
}

// NewBase creates the shared plumbing for a transport.
// The initial state is DISCONNECTED.
func NewBase(name string, logger Logger) Base {
	return Base{
		name:        name,
		state:       StateDisconnected,
		broadcaster: NewBroadcaster(logger),
	}
}

// Name returns the transport name.
func (b *Base) Name() string {
	return b.name
}

// State returns the current connection state.
func (b *Base) State() State {
	b.stateMu.RLock()
	defer b.stateMu.RUnlock()
	return b.state
}

// SetState records a state transition and notifies all observers.
// err carries the triggering failure for ERROR transitions, nil otherwise.
func (b *Base) SetState(state State, err error) {
	b.stateMu.Lock()
	b.state = state
	b.stateMu.Unlock()

	b.broadcaster.NotifyStateChange(state, err)
}

// NotifyMessage broadcasts an inbound message to all observers.
func (b *Base) NotifyMessage(msg Message) {
	b.broadcaster.NotifyMessage(msg)
}

// AddObserver registers an observer for messages and state changes.
func (b *Base) AddObserver(obs Observer) {
	b.broadcaster.Add(obs)
}

// RemoveObserver deregisters an observer.
func (b *Base) RemoveObserver(obs Observer) {
	b.broadcaster.Remove(obs)
}

// CloseObservers stops all observer delivery goroutines.
// Call once during final teardown.
func (b *Base) CloseObservers() {
	b.broadcaster.Close()
}
