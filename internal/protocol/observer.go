package protocol

import (
	"sync"
)

// Observer receives push notifications from a protocol instance.
//
// Implementations must tolerate concurrent delivery relative to other
// observers; within one observer, notifications arrive in the order they
// were raised on the protocol instance.
type Observer interface {
	// OnMessage is called for every inbound message decoded by the transport.
	OnMessage(msg Message)

	// OnStateChange is called on every connection state transition.
	// err is non-nil when the transition was caused by a failure.
	OnStateChange(state State, err error)
}

// Logger is the narrow logging interface used by the protocol layer.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// notifyBufferSize is the per-observer notification queue depth.
// Observers that fall further behind than this drop notifications
// rather than blocking the broadcast path.
const notifyBufferSize = 64

// notification is a single queued observer event.
type notification struct {
	isState bool
	msg     Message
	state   State
	err     error
}

// subscriber is the delivery handle for one registered observer.
// A dedicated goroutine drains the queue so ordering is preserved
// per observer without coupling observers to each other.
type subscriber struct {
	queue chan notification
	done  chan struct{}
}

// Broadcaster fans protocol notifications out to registered observers.
//
// Each observer gets its own queue and drain goroutine, so:
//   - broadcast never blocks on a slow observer (fire-and-forget)
//   - one observer's panic is recovered and logged, never propagated
//   - a single observer sees notifications in raise order
//
// Thread Safety: all methods are safe for concurrent use.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[Observer]*subscriber
	logger Logger
}

// NewBroadcaster creates an empty broadcaster.
// A nil logger is replaced with a no-op logger.
func NewBroadcaster(logger Logger) *Broadcaster {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Broadcaster{
		subs:   make(map[Observer]*subscriber),
		logger: logger,
	}
}

// Add registers an observer. Adding the same observer twice is a no-op.
func (b *Broadcaster) Add(obs Observer) {
	if obs == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.subs[obs]; exists {
		return
	}

	sub := &subscriber{
		queue: make(chan notification, notifyBufferSize),
		done:  make(chan struct{}),
	}
	b.subs[obs] = sub

	go b.drain(obs, sub)
}

// Remove deregisters an observer and stops its drain goroutine.
// Queued notifications that have not yet been delivered are discarded.
func (b *Broadcaster) Remove(obs Observer) {
	b.mu.Lock()
	sub, exists := b.subs[obs]
	if exists {
		delete(b.subs, obs)
	}
	b.mu.Unlock()

	if exists {
		close(sub.done)
	}
}

// NotifyMessage broadcasts an inbound message to all observers.
func (b *Broadcaster) NotifyMessage(msg Message) {
	b.broadcast(notification{msg: msg})
}

// NotifyStateChange broadcasts a state transition to all observers.
func (b *Broadcaster) NotifyStateChange(state State, err error) {
	b.broadcast(notification{isState: true, state: state, err: err})
}

// Close stops all drain goroutines and clears the observer list.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[Observer]*subscriber)
	b.mu.Unlock()

	for _, sub := range subs {
		close(sub.done)
	}
}

// Count returns the number of registered observers.
func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// broadcast enqueues a notification for every observer without blocking.
func (b *Broadcaster) broadcast(n notification) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.queue <- n:
		default:
			// Observer is too far behind; drop rather than block.
			b.logger.Warn("observer queue full, dropping notification")
		}
	}
}

// drain delivers queued notifications to one observer, in order,
// recovering panics so a faulty observer cannot take down the transport.
func (b *Broadcaster) drain(obs Observer, sub *subscriber) {
	for {
		select {
		case <-sub.done:
			return
		case n := <-sub.queue:
			b.deliver(obs, n)
		}
	}
}

// deliver invokes the observer callback with panic recovery.
func (b *Broadcaster) deliver(obs Observer, n notification) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("observer panic recovered", "panic", r)
		}
	}()

	if n.isState {
		obs.OnStateChange(n.state, n.err)
		return
	}
	obs.OnMessage(n.msg)
}
