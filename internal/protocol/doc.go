// Package protocol defines the transport-agnostic device protocol contract
// for Lumina Core.
//
// Every transport (MQTT, HTTP, WebSocket) implements the Protocol interface:
// connect/disconnect, publish/subscribe, and a uniform SendCommand operation.
// Transports share a connection state machine and notify registered observers
// of state transitions and inbound messages.
//
// # State Machine
//
//	DISCONNECTED ──connect──▶ CONNECTING ──success──▶ CONNECTED
//	CONNECTING ──failure──▶ ERROR
//	CONNECTED ──disconnect──▶ DISCONNECTED
//	any failure mid-session ──▶ ERROR
//
// DISCONNECTED is the initial state and the terminal state on shutdown.
//
// # Observer Fan-Out
//
// Observers register via AddObserver and receive OnMessage and OnStateChange
// notifications. Delivery is asynchronous: each observer is drained by its own
// goroutine, so one slow or panicking observer never blocks the others. A
// single observer always receives notifications in the order they were raised
// on the protocol instance; there is no ordering guarantee between observers.
//
// # Key Types
//
//   - Protocol: the per-transport contract
//   - Message: generic inbound/outbound protocol message
//   - State: connection state enum
//   - CommandResult: structured result of SendCommand
//   - Base: embeddable state + observer plumbing shared by transports
//
// # Usage
//
//	p := mqtt.New(cfg, logger)
//	p.AddObserver(myObserver)
//	if err := p.Connect(ctx); err != nil {
//	    return err
//	}
//	defer p.Disconnect(context.Background())
//
//	result, err := p.SendCommand(ctx, "light-1", "lumina/command/light-1", params)
package protocol
