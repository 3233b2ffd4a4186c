// Package httpx implements the Lumina protocol contract over HTTP request/
// response semantics using net/http.
//
// # Mapping
//
// HTTP is pull-based, so the push-oriented contract is mapped as follows:
//
//   - Connect: initialises the shared http.Client (no network activity).
//   - Publish: POSTs the payload to the topic, which is interpreted as a URL.
//   - Subscribe/Unsubscribe: no-ops that succeed. HTTP has no push channel;
//     callers needing push semantics should use the MQTT or WebSocket
//     transports instead.
//   - SendCommand: the command is the HTTP verb (GET, POST, PUT, DELETE).
//     Parameters carry "url" (required), "headers", "body", and "query".
//
// # Usage
//
//	p := httpx.New(cfg.HTTP, logger)
//	p.Connect(ctx)
//	result, err := p.SendCommand(ctx, "thermostat-hall", "GET", map[string]any{
//	    "url": "http://192.168.1.40/api/state",
//	})
//
// The package name avoids shadowing net/http at import sites.
package httpx
