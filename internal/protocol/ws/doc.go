// Package ws implements the Lumina protocol contract over a WebSocket
// connection using gorilla/websocket.
//
// # Mapping
//
// WebSocket is a single bidirectional stream, so topics are carried inside
// JSON envelopes rather than in the transport:
//
//   - Publish sends {"topic": ..., "payload": ..., "qos": ..., "retain": ...}.
//   - SendCommand sends {"device_id": ..., "command": ..., "parameters": ...}.
//     When parameters contain "wait_for_response": true, the next inbound
//     frame is consumed as the command response instead of being broadcast.
//   - Subscribe/Unsubscribe succeed without doing anything: the stream
//     already carries every message, and observers receive them all.
//
// # Connection Lifecycle
//
// Connect dials the configured URL and starts a read loop goroutine plus a
// ping loop keeping the connection alive. A read failure mid-session moves
// the state machine to ERROR; Disconnect performs a clean close handshake
// and waits for the read loop to exit before reporting DISCONNECTED.
package ws
