// Package connection implements the realtime link to the game server.
//
// The Client wraps a single WebSocket and exposes channel-based reads; the
// Manager owns the live socket and wires together the session store, the
// wire parser, the reconnection policy, and the heartbeat timer, publishing
// typed events to whoever subscribes. The manager is the only component
// permitted to open or close the socket.
package connection
