// Package hub fans session events out to browser clients over SSE and WebSocket.
// WebSocket clients may also send commands, which are forwarded to the kernel.
package hub
