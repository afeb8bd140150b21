// Package handler implements the HTTP API for the command center.
//
// The API is the boundary to the rendering front-end: it serves read-only
// per-tick frames and the transcript, and accepts operator commands and kernel
// lifecycle requests. Live updates are streamed over /events (SSE) and /ws
// (WebSocket) by the hub.
//
// Errors are returned as JSON with an {error, details} structure and an
// appropriate status code.
package handler
