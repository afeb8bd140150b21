// Package service carries the command center's internal event stream.
//
// EventBus fans out session events (frames, log lines, status changes, kernel exits)
// to subscribers such as the SSE/WebSocket hub. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
package service
