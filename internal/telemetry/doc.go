// Package telemetry turns raw kernel log lines into graph events.
//
// The kernel's output is a loose text convention rather than a protocol, so the
// classifier is a fixed list of literal marker recipes checked in order. Classify is
// total: any line that matches nothing yields no event and is still kept by the caller
// as plain history.
package telemetry
