// Package repository defines the transcript archive for kernel telemetry.
//
// The archive keeps raw kernel output lines, tagged with the session that received
// them and the kind of graph event each produced. It is an audit trail only: the
// live graph is never rebuilt from it.
//
// # Archiver
//
// Archiver decouples the session coordinator from storage latency. The coordinator
// enqueues without blocking; a background goroutine batches records into the
// TranscriptStore. When the queue is full the record is dropped and counted.
//
// # SQLite Implementation
//
// The sqlite subpackage implements TranscriptStore on modernc.org/sqlite with WAL
// mode and migrates its schema on open.
package repository
