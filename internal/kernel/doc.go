// Package kernel supervises the external cognitive-engine process.
//
// A Supervisor owns exactly one child at a time. It bridges the child's standard
// streams to the rest of the command center:
//
//   - stdout and stderr are read line by line by two independent goroutines and
//     forwarded into a single Sink; stderr lines carry the "[STDERR] " prefix.
//   - stdin is the command channel. SendCommand queues one newline-terminated line
//     for the launch's single writer goroutine and never waits on the pipe.
//
// Lines from one stream keep their order in the Sink. There is no ordering between
// stdout and stderr lines.
//
// A Sink has exactly one consumer (the session coordinator), which drains it without
// blocking once per tick. Producers block when the buffer is full so no line is lost.
//
// # Errors
//
// Launch failures are reported synchronously as *LaunchError. SendCommand returns
// ErrNotRunning when no child is alive and ErrCommandQueueFull when the child has
// stopped reading its input. The end of a stream is not an error: it is
// observed through Done and LastExit once the child has been reaped.
package kernel
