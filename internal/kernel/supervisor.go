package kernel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config describes how to start the kernel
type Config struct {
	Command string   // executable, resolved through PATH
	Args    []string // e.g. the kernel script path
	Dir     string   // working directory; empty means the current one
	Env     []string // extra KEY=VALUE pairs appended to the parent environment

	// CommandQueue bounds commands waiting for the stdin writer; 0 means DefaultCommandQueue
	CommandQueue int
}

// DefaultCommandQueue is the number of commands buffered ahead of the kernel's stdin
const DefaultCommandQueue = 64

// ExitStatus describes how a kernel process ended
type ExitStatus struct {
	PID  int       `json:"pid"`
	Code int       `json:"code"` // -1 when killed by a signal
	Err  string    `json:"error,omitempty"`
	At   time.Time `json:"at"`
}

func (s ExitStatus) String() string {
	if s.Err != "" {
		return s.Err
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// Supervisor owns the lifecycle of one kernel process at a time
type Supervisor struct {
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	cmd      *exec.Cmd
	commands chan string // nil once stdin is being closed
	running  bool
	done     chan struct{}
	lastExit *ExitStatus
}

// NewSupervisor creates a supervisor; no process is started until Launch
func NewSupervisor(cfg Config, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CommandQueue <= 0 {
		cfg.CommandQueue = DefaultCommandQueue
	}
	return &Supervisor{
		cfg:    cfg,
		logger: logger.Named("kernel"),
	}
}

// Launch starts the kernel and begins forwarding its output into sink.
// Start failures are returned as *LaunchError; the supervisor stays idle and
// Launch may be retried.
func (s *Supervisor) Launch(sink *Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(s.cfg.Command, s.cfg.Args...)
	cmd.Dir = s.cfg.Dir
	if len(s.cfg.Env) > 0 {
		cmd.Env = append(os.Environ(), s.cfg.Env...)
	}

	fail := func(err error) error {
		s.logger.Warn("Kernel launch failed",
			zap.String("command", s.cfg.Command),
			zap.Strings("args", s.cfg.Args),
			zap.Error(err),
		)
		return &LaunchError{Command: s.cfg.Command, Err: err}
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fail(fmt.Errorf("stdin pipe: %w", err))
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fail(fmt.Errorf("stdout pipe: %w", err))
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fail(fmt.Errorf("stderr pipe: %w", err))
	}

	if err := cmd.Start(); err != nil {
		return fail(err)
	}

	done := make(chan struct{})
	commands := make(chan string, s.cfg.CommandQueue)
	s.cmd = cmd
	s.commands = commands
	s.running = true
	s.done = done

	pid := cmd.Process.Pid
	logger := s.logger.With(zap.Int("pid", pid))
	logger.Info("Kernel launched",
		zap.String("command", s.cfg.Command),
		zap.Strings("args", s.cfg.Args),
		zap.String("dir", s.cfg.Dir),
	)

	go s.writeCommands(stdin, commands, logger)

	var readers sync.WaitGroup
	readers.Add(2)
	go s.readLines(stdout, StreamStdout, sink, logger, &readers)
	go s.readLines(stderr, StreamStderr, sink, logger, &readers)

	// Reap once both streams are drained; Wait closes the pipes.
	go func() {
		readers.Wait()
		waitErr := cmd.Wait()

		status := ExitStatus{PID: pid, Code: cmd.ProcessState.ExitCode(), At: time.Now()}
		if waitErr != nil {
			status.Err = waitErr.Error()
		}

		s.mu.Lock()
		if s.cmd == cmd {
			s.running = false
			if s.commands != nil {
				close(s.commands)
				s.commands = nil
			}
		}
		s.lastExit = &status
		s.mu.Unlock()

		logger.Info("Kernel exited", zap.Int("code", status.Code), zap.String("status", status.String()))
		close(done)
	}()

	return nil
}

// readLines forwards every line of r into sink until the stream ends.
// A read error ends the loop quietly; the exit is observed through Done.
func (s *Supervisor) readLines(r io.Reader, stream Stream, sink *Sink, logger *zap.Logger, wg *sync.WaitGroup) {
	defer wg.Done()

	br := bufio.NewReader(r)
	for {
		text, err := br.ReadString('\n')
		if len(text) > 0 {
			text = strings.TrimSuffix(text, "\n")
			text = strings.TrimSuffix(text, "\r")
			if stream == StreamStderr {
				text = StderrPrefix + text
			}
			if !sink.Send(Line{Stream: stream, Text: text, At: time.Now()}) {
				logger.Debug("Sink closed, dropping kernel output", zap.String("stream", string(stream)))
				// keep draining so the child never blocks on a full pipe
				_, _ = io.Copy(io.Discard, br)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("Kernel stream ended", zap.String("stream", string(stream)), zap.Error(err))
			}
			return
		}
	}
}

// writeCommands is the only writer of the kernel's stdin. It closes stdin once
// commands is closed and drained. A failed write drops the command; the pipe is
// broken only when the kernel is gone, which the reaper reports.
func (s *Supervisor) writeCommands(stdin io.WriteCloser, commands <-chan string, logger *zap.Logger) {
	defer stdin.Close()

	for text := range commands {
		if _, err := io.WriteString(stdin, text+"\n"); err != nil {
			logger.Debug("Dropping kernel command", zap.Int("bytes", len(text)), zap.Error(err))
		}
	}
}

// SendCommand queues text plus a newline for the kernel's stdin and returns
// without waiting for the write. ErrCommandQueueFull is returned when the
// kernel has stopped reading its input.
func (s *Supervisor) SendCommand(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.commands == nil {
		return ErrNotRunning
	}

	select {
	case s.commands <- text:
		return nil
	default:
		return ErrCommandQueueFull
	}
}

// Running reports whether a kernel process is alive
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// PID returns the process id of the live kernel, or 0
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Done returns a channel closed when the most recently launched kernel has exited
// and both of its streams are drained. It is nil before the first launch.
func (s *Supervisor) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// LastExit returns the exit status of the most recent kernel that ended
func (s *Supervisor) LastExit() (ExitStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastExit == nil {
		return ExitStatus{}, false
	}
	return *s.lastExit, true
}

// Stop closes the kernel's stdin once queued commands are written and waits
// for it to exit. If ctx expires first the process is killed and ctx.Err() is
// returned; a write stalled on a kernel that never reads fails with the kill.
func (s *Supervisor) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cmd, done := s.cmd, s.done
	if s.commands != nil {
		close(s.commands)
		s.commands = nil
	}
	s.mu.Unlock()

	s.logger.Info("Stopping kernel", zap.Int("pid", cmd.Process.Pid))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
	}

	s.logger.Warn("Kernel did not exit in time, killing", zap.Int("pid", cmd.Process.Pid))
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill kernel: %w", err)
	}
	<-done
	return ctx.Err()
}
