package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"commandcenter/internal/clock"
	"commandcenter/internal/domain"
	"commandcenter/internal/kernel"
	"commandcenter/internal/metrics"
	"commandcenter/internal/repository"
	"commandcenter/internal/service"
	"commandcenter/internal/telemetry"
)

// Status strings shown to the operator
const (
	StatusReady  = "Ready"
	StatusOnline = "ONLINE"
)

// UserPrefix marks commands typed by the operator in the transcript
const UserPrefix = "USER > "

// Supervisor is the process control surface the session drives
type Supervisor interface {
	Launch(sink *kernel.Sink) error
	SendCommand(text string) error
	Stop(ctx context.Context) error
	Running() bool
	PID() int
	Done() <-chan struct{}
	LastExit() (kernel.ExitStatus, bool)
}

var _ Supervisor = (*kernel.Supervisor)(nil)

// Options tunes the coordinator
type Options struct {
	TickInterval           time.Duration
	Dt                     float64
	SyncDelay              time.Duration
	SyncCommand            string
	HistoryLimit           int
	MaxLinesPerTick        int
	FrameBroadcastInterval time.Duration
}

// DefaultOptions returns a 60Hz loop with a one second sync delay
func DefaultOptions() Options {
	return Options{
		TickInterval:           16 * time.Millisecond,
		Dt:                     0.016,
		SyncDelay:              time.Second,
		SyncCommand:            "/sync",
		HistoryLimit:           10000,
		MaxLinesPerTick:        1024,
		FrameBroadcastInterval: 100 * time.Millisecond,
	}
}

func (o *Options) applyDefaults() {
	d := DefaultOptions()
	if o.TickInterval <= 0 {
		o.TickInterval = d.TickInterval
	}
	if o.Dt <= 0 {
		o.Dt = d.Dt
	}
	if o.SyncDelay <= 0 {
		o.SyncDelay = d.SyncDelay
	}
	if o.SyncCommand == "" {
		o.SyncCommand = d.SyncCommand
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = d.HistoryLimit
	}
	if o.MaxLinesPerTick <= 0 {
		o.MaxLinesPerTick = d.MaxLinesPerTick
	}
	if o.FrameBroadcastInterval <= 0 {
		o.FrameBroadcastInterval = d.FrameBroadcastInterval
	}
}

// Deps are the collaborators of a Session. Only Supervisor is required.
type Deps struct {
	Supervisor Supervisor
	Sink       *kernel.Sink
	Graph      *domain.Graph
	Clock      clock.Clock
	Bus        *service.EventBus
	Archive    *repository.Archiver
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

// Frame is the published per-tick view of the session
type Frame struct {
	SessionID string                `json:"session_id"`
	Status    string                `json:"status"`
	Running   bool                  `json:"running"`
	LogSeq    uint64                `json:"log_seq"`
	At        time.Time             `json:"at"`
	Graph     *domain.GraphSnapshot `json:"graph"`
}

// Session coordinates the kernel, the classifier and the graph
type Session struct {
	id      string
	opts    Options
	sup     Supervisor
	sink    *kernel.Sink
	graph   *domain.Graph
	clock   clock.Clock
	bus     *service.EventBus
	archive *repository.Archiver
	metrics *metrics.Metrics
	logger  *zap.Logger

	mu        sync.Mutex
	status    string
	history   *history
	syncAt    time.Time
	syncArmed bool
	exitWatch <-chan struct{}

	frame     atomic.Pointer[Frame]
	physics   chan domain.Physics
	lastBcast time.Time
}

// New creates a session in the Ready state
func New(deps Deps, opts Options) (*Session, error) {
	if deps.Supervisor == nil {
		return nil, errors.New("session: supervisor is required")
	}
	opts.applyDefaults()

	if deps.Sink == nil {
		deps.Sink = kernel.NewSink(kernel.DefaultSinkCapacity)
	}
	if deps.Graph == nil {
		deps.Graph = domain.NewGraph()
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Bus == nil {
		deps.Bus = service.NewEventBus()
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	id := uuid.NewString()
	s := &Session{
		id:      id,
		opts:    opts,
		sup:     deps.Supervisor,
		sink:    deps.Sink,
		graph:   deps.Graph,
		clock:   deps.Clock,
		bus:     deps.Bus,
		archive: deps.Archive,
		metrics: deps.Metrics,
		logger:  deps.Logger.Named("session").With(zap.String("session_id", id)),
		status:  StatusReady,
		history: newHistory(opts.HistoryLimit),
		physics: make(chan domain.Physics, 1),
	}
	s.publishFrame(s.clock.Now())
	return s, nil
}

// ID returns the session id
func (s *Session) ID() string {
	return s.id
}

// Bus returns the event bus frames and log lines are published on
func (s *Session) Bus() *service.EventBus {
	return s.bus
}

// Archive returns the transcript archiver, or nil when archiving is off
func (s *Session) Archive() *repository.Archiver {
	return s.archive
}

// Launch starts the kernel and arms the one-shot sync command.
// On failure the status becomes "ERROR: <err>" and the error is returned; Launch
// may be called again.
func (s *Session) Launch() error {
	err := s.sup.Launch(s.sink)
	s.metrics.Launches.WithLabelValues(metrics.Result(err)).Inc()
	if errors.Is(err, kernel.ErrAlreadyRunning) {
		return err
	}
	if err != nil {
		s.setStatus("ERROR: " + err.Error())
		return err
	}

	s.mu.Lock()
	s.syncAt = s.clock.Now().Add(s.opts.SyncDelay)
	s.syncArmed = true
	s.exitWatch = s.sup.Done()
	s.mu.Unlock()

	s.logger.Info("Kernel online", zap.Int("pid", s.sup.PID()))
	s.setStatus(StatusOnline)
	return nil
}

// ErrMultilineCommand is returned by Send for text containing CR or LF
var ErrMultilineCommand = errors.New("command must be a single line")

// Send forwards an operator command to the kernel. Blank commands are ignored.
// kernel.ErrNotRunning is returned when no kernel is live.
func (s *Session) Send(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if strings.ContainsAny(text, "\r\n") {
		return ErrMultilineCommand
	}

	err := s.sup.SendCommand(text)
	s.metrics.Commands.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	s.appendLog(LogEntry{Text: UserPrefix + text, At: s.clock.Now()})
	return nil
}

// Stop shuts the kernel down, killing it if ctx expires first
func (s *Session) Stop(ctx context.Context) error {
	return s.sup.Stop(ctx)
}

// Running reports whether the kernel is alive
func (s *Session) Running() bool {
	return s.sup.Running()
}

// SetPhysics replaces the layout constants at the start of the next tick.
// Only the most recent value is kept.
func (s *Session) SetPhysics(p domain.Physics) {
	for {
		select {
		case s.physics <- p:
			return
		default:
		}
		select {
		case <-s.physics:
		default:
		}
	}
}

// Status returns the operator-facing status line
func (s *Session) Status() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Frame returns the most recently published frame; never nil
func (s *Session) Frame() *Frame {
	return s.frame.Load()
}

// Logs returns transcript entries newer than since, oldest first
func (s *Session) Logs(since uint64) []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.since(since)
}

// Run calls Tick every TickInterval until ctx is cancelled
func (s *Session) Run(ctx context.Context) error {
	ticker := s.clock.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()

	s.logger.Info("Coordinator started", zap.Duration("interval", s.opts.TickInterval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Coordinator stopped", zap.Uint64("ticks", s.graph.Ticks()))
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick runs one coordinator step. It never blocks and must only be called from
// one goroutine.
func (s *Session) Tick() {
	start := time.Now()
	now := s.clock.Now()

	select {
	case p := <-s.physics:
		s.graph.SetPhysics(p)
		s.logger.Info("Physics updated")
	default:
	}

	s.fireSync(now)
	// an exit seen before draining means every line the kernel wrote is buffered
	exited := s.exited()
	if s.ingest() && exited != nil {
		s.observeExit(exited, now)
	}

	s.graph.Simulate(s.opts.Dt)
	s.graph.DecayActivations()
	s.publishFrame(now)

	s.metrics.Nodes.Set(float64(s.graph.NodeCount()))
	s.metrics.Edges.Set(float64(s.graph.EdgeCount()))
	s.metrics.TickDuration.Observe(time.Since(start).Seconds())
}

// fireSync sends the sync command once its deadline has passed
func (s *Session) fireSync(now time.Time) {
	s.mu.Lock()
	due := s.syncArmed && !now.Before(s.syncAt)
	if due {
		s.syncArmed = false
	}
	s.mu.Unlock()

	if !due {
		return
	}
	if err := s.sup.SendCommand(s.opts.SyncCommand); err != nil {
		s.logger.Warn("Sync command failed", zap.String("command", s.opts.SyncCommand), zap.Error(err))
		return
	}
	s.logger.Debug("Sync command sent", zap.String("command", s.opts.SyncCommand))
}

// exited returns the exit channel of the watched kernel if it has closed
func (s *Session) exited() <-chan struct{} {
	s.mu.Lock()
	watch := s.exitWatch
	s.mu.Unlock()
	if watch == nil {
		return nil
	}

	select {
	case <-watch:
		return watch
	default:
		return nil
	}
}

// observeExit records the end of the kernel whose exit channel is watch
func (s *Session) observeExit(watch <-chan struct{}, now time.Time) {
	s.mu.Lock()
	if s.exitWatch != watch {
		s.mu.Unlock()
		return
	}
	s.exitWatch = nil
	s.syncArmed = false
	s.mu.Unlock()

	status, _ := s.sup.LastExit()
	s.logger.Info("Kernel exit observed", zap.String("status", status.String()))
	s.appendLog(LogEntry{Text: fmt.Sprintf("[KERNEL] exited (%s)", status), At: now})
	s.setStatus(fmt.Sprintf("OFFLINE (%s)", status))
	s.bus.Publish(service.Event{Type: service.EventKernelExited, Payload: status})
}

// ingest drains up to MaxLinesPerTick lines and applies their events.
// It reports whether the sink was emptied.
func (s *Session) ingest() bool {
	lines := s.sink.Drain(s.opts.MaxLinesPerTick)
	for _, line := range lines {
		entry := LogEntry{Stream: line.Stream, Text: line.Text, At: line.At}
		if ev, ok := telemetry.Classify(line.Text); ok {
			s.apply(ev)
			entry.Kind = domain.EventKind(ev)
		}
		entry = s.appendLog(entry)

		s.metrics.LinesIngested.WithLabelValues(string(line.Stream)).Inc()
		if s.archive != nil {
			s.archive.Enqueue(repository.TranscriptRecord{
				SessionID:  s.id,
				Stream:     string(line.Stream),
				Text:       line.Text,
				EventKind:  entry.Kind,
				ReceivedAt: line.At,
			})
		}
	}
	return len(lines) < s.opts.MaxLinesPerTick
}

// apply mutates the graph for one event
func (s *Session) apply(ev domain.GraphEvent) {
	switch e := ev.(type) {
	case domain.NodeAdded:
		s.graph.AddNode(e.ID, e.NodeType)
	case domain.EdgeAdded:
		s.graph.AddRelation(e.Source, e.Target, e.Relation)
	case domain.Activation:
		if !s.graph.Activate(e.ID, e.Level) {
			s.logger.Debug("Activation for unknown node", zap.String("id", e.ID))
		}
	default:
		panic(fmt.Sprintf("session: unhandled graph event %T", ev))
	}
	s.metrics.EventsApplied.WithLabelValues(domain.EventKind(ev)).Inc()
}

func (s *Session) appendLog(e LogEntry) LogEntry {
	s.mu.Lock()
	e = s.history.append(e)
	s.mu.Unlock()

	s.bus.Publish(service.Event{Type: service.EventLogLine, Payload: e})
	return e
}

func (s *Session) setStatus(status string) {
	s.mu.Lock()
	changed := s.status != status
	s.status = status
	s.mu.Unlock()

	if changed {
		s.bus.Publish(service.Event{Type: service.EventStatusChanged, Payload: status})
	}
}

// publishFrame stores a fresh frame and broadcasts it at most once per
// FrameBroadcastInterval
func (s *Session) publishFrame(now time.Time) {
	s.mu.Lock()
	status, seq := s.status, s.history.last()
	s.mu.Unlock()

	f := &Frame{
		SessionID: s.id,
		Status:    status,
		Running:   s.sup.Running(),
		LogSeq:    seq,
		At:        now,
		Graph:     s.graph.Snapshot(),
	}
	s.frame.Store(f)

	if s.lastBcast.IsZero() || now.Sub(s.lastBcast) >= s.opts.FrameBroadcastInterval {
		s.lastBcast = now
		s.bus.Publish(service.Event{Type: service.EventFrame, Payload: f})
	}
}
