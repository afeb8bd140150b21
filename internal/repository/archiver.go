package repository

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultQueueSize     = 8192
	defaultBatchSize     = 256
	defaultFlushInterval = 500 * time.Millisecond
)

// ArchiverOptions tunes batching
type ArchiverOptions struct {
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	// OnDrop is called for every record rejected by a full queue
	OnDrop func()
}

// Archiver batches transcript records into a store in the background
type Archiver struct {
	store  TranscriptStore
	opts   ArchiverOptions
	logger *zap.Logger

	queue   chan TranscriptRecord
	stopped chan struct{}
	once    sync.Once
}

// NewArchiver creates an archiver; call Run to start writing
func NewArchiver(store TranscriptStore, opts ArchiverOptions, logger *zap.Logger) *Archiver {
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaultQueueSize
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = defaultFlushInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		store:   store,
		opts:    opts,
		logger:  logger.Named("archive"),
		queue:   make(chan TranscriptRecord, opts.QueueSize),
		stopped: make(chan struct{}),
	}
}

// Enqueue hands a record to the writer without blocking.
// It returns false when the queue is full or the archiver has stopped.
func (a *Archiver) Enqueue(rec TranscriptRecord) bool {
	select {
	case <-a.stopped:
		return false
	default:
	}

	select {
	case a.queue <- rec:
		return true
	default:
		if a.opts.OnDrop != nil {
			a.opts.OnDrop()
		}
		return false
	}
}

// Store returns the underlying store for reads
func (a *Archiver) Store() TranscriptStore {
	return a.store
}

// Run writes batches until ctx is cancelled, then flushes what is queued
func (a *Archiver) Run(ctx context.Context) error {
	defer a.once.Do(func() { close(a.stopped) })

	ticker := time.NewTicker(a.opts.FlushInterval)
	defer ticker.Stop()

	batch := make([]TranscriptRecord, 0, a.opts.BatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := a.store.AppendLines(ctx, batch); err != nil {
			a.logger.Error("Failed to archive telemetry", zap.Int("records", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-a.queue:
			batch = append(batch, rec)
			if len(batch) >= a.opts.BatchSize {
				flush(ctx)
			}

		case <-ticker.C:
			flush(ctx)

		case <-ctx.Done():
			// drain what is already queued with a fresh deadline
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			for {
				select {
				case rec := <-a.queue:
					batch = append(batch, rec)
					if len(batch) >= a.opts.BatchSize {
						flush(flushCtx)
					}
				default:
					flush(flushCtx)
					return nil
				}
			}
		}
	}
}
