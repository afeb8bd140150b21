package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"commandcenter/internal/repository"
)

// newTestRepo creates an in-memory SQLite repository for testing
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
	})
	return repo
}

func record(session, text, kind string, at time.Time) repository.TranscriptRecord {
	return repository.TranscriptRecord{
		SessionID:  session,
		Stream:     "stdout",
		Text:       text,
		EventKind:  kind,
		ReceivedAt: at,
	}
}

func TestAppendAndRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Unix(1700000000, 123)

	require.NoError(t, repo.AppendLines(ctx, []repository.TranscriptRecord{
		record("s1", "[Perception] Node: Fire | Type: ACTION", "node_added", at),
		record("s1", "booting", "", at.Add(time.Second)),
		record("s2", "[STDERR] warn", "", at.Add(2*time.Second)),
	}))

	t.Run("returns newest lines oldest first", func(t *testing.T) {
		recs, err := repo.Recent(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "booting", recs[0].Text)
		assert.Equal(t, "[STDERR] warn", recs[1].Text)
		assert.Less(t, recs[0].ID, recs[1].ID)
	})

	t.Run("round-trips fields", func(t *testing.T) {
		recs, err := repo.Recent(ctx, 10)
		require.NoError(t, err)
		require.Len(t, recs, 3)
		assert.Equal(t, "s1", recs[0].SessionID)
		assert.Equal(t, "node_added", recs[0].EventKind)
		assert.Equal(t, "", recs[1].EventKind)
		assert.True(t, at.Equal(recs[0].ReceivedAt))
	})

	t.Run("counts by session", func(t *testing.T) {
		n, err := repo.CountBySession(ctx, "s1")
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		n, err = repo.CountBySession(ctx, "missing")
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestAppendEmpty(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.AppendLines(context.Background(), nil))

	recs, err := repo.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestFileDatabaseSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	ctx := context.Background()

	repo, err := New(path)
	require.NoError(t, err)
	require.NoError(t, repo.AppendLines(ctx, []repository.TranscriptRecord{record("s", "line", "", time.Now())}))
	require.NoError(t, repo.Close())

	repo, err = New(path)
	require.NoError(t, err)
	defer repo.Close()
	n, err := repo.CountBySession(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArchiverFlushesOnShutdown(t *testing.T) {
	repo := newTestRepo(t)
	archiver := repository.NewArchiver(repo, repository.ArchiverOptions{
		BatchSize:     10,
		FlushInterval: time.Hour,
	}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- archiver.Run(ctx) }()

	for i := 0; i < 25; i++ {
		require.True(t, archiver.Enqueue(record("s", fmt.Sprint(i), "", time.Now())))
	}
	cancel()
	require.NoError(t, <-done)

	n, err := repo.CountBySession(context.Background(), "s")
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.False(t, archiver.Enqueue(record("s", "late", "", time.Now())))
}

func TestArchiverDropsWhenFull(t *testing.T) {
	repo := newTestRepo(t)
	dropped := 0
	archiver := repository.NewArchiver(repo, repository.ArchiverOptions{
		QueueSize: 2,
		OnDrop:    func() { dropped++ },
	}, zap.NewNop())

	assert.True(t, archiver.Enqueue(record("s", "1", "", time.Now())))
	assert.True(t, archiver.Enqueue(record("s", "2", "", time.Now())))
	assert.False(t, archiver.Enqueue(record("s", "3", "", time.Now())))
	assert.Equal(t, 1, dropped)
}
