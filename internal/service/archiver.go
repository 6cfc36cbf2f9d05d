package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/domain"
	"github.com/DGikuma/TempleOfTruthChurchBackend/internal/repository"
	"github.com/DGikuma/TempleOfTruthChurchBackend/pkg/log"
)

const (
	archiveAttempts = 3
	archiveBackoff  = 2 * time.Second
	archiveTimeout  = 30 * time.Second
)

// Archiver writes terminal snapshots to durable storage in the
// background. Failures are retried with backoff and never reach the
// caller; a stream that ended stays ended even if the archive is slow.
type Archiver struct {
	archive     repository.ArchiveRepository
	chatArchive repository.ChatArchive
	wg          sync.WaitGroup
}

// NewArchiver creates a new snapshot archiver.
func NewArchiver(archiveRepo repository.ArchiveRepository, chatArchive repository.ChatArchive) *Archiver {
	return &Archiver{
		archive:     archiveRepo,
		chatArchive: chatArchive,
	}
}

// Archive persists a snapshot asynchronously.
func (a *Archiver) Archive(snapshot *domain.StreamSnapshot) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.run(snapshot)
	}()
}

// Wait blocks until every in-flight archival finished. Called at
// shutdown so terminal snapshots are not lost.
func (a *Archiver) Wait() {
	a.wg.Wait()
}

func (a *Archiver) run(snapshot *domain.StreamSnapshot) {
	streamID := snapshot.Stream.ID

	var lastErr error
	for attempt := 1; attempt <= archiveAttempts; attempt++ {
		if lastErr = a.attempt(snapshot); lastErr == nil {
			return
		}
		l := log.L()
		l.Warn().Err(lastErr).
			Str(log.FieldStreamID, streamID).
			Int("attempt", attempt).
			Msg("snapshot archival attempt failed")
		if attempt < archiveAttempts {
			time.Sleep(archiveBackoff * time.Duration(attempt))
		}
	}

	l := log.L()
	l.Error().Err(lastErr).
		Str(log.FieldStreamID, streamID).
		Msg("snapshot archival gave up, data retained only in logs")
}

// attempt writes the snapshot and the chat history in parallel; both
// writers are idempotent, so a retry after partial success is safe.
func (a *Archiver) attempt(snapshot *domain.StreamSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.archive.ArchiveSnapshot(ctx, snapshot)
	})
	g.Go(func() error {
		return a.chatArchive.ArchiveMessages(ctx, snapshot.Stream.ID, snapshot.Messages)
	})
	return g.Wait()
}
