// Package bot runs the polling loop: every interval it pulls journal
// entries and statuses, renders a digest of what changed since the last
// checkpoint, and pastes it into the chat room.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jamesmacaulay/backfire/internal/backpack"
	"github.com/jamesmacaulay/backfire/internal/digest"
)

// -- Interfaces for dependency inversion --

// Journal lists the wiki service's entries and statuses.
// *backpack.Client satisfies it.
type Journal interface {
	ListJournalEntries(ctx context.Context) ([]backpack.JournalEntry, error)
	ListStatuses(ctx context.Context) ([]backpack.Status, error)
}

// Speaker posts pasted content into a chat room. *campfire.Room satisfies it.
type Speaker interface {
	Paste(ctx context.Context, message string) error
}

// CheckpointStore persists the last-processed timestamp between runs.
type CheckpointStore interface {
	Load() (time.Time, bool, error)
	Save(t time.Time) error
}

// Config holds the loop's settings.
type Config struct {
	// Interval is the time between update cycles.
	Interval time.Duration
	// TestMode renders digests and advances the checkpoint without posting.
	TestMode bool
}

// Bot wires the journal, the room and the checkpoint together.
type Bot struct {
	room        Speaker
	journal     Journal
	checkpoints CheckpointStore
	cfg         Config
	logger      *zap.Logger

	lastUpdatedAt time.Time
	hasCheckpoint bool
}

// New creates a Bot. The checkpoint is not read until Run.
func New(room Speaker, journal Journal, checkpoints CheckpointStore, cfg Config, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		room:        room,
		journal:     journal,
		checkpoints: checkpoints,
		cfg:         cfg,
		logger:      logger.Named("bot"),
	}
}

// Run polls until ctx is cancelled. The first cycle runs immediately. A
// failed cycle is logged and the loop keeps going; cancellation between
// cycles is the only clean exit.
func (b *Bot) Run(ctx context.Context) error {
	last, ok, err := b.checkpoints.Load()
	if err != nil {
		return fmt.Errorf("bot: loading checkpoint: %w", err)
	}
	b.lastUpdatedAt, b.hasCheckpoint = last, ok

	b.logger.Info("starting backfire",
		zap.Duration("interval", b.cfg.Interval),
		zap.Bool("test_mode", b.cfg.TestMode),
	)

	ticker := time.NewTicker(b.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := b.Update(ctx); err != nil {
			if ctx.Err() != nil {
				b.logger.Info("exiting")
				return nil
			}
			b.logger.Error("update cycle failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			b.logger.Info("exiting")
			return nil
		case <-ticker.C:
		}
	}
}

// Update runs one cycle: list, filter against the checkpoint, render, post,
// advance. Exposed separately so a single cycle is drivable from tests and
// one-shot invocations.
func (b *Bot) Update(ctx context.Context) error {
	statuses, err := b.journal.ListStatuses(ctx)
	if err != nil {
		return fmt.Errorf("bot: listing statuses: %w", err)
	}
	entries, err := b.journal.ListJournalEntries(ctx)
	if err != nil {
		return fmt.Errorf("bot: listing journal entries: %w", err)
	}

	if b.hasCheckpoint {
		entries = entriesSince(entries, b.lastUpdatedAt)
	}

	if len(entries) == 0 && b.hasCheckpoint && !anyStatusSince(statuses, b.lastUpdatedAt) {
		b.logger.Debug("nothing new since checkpoint", zap.Time("checkpoint", b.lastUpdatedAt))
		return nil
	}

	text, latest := digest.Compose(digest.Input{
		Entries:   entries,
		Statuses:  statuses,
		Since:     b.lastUpdatedAt,
		HaveSince: b.hasCheckpoint,
	})

	switch {
	case strings.TrimSpace(text) == "":
		b.logger.Debug("digest rendered empty, nothing to post")
	case b.cfg.TestMode:
		b.logger.Info("test mode, not posting", zap.String("update", text))
	default:
		if err := b.room.Paste(ctx, text); err != nil {
			return fmt.Errorf("bot: posting update: %w", err)
		}
		b.logger.Info("posted update", zap.Int("bytes", len(text)))
	}

	// The checkpoint only moves forward. A cycle that saw nothing newer
	// than the stored mark leaves it alone rather than regressing it.
	if !latest.IsZero() && (!b.hasCheckpoint || latest.After(b.lastUpdatedAt)) {
		if err := b.checkpoints.Save(latest); err != nil {
			return fmt.Errorf("bot: saving checkpoint: %w", err)
		}
		b.lastUpdatedAt, b.hasCheckpoint = latest, true
	}
	return nil
}

func entriesSince(entries []backpack.JournalEntry, since time.Time) []backpack.JournalEntry {
	kept := entries[:0]
	for _, entry := range entries {
		if !entry.UpdatedAt.Before(since) {
			kept = append(kept, entry)
		}
	}
	return kept
}

func anyStatusSince(statuses []backpack.Status, since time.Time) bool {
	for _, status := range statuses {
		if !status.UpdatedAt.Before(since) {
			return true
		}
	}
	return false
}
