// call-replay re-enqueues the stored raw events of recorded calls so their
// classification and association update run again, e.g. after the reasoning
// service was down and calls were scored as unknown.
//
// REPLAY_SINCE selects calls recorded after an RFC3339 time or a duration ago (default 24h).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/platform/bootstrap"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
)

type callNoteLister interface {
	ListCallNotesAfter(ctx context.Context, cursor repository.CallNoteCursor, limit int) ([]repository.Note, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)

	since, err := parseSince(os.Getenv("REPLAY_SINCE"), time.Now())
	if err != nil {
		log.Error("invalid REPLAY_SINCE", "error", err)
		os.Exit(2)
	}
	log.Info("starting call replay", "since", since.Format(time.RFC3339))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := bootstrap.OpenDatabase(ctx, cfg, log, false)
	if err != nil {
		log.Error("failed to open database", "error", err)
		panic("failed to open database: " + err.Error())
	}
	defer pool.Close()

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize queue client", "error", err)
		panic("failed to initialize queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	batchSize := bootstrap.PositiveIntEnv("REPLAY_BATCH_SIZE", 100)
	stats, err := replay(ctx, repository.New(pool), queue, since, batchSize, time.Now, log)
	if err != nil {
		log.Error("call replay stopped", "error", err, "enqueued", stats.enqueued, "duplicates", stats.duplicates, "skipped", stats.skipped)
		os.Exit(1)
	}
	log.Info("call replay completed", "enqueued", stats.enqueued, "duplicates", stats.duplicates, "skipped", stats.skipped)
}

type replayStats struct {
	enqueued   int
	duplicates int
	skipped    int
}

// replay pages call notes in (created_at, id) order after since and enqueues each stored raw event.
func replay(
	ctx context.Context,
	notes callNoteLister,
	queue scheduler.CallEventEnqueuer,
	since time.Time,
	batchSize int,
	now func() time.Time,
	log *logger.Logger,
) (replayStats, error) {
	var stats replayStats
	cursor := repository.CallNoteCursor{CreatedAt: since}

	for {
		batch, err := notes.ListCallNotesAfter(ctx, cursor, batchSize)
		if err != nil {
			return stats, fmt.Errorf("list call notes: %w", err)
		}
		if len(batch) == 0 {
			return stats, nil
		}

		for _, note := range batch {
			cursor = repository.CallNoteCursor{CreatedAt: note.CreatedAt, ID: note.ID}

			raw, err := rawEvent(note.Metadata)
			if err != nil || note.ConversationID == nil {
				log.Warn("skipping note without replayable event", "noteId", note.ID, "error", err)
				stats.skipped++
				continue
			}

			duplicate, err := queue.EnqueueCallCompleted(ctx, scheduler.CallCompletedPayload{
				ConversationID: *note.ConversationID,
				Body:           raw,
				ReceivedAt:     now().UTC(),
			})
			if err != nil {
				return stats, err
			}
			if duplicate {
				stats.duplicates++
				continue
			}
			stats.enqueued++
		}
	}
}

func rawEvent(metadata json.RawMessage) ([]byte, error) {
	var meta struct {
		RawEvent json.RawMessage `json:"raw_event"`
	}
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return nil, err
	}
	if len(meta.RawEvent) == 0 || string(meta.RawEvent) == "null" {
		return nil, errors.New("metadata has no raw_event")
	}
	return meta.RawEvent, nil
}

func parseSince(raw string, now time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return now.Add(-24 * time.Hour), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return time.Time{}, fmt.Errorf("expected RFC3339 time or positive duration, got %q", raw)
	}
	return now.Add(-d), nil
}
