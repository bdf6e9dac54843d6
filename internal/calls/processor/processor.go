// Package processor runs the asynchronous half of call ingestion: artifact
// persistence, classification and the association update for one event.
package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/internal/leads/domain"
	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/sanitize"
	"leadcall_backend/platform/validator"
)

const noteSource = "voice_webhook"

type Processor struct {
	store      AssociationStore
	artifacts  ArtifactStore
	recordings RecordingFetcher
	classifier Classifier
	clock      func() time.Time
	log        *logger.Logger
}

type Option func(*Processor)

// WithClock sets the clock used for last_contacted_at.
func WithClock(clock func() time.Time) Option {
	return func(p *Processor) { p.clock = clock }
}

func New(store AssociationStore, artifacts ArtifactStore, recordings RecordingFetcher, classifier Classifier, log *logger.Logger, opts ...Option) *Processor {
	p := &Processor{
		store:      store,
		artifacts:  artifacts,
		recordings: recordings,
		classifier: classifier,
		clock:      time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var _ scheduler.CallEventProcessor = (*Processor)(nil)

// Process handles one delivery of a call-completed event. A nil return acks the task;
// every side effect is keyed by conversation id so a redelivery converges on the same state.
func (p *Processor) Process(ctx context.Context, payload scheduler.CallCompletedPayload) error {
	log := p.log.WithContext(ctx)
	if payload.RequestID != "" {
		log = log.WithRequestID(payload.RequestID)
	}

	var event transport.CallCompletedEvent
	if err := json.Unmarshal(payload.Body, &event); err != nil {
		log.Warn("processor: dropping malformed event", "error", err, "bytes", len(payload.Body))
		return nil
	}
	conversationID := strings.TrimSpace(event.ConversationID)
	if conversationID == "" {
		log.Warn("processor: dropping event without conversation id")
		return nil
	}
	if !validator.ConversationID(conversationID) {
		log.Warn("processor: dropping event with invalid conversation id", "length", len(conversationID))
		return nil
	}
	log = log.WithConversationID(conversationID)

	rawEvent, err := sanitize.JSON(payload.Body)
	if err != nil {
		log.Warn("processor: dropping event that cannot be stored", "error", err)
		return nil
	}
	payload.Body = rawEvent

	leadID := event.ContactID.Int64()
	listingID := event.PropertyID.Int64()

	leadOK, err := p.exists(ctx, leadID, p.store.LeadExists)
	if err != nil {
		return fmt.Errorf("resolve lead %d: %w", leadID, err)
	}
	listingOK, err := p.exists(ctx, listingID, p.store.ListingExists)
	if err != nil {
		return fmt.Errorf("resolve listing %d: %w", listingID, err)
	}

	existing, err := p.store.GetNoteByConversationID(ctx, conversationID)
	switch {
	case err == nil:
		log.Info("processor: artifact already recorded, skipping storage", "noteId", existing.ID)
	case errors.Is(err, repository.ErrNotFound):
		if err := p.recordArtifact(ctx, log, conversationID, event, payload, leadID, leadOK, listingID, listingOK); err != nil {
			return err
		}
	default:
		return fmt.Errorf("lookup artifact: %w", err)
	}

	result := p.classifier.Classify(ctx, event.Summary)
	// A cancelled context degrades classification to unknown; do not persist that.
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Info("processor: classified",
		"interestLevel", result.InterestLevel,
		"interestScore", result.InterestScore,
		"rationale", result.Rationale,
	)

	if !leadOK || !listingOK {
		log.Warn("processor: lead/listing pair unresolved, association not updated",
			"leadId", leadID, "leadFound", leadOK, "listingId", listingID, "listingFound", listingOK)
		return nil
	}

	if _, err := p.store.UpsertScore(ctx, repository.UpsertScoreParams{
		LeadID:         leadID,
		ListingID:      listingID,
		InterestLevel:  result.InterestLevel,
		InterestScore:  result.InterestScore,
		ContactedAt:    p.clock().UTC(),
		ConversationID: conversationID,
	}); err != nil {
		return fmt.Errorf("upsert association: %w", err)
	}

	log.Info("processor: association updated", "leadId", leadID, "listingId", listingID)
	return nil
}

func (p *Processor) exists(ctx context.Context, id int64, check func(context.Context, int64) (bool, error)) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	return check(ctx, id)
}

// recordArtifact writes the transcript and recording objects and then the note
// that points at them. Object writes are idempotent because keys are deterministic.
func (p *Processor) recordArtifact(
	ctx context.Context,
	log *logger.Logger,
	conversationID string,
	event transport.CallCompletedEvent,
	payload scheduler.CallCompletedPayload,
	leadID int64, leadOK bool,
	listingID int64, listingOK bool,
) error {
	keyDate := event.EventTimestamp.Time
	if keyDate.IsZero() {
		keyDate = payload.ReceivedAt
	}
	if keyDate.IsZero() {
		keyDate = p.clock()
	}

	var transcriptPath *string
	if strings.TrimSpace(event.Transcript) != "" {
		key := TranscriptKey(conversationID, keyDate)
		if err := p.putTranscript(ctx, key, event.Transcript); err != nil {
			return err
		}
		transcriptPath = &key
	}

	var recordingPath *string
	if url := strings.TrimSpace(event.RecordingURL); url != "" {
		key := RecordingKey(conversationID, keyDate)
		if err := p.putRecording(ctx, key, url); err != nil {
			log.Warn("processor: recording not stored", "error", err)
		} else {
			recordingPath = &key
		}
	}

	var owner domain.OwnerRef
	switch {
	case leadOK:
		owner = domain.LeadOwner(leadID)
	case listingOK:
		owner = domain.ListingOwner(listingID)
	default:
		log.Warn("processor: no lead or listing for event, artifact not recorded",
			"leadId", leadID, "listingId", listingID)
		return nil
	}

	note, created, err := p.store.CreateNoteOnce(ctx, repository.CreateNoteParams{
		Owner:          owner,
		Kind:           domain.NoteKindCallSummary,
		Body:           sanitize.Text(event.Summary),
		RecordingPath:  recordingPath,
		TranscriptPath: transcriptPath,
		ConversationID: &conversationID,
		Metadata: map[string]any{
			"raw_event": json.RawMessage(payload.Body),
			"source":    noteSource,
		},
	})
	if err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}
	if created {
		log.Info("processor: artifact recorded", "noteId", note.ID, "owner", owner.String())
	}
	return nil
}

func (p *Processor) putTranscript(ctx context.Context, key, text string) error {
	exists, err := p.artifacts.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("stat transcript: %w", err)
	}
	if exists {
		return nil
	}
	if err := p.artifacts.PutTranscript(ctx, key, text); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	return nil
}

func (p *Processor) putRecording(ctx context.Context, key, url string) error {
	exists, err := p.artifacts.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("stat recording: %w", err)
	}
	if exists {
		return nil
	}
	if p.recordings == nil {
		return errors.New("no recording fetcher configured")
	}
	rec, err := p.recordings.Fetch(ctx, url)
	if err != nil {
		return err
	}
	return p.artifacts.PutRecording(ctx, key, rec.ContentType, bytes.NewReader(rec.Data), int64(len(rec.Data)))
}
