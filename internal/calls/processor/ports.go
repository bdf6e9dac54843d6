package processor

import (
	"context"
	"io"

	"leadcall_backend/internal/classification"
	"leadcall_backend/internal/leads/repository"
)

// AssociationStore is the relational side of the pipeline.
type AssociationStore interface {
	GetNoteByConversationID(ctx context.Context, conversationID string) (repository.Note, error)
	CreateNoteOnce(ctx context.Context, params repository.CreateNoteParams) (repository.Note, bool, error)
	LeadExists(ctx context.Context, id int64) (bool, error)
	ListingExists(ctx context.Context, id int64) (bool, error)
	UpsertScore(ctx context.Context, params repository.UpsertScoreParams) (repository.Association, error)
}

// ArtifactStore persists transcripts and recordings under caller-chosen keys.
type ArtifactStore interface {
	Exists(ctx context.Context, key string) (bool, error)
	PutTranscript(ctx context.Context, key, text string) error
	PutRecording(ctx context.Context, key, contentType string, body io.Reader, size int64) error
}

// Recording is a downloaded call recording held in memory.
type Recording struct {
	ContentType string
	Data        []byte
}

type RecordingFetcher interface {
	Fetch(ctx context.Context, url string) (Recording, error)
}

type Classifier interface {
	Classify(ctx context.Context, summary string) classification.Result
}
