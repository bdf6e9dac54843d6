package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"leadcall_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Note struct {
	ID             uuid.UUID
	Owner          domain.OwnerRef
	Kind           string
	Body           string
	RecordingPath  *string
	TranscriptPath *string
	ConversationID *string
	Metadata       json.RawMessage
	CreatedAt      time.Time
}

type CreateNoteParams struct {
	Owner          domain.OwnerRef
	Kind           string
	Body           string
	RecordingPath  *string
	TranscriptPath *string
	ConversationID *string
	Metadata       map[string]any
}

const noteColumns = `id, owner_type, owner_id, kind, body, recording_path, transcript_path,
	conversation_id, metadata, created_at`

func scanNote(row pgx.Row) (Note, error) {
	var n Note
	var ownerType string
	var metadata []byte
	err := row.Scan(&n.ID, &ownerType, &n.Owner.ID, &n.Kind, &n.Body, &n.RecordingPath,
		&n.TranscriptPath, &n.ConversationID, &metadata, &n.CreatedAt)
	n.Owner.Type = domain.OwnerType(ownerType)
	n.Metadata = metadata
	return n, err
}

// CreateNoteOnce inserts a note unless one already exists for the same conversation.
// It returns the stored note and whether this call created it.
func (r *Repository) CreateNoteOnce(ctx context.Context, params CreateNoteParams) (Note, bool, error) {
	if !params.Owner.Valid() {
		return Note{}, false, fmt.Errorf("create note: invalid owner %s", params.Owner)
	}

	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return Note{}, false, fmt.Errorf("create note: encode metadata: %w", err)
	}

	note, err := scanNote(r.db.QueryRow(ctx, `
		INSERT INTO notes (id, owner_type, owner_id, kind, body, recording_path, transcript_path, conversation_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (conversation_id) DO NOTHING
		RETURNING `+noteColumns,
		uuid.New(), string(params.Owner.Type), params.Owner.ID, params.Kind, params.Body,
		params.RecordingPath, params.TranscriptPath, params.ConversationID, metadataJSON,
	))
	if err == nil {
		return note, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) || params.ConversationID == nil {
		return Note{}, false, err
	}

	existing, err := r.GetNoteByConversationID(ctx, *params.ConversationID)
	if err != nil {
		return Note{}, false, err
	}
	return existing, false, nil
}

func (r *Repository) GetNoteByConversationID(ctx context.Context, conversationID string) (Note, error) {
	note, err := scanNote(r.db.QueryRow(ctx, `
		SELECT `+noteColumns+` FROM notes WHERE conversation_id = $1
	`, conversationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Note{}, ErrNotFound
	}
	return note, err
}

// CallNoteCursor is the keyset position for paging call notes in creation order.
type CallNoteCursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// ListCallNotesAfter pages call summary notes that carry a conversation id,
// ordered by (created_at, id) and strictly after the cursor.
func (r *Repository) ListCallNotesAfter(ctx context.Context, cursor CallNoteCursor, limit int) ([]Note, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE kind = $1
			AND conversation_id IS NOT NULL
			AND (created_at, id) > ($2, $3)
		ORDER BY created_at ASC, id ASC
		LIMIT $4
	`, domain.NoteKindCallSummary, cursor.CreatedAt, cursor.ID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]Note, 0, limit)
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return notes, nil
}
