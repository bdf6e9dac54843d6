package repository

import (
	"context"
	"errors"
	"time"

	"leadcall_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

type Association struct {
	LeadID             int64
	ListingID          int64
	InterestLevel      domain.InterestLevel
	InterestScore      int
	LastContactedAt    *time.Time
	LastConversationID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type UpsertScoreParams struct {
	LeadID         int64
	ListingID      int64
	InterestLevel  domain.InterestLevel
	InterestScore  int
	ContactedAt    time.Time
	ConversationID string
}

const associationColumns = `lead_id, listing_id, interest_level, interest_score, last_contacted_at,
	last_conversation_id, created_at, updated_at`

func scanAssociation(row pgx.Row) (Association, error) {
	var a Association
	var level string
	err := row.Scan(&a.LeadID, &a.ListingID, &level, &a.InterestScore, &a.LastContactedAt,
		&a.LastConversationID, &a.CreatedAt, &a.UpdatedAt)
	a.InterestLevel = domain.InterestLevel(level)
	return a, err
}

// UpsertScore writes the classification outcome for a lead/listing pair in one statement.
// A later call for the same pair overwrites the earlier score.
func (r *Repository) UpsertScore(ctx context.Context, params UpsertScoreParams) (Association, error) {
	return scanAssociation(r.db.QueryRow(ctx, `
		INSERT INTO lead_listing_associations
			(lead_id, listing_id, interest_level, interest_score, last_contacted_at, last_conversation_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (lead_id, listing_id) DO UPDATE SET
			interest_level = EXCLUDED.interest_level,
			interest_score = EXCLUDED.interest_score,
			last_contacted_at = EXCLUDED.last_contacted_at,
			last_conversation_id = EXCLUDED.last_conversation_id,
			updated_at = now()
		RETURNING `+associationColumns,
		params.LeadID, params.ListingID, string(params.InterestLevel), params.InterestScore,
		params.ContactedAt, params.ConversationID,
	))
}

// EnsureAssociation creates an unscored row for the pair if none exists. Scoring fields are never touched.
func (r *Repository) EnsureAssociation(ctx context.Context, leadID, listingID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_listing_associations (lead_id, listing_id)
		VALUES ($1, $2)
		ON CONFLICT (lead_id, listing_id) DO NOTHING
	`, leadID, listingID)
	return err
}

func (r *Repository) GetAssociation(ctx context.Context, leadID, listingID int64) (Association, error) {
	a, err := scanAssociation(r.db.QueryRow(ctx, `
		SELECT `+associationColumns+`
		FROM lead_listing_associations WHERE lead_id = $1 AND listing_id = $2
	`, leadID, listingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Association{}, ErrNotFound
	}
	return a, err
}
