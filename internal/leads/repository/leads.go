package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

type Lead struct {
	ID        int64
	Name      string
	Phone     string
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type CreateLeadParams struct {
	Name   string
	Phone  string
	Source string
}

func (r *Repository) GetLead(ctx context.Context, id int64) (Lead, error) {
	var lead Lead
	err := r.db.QueryRow(ctx, `
		SELECT id, name, phone, source, created_at, updated_at
		FROM leads WHERE id = $1
	`, id).Scan(&lead.ID, &lead.Name, &lead.Phone, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

func (r *Repository) LeadExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateLead(ctx context.Context, params CreateLeadParams) (Lead, error) {
	var lead Lead
	err := r.db.QueryRow(ctx, `
		INSERT INTO leads (name, phone, source)
		VALUES ($1, $2, $3)
		RETURNING id, name, phone, source, created_at, updated_at
	`, params.Name, params.Phone, params.Source).Scan(
		&lead.ID, &lead.Name, &lead.Phone, &lead.Source, &lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}
