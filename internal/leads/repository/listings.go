package repository

import (
	"context"
	"errors"
	"time"

	"leadcall_backend/internal/leads/domain"

	"github.com/jackc/pgx/v5"
)

type Listing struct {
	ID           int64
	OwnerID      *int64
	Status       string
	Address      string
	Suburb       string
	PropertyType string
	Price        *int64
	Bedrooms     int
	Bathrooms    int
	Parking      int
	LandAreaSqm  *int
	Features     []string
	ListedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateListingParams struct {
	OwnerID      *int64
	Status       string
	Address      string
	Suburb       string
	PropertyType string
	Price        *int64
	Bedrooms     int
	Bathrooms    int
	Parking      int
	LandAreaSqm  *int
	Features     []string
	ListedAt     *time.Time
}

const listingColumns = `id, owner_id, status, address, suburb, property_type, price,
	bedrooms, bathrooms, parking, land_area_sqm, features, listed_at, created_at, updated_at`

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Status, &l.Address, &l.Suburb, &l.PropertyType, &l.Price,
		&l.Bedrooms, &l.Bathrooms, &l.Parking, &l.LandAreaSqm, &l.Features, &l.ListedAt,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *Repository) GetListing(ctx context.Context, id int64) (Listing, error) {
	listing, err := scanListing(r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	return listing, err
}

func (r *Repository) ListingExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *Repository) CreateListing(ctx context.Context, params CreateListingParams) (Listing, error) {
	status := params.Status
	if status == "" {
		status = domain.ListingStatusDraft
	}
	features := params.Features
	if features == nil {
		features = []string{}
	}
	return scanListing(r.db.QueryRow(ctx, `
		INSERT INTO listings (owner_id, status, address, suburb, property_type, price,
			bedrooms, bathrooms, parking, land_area_sqm, features, listed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING `+listingColumns,
		params.OwnerID, status, params.Address, params.Suburb, params.PropertyType, params.Price,
		params.Bedrooms, params.Bathrooms, params.Parking, params.LandAreaSqm, features, params.ListedAt,
	))
}
