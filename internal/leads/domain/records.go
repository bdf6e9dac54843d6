package domain

import "fmt"

// ListingStatus values accepted by the listings table.
const (
	ListingStatusDraft    = "draft"
	ListingStatusActive   = "active"
	ListingStatusSold     = "sold"
	ListingStatusLeased   = "leased"
	ListingStatusArchived = "archived"
)

// NoteKind values.
const (
	NoteKindCallSummary = "call_summary"
	NoteKindTranscript  = "transcript"
	NoteKindGeneral     = "general"
)

// OwnerType discriminates the record a note hangs off.
type OwnerType string

const (
	OwnerLead    OwnerType = "lead"
	OwnerListing OwnerType = "listing"
)

// OwnerRef points at either a lead or a listing. Persisted as (owner_type, owner_id).
type OwnerRef struct {
	Type OwnerType
	ID   int64
}

func LeadOwner(id int64) OwnerRef    { return OwnerRef{Type: OwnerLead, ID: id} }
func ListingOwner(id int64) OwnerRef { return OwnerRef{Type: OwnerListing, ID: id} }

// Valid reports whether the ref names a known owner type with a positive id.
func (o OwnerRef) Valid() bool {
	return (o.Type == OwnerLead || o.Type == OwnerListing) && o.ID > 0
}

func (o OwnerRef) String() string {
	return fmt.Sprintf("%s:%d", o.Type, o.ID)
}
