package dynamicvars

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"time"

	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/logger"

	"golang.org/x/sync/singleflight"
)

// Variable keys sent to the voice agent.
const (
	KeyContactID         = "contact_id"
	KeyPropertyID        = "property_id"
	KeyLeadName          = "lead_name"
	KeyLeadFirstName     = "lead_first_name"
	KeyLeadPhone         = "lead_phone"
	KeyLeadSource        = "lead_source"
	KeyPropertyAddress   = "property_address"
	KeyPropertySuburb    = "property_suburb"
	KeyPropertyType      = "property_type"
	KeyPropertyStatus    = "property_status"
	KeyPropertyPrice     = "property_price"
	KeyPropertyBedrooms  = "property_bedrooms"
	KeyPropertyBathrooms = "property_bathrooms"
	KeyPropertyParking   = "property_parking"
	KeyPropertyLandArea  = "property_land_area"
	KeyPropertyListedAt  = "property_listed_at"
	KeyPropertyFeatures  = "property_features"
)

const sharedLoadTimeout = 10 * time.Second

// LeadListingReader loads the records a variable set is built from.
type LeadListingReader interface {
	GetLead(ctx context.Context, id int64) (repository.Lead, error)
	GetListing(ctx context.Context, id int64) (repository.Listing, error)
}

// LookupRequest identifies a variable set by conversation, by lead/listing pair, or both.
type LookupRequest struct {
	ConversationID string
	LeadID         int64
	ListingID      int64
}

type Provider struct {
	store LeadListingReader
	cache Cache
	group singleflight.Group
	log   *logger.Logger
}

func NewProvider(store LeadListingReader, cache Cache, log *logger.Logger) *Provider {
	return &Provider{store: store, cache: cache, log: log}
}

// Lookup serves the cached set for the conversation when present, otherwise
// builds one from the lead/listing pair. Built sets are not written back;
// only Remember populates the cache.
func (p *Provider) Lookup(ctx context.Context, req LookupRequest) (Variables, error) {
	if req.ConversationID != "" {
		vars, ok, err := p.cache.Get(ctx, req.ConversationID)
		if err != nil {
			// A cache outage degrades to a rebuild.
			p.log.WithContext(ctx).Warn("dynamicvars: cache read failed", "conversationId", req.ConversationID, "error", err)
		}
		if ok {
			return vars, nil
		}
	}

	if req.LeadID <= 0 || req.ListingID <= 0 {
		return nil, apperr.NotFound("no variables for conversation")
	}

	return p.Build(ctx, req.LeadID, req.ListingID)
}

// Build loads the lead and listing and renders the variable set.
// Concurrent builds for the same pair share one load. The shared load is detached from
// any single caller's cancellation; each caller still stops waiting when its own ctx ends.
func (p *Provider) Build(ctx context.Context, leadID, listingID int64) (Variables, error) {
	key := strconv.FormatInt(leadID, 10) + ":" + strconv.FormatInt(listingID, 10)
	ch := p.group.DoChan(key, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return p.build(loadCtx, leadID, listingID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		// Each caller gets its own copy of the shared result.
		return maps.Clone(res.Val.(Variables)), nil
	}
}

func (p *Provider) build(ctx context.Context, leadID, listingID int64) (Variables, error) {
	lead, err := p.store.GetLead(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("lead not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load lead %d: %w", leadID, err)
	}

	listing, err := p.store.GetListing(ctx, listingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.NotFound("listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load listing %d: %w", listingID, err)
	}

	return render(lead, listing), nil
}

// Remember stores a variable set for a conversation so later lookups need no identifiers.
func (p *Provider) Remember(ctx context.Context, conversationID string, vars Variables) error {
	return p.cache.Set(ctx, conversationID, vars)
}

func render(lead repository.Lead, listing repository.Listing) Variables {
	return Variables{
		KeyContactID:         strconv.FormatInt(lead.ID, 10),
		KeyPropertyID:        strconv.FormatInt(listing.ID, 10),
		KeyLeadName:          lead.Name,
		KeyLeadFirstName:     firstName(lead.Name),
		KeyLeadPhone:         lead.Phone,
		KeyLeadSource:        lead.Source,
		KeyPropertyAddress:   listing.Address,
		KeyPropertySuburb:    listing.Suburb,
		KeyPropertyType:      listing.PropertyType,
		KeyPropertyStatus:    listing.Status,
		KeyPropertyPrice:     formatPrice(listing.Price),
		KeyPropertyBedrooms:  itoa(listing.Bedrooms),
		KeyPropertyBathrooms: itoa(listing.Bathrooms),
		KeyPropertyParking:   itoa(listing.Parking),
		KeyPropertyLandArea:  formatLandArea(listing.LandAreaSqm),
		KeyPropertyListedAt:  formatDate(listing.ListedAt),
		KeyPropertyFeatures:  formatFeatures(listing.Features),
	}
}
