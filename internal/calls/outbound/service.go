// Package outbound places calls to leads about a listing.
package outbound

import (
	"context"
	"errors"

	"leadcall_backend/internal/dynamicvars"
	"leadcall_backend/internal/voice"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/phone"

	"github.com/google/uuid"
)

// VariableSource builds and caches the variable set for a call.
type VariableSource interface {
	Build(ctx context.Context, leadID, listingID int64) (dynamicvars.Variables, error)
	Remember(ctx context.Context, conversationID string, vars dynamicvars.Variables) error
}

type CallStarter interface {
	StartOutboundCall(ctx context.Context, call voice.OutboundCall) (string, error)
}

type AssociationEnsurer interface {
	EnsureAssociation(ctx context.Context, leadID, listingID int64) error
}

type Request struct {
	LeadID    int64
	ListingID int64
	Phone     string
}

type Result struct {
	ConversationID string
	ToNumber       string
}

type Service struct {
	vars         VariableSource
	calls        CallStarter
	associations AssociationEnsurer
	region       string
	log          *logger.Logger
}

func New(vars VariableSource, calls CallStarter, associations AssociationEnsurer, region string, log *logger.Logger) *Service {
	return &Service{vars: vars, calls: calls, associations: associations, region: region, log: log}
}

// Initiate validates the destination, places the call and pre-seeds the variable
// cache so the platform's start-of-call lookup needs only the conversation id.
func (s *Service) Initiate(ctx context.Context, req Request) (Result, error) {
	vars, err := s.vars.Build(ctx, req.LeadID, req.ListingID)
	if err != nil {
		return Result{}, err
	}

	raw := req.Phone
	if raw == "" {
		raw = vars[dynamicvars.KeyLeadPhone]
	}
	toNumber, err := phone.ParseE164(raw, s.region)
	if err != nil {
		return Result{}, apperr.Validation("phone number is not a valid dialable number")
	}

	log := s.log.WithContext(ctx)

	conversationID, err := s.calls.StartOutboundCall(ctx, voice.OutboundCall{
		ToNumber:         toNumber,
		DynamicVariables: vars,
	})
	if errors.Is(err, voice.ErrNotConfigured) {
		return Result{}, apperr.Unavailable("voice platform not configured", err)
	}
	if err != nil {
		return Result{}, apperr.Wrap(apperr.KindInternal, "failed to start outbound call", err)
	}
	if conversationID == "" {
		conversationID = uuid.NewString()
		log.Warn("outbound: platform returned no conversation id, using generated id", "conversationId", conversationID)
	}

	// The call is already placed; failures below are logged rather than returned
	// so a client retry does not dial the lead twice.
	if err := s.vars.Remember(ctx, conversationID, vars); err != nil {
		log.Error("outbound: failed to cache dynamic variables", "conversationId", conversationID, "error", err)
	}
	if err := s.associations.EnsureAssociation(ctx, req.LeadID, req.ListingID); err != nil {
		log.Error("outbound: failed to ensure association", "leadId", req.LeadID, "listingId", req.ListingID, "error", err)
	}

	log.Info("outbound: call initiated", "conversationId", conversationID, "leadId", req.LeadID, "listingId", req.ListingID)
	return Result{ConversationID: conversationID, ToNumber: toNumber}, nil
}
