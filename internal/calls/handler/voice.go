package handler

import (
	"context"
	"net/http"

	"leadcall_backend/internal/calls/outbound"
	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/internal/dynamicvars"
	"leadcall_backend/platform/httpkit"
	"leadcall_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidRequest = "invalid request body"
	errValidation     = "validation error"
)

type VariableLookup interface {
	Lookup(ctx context.Context, req dynamicvars.LookupRequest) (dynamicvars.Variables, error)
}

type CallInitiator interface {
	Initiate(ctx context.Context, req outbound.Request) (outbound.Result, error)
}

// VoiceHandler serves the voice platform's start-of-call lookup and outbound call requests.
type VoiceHandler struct {
	vars      VariableLookup
	initiator CallInitiator
	val       *validator.Validator
}

func NewVoiceHandler(vars VariableLookup, initiator CallInitiator, val *validator.Validator) *VoiceHandler {
	return &VoiceHandler{vars: vars, initiator: initiator, val: val}
}

// HandleDynamicVariables returns the personalization variables for a conversation.
// POST /api/v1/voice/dynamic-variables
func (h *VoiceHandler) HandleDynamicVariables(c *gin.Context) {
	var req transport.DynamicVariablesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	vars, err := h.vars.Lookup(c.Request.Context(), dynamicvars.LookupRequest{
		ConversationID: req.ConversationID,
		LeadID:         req.ContactID.Int64(),
		ListingID:      req.PropertyID.Int64(),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.DynamicVariablesResponse{ClientData: vars})
}

// HandleOutboundCall places a call to a lead about a listing.
// POST /api/v1/calls/outbound
func (h *VoiceHandler) HandleOutboundCall(c *gin.Context) {
	var req transport.OutboundCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errInvalidRequest, err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, errValidation, err.Error())
		return
	}

	res, err := h.initiator.Initiate(c.Request.Context(), outbound.Request{
		LeadID:    req.ContactID.Int64(),
		ListingID: req.PropertyID.Int64(),
		Phone:     req.Phone,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.Accepted(c, transport.OutboundCallResponse{
		ConversationID: res.ConversationID,
		ToNumber:       res.ToNumber,
	})
}
