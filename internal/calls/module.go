// Package calls provides the call ingestion bounded context module.
// This file defines the module that wires the webhook receiver, the
// dynamic variable endpoint and the outbound call endpoint.
package calls

import (
	"leadcall_backend/internal/calls/handler"
	"leadcall_backend/internal/calls/outbound"
	"leadcall_backend/internal/dynamicvars"
	apphttp "leadcall_backend/internal/http"
	"leadcall_backend/internal/leads/repository"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/validator"
)

// ModuleConfig combines the config interfaces the calls module reads.
type ModuleConfig interface {
	config.WebhookConfig
	config.VoiceConfig
}

// Module is the calls bounded context module implementing http.Module.
type Module struct {
	webhook *handler.WebhookHandler
	voice   *handler.VoiceHandler
}

// NewModule creates and initializes the calls module with all its dependencies.
func NewModule(
	repo *repository.Repository,
	queue scheduler.CallEventEnqueuer,
	vars *dynamicvars.Provider,
	calls outbound.CallStarter,
	cfg ModuleConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	initiator := outbound.New(vars, calls, repo, cfg.GetDefaultPhoneRegion(), log)

	return &Module{
		webhook: handler.NewWebhookHandler(queue, cfg, log),
		voice:   handler.NewVoiceHandler(vars, initiator, val),
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "calls"
}

// RegisterRoutes mounts calls routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Voice platform webhooks (HMAC signed, rate limited)
	ctx.Webhooks.POST("/voice/call-completed", m.webhook.HandleCallCompleted)

	// Start-of-call personalization lookup
	ctx.V1.POST("/voice/dynamic-variables", m.voice.HandleDynamicVariables)

	ctx.V1.POST("/calls/outbound", m.voice.HandleOutboundCall)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
