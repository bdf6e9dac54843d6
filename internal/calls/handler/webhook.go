package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"leadcall_backend/internal/calls/signature"
	"leadcall_backend/internal/calls/transport"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/config"
	"leadcall_backend/platform/httpkit"
	"leadcall_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

const (
	errInvalidSignature = "invalid signature"
	errPayloadTooLarge  = "payload too large"
	errUnreadableBody   = "unreadable request body"

	statusAccepted = "accepted"

	defaultEnqueueTimeout = 2 * time.Second
)

// WebhookHandler receives call-completed events from the voice platform. It only
// verifies and enqueues; all processing happens in the worker.
type WebhookHandler struct {
	queue          scheduler.CallEventEnqueuer
	secret         []byte
	maxBodyBytes   int64
	enqueueTimeout time.Duration
	clock          func() time.Time
	log            *logger.Logger
}

func NewWebhookHandler(queue scheduler.CallEventEnqueuer, cfg config.WebhookConfig, log *logger.Logger) *WebhookHandler {
	timeout := cfg.GetWebhookEnqueueTimeout()
	if timeout <= 0 {
		timeout = defaultEnqueueTimeout
	}
	return &WebhookHandler{
		queue:          queue,
		secret:         []byte(cfg.GetVoiceWebhookSecret()),
		maxBodyBytes:   cfg.GetWebhookMaxBodyBytes(),
		enqueueTimeout: timeout,
		clock:          time.Now,
		log:            log,
	}
}

// HandleCallCompleted verifies and enqueues a call-completed event.
// POST /api/v1/webhooks/voice/call-completed
func (h *WebhookHandler) HandleCallCompleted(c *gin.Context) {
	reader := io.Reader(c.Request.Body)
	if h.maxBodyBytes > 0 {
		reader = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpkit.Error(c, http.StatusRequestEntityTooLarge, errPayloadTooLarge, nil)
			return
		}
		httpkit.HandleError(c, apperr.BadRequest(errUnreadableBody))
		return
	}

	// Signature is computed over the bytes as received; nothing is decoded before this check.
	if !signature.Verify(body, c.GetHeader(signature.HeaderName), h.secret) {
		h.log.WebhookRejected(c.Request.URL.Path, c.ClientIP(), errInvalidSignature)
		httpkit.HandleError(c, apperr.Unauthorized(errInvalidSignature))
		return
	}

	payload := scheduler.CallCompletedPayload{
		ConversationID: transport.PeekConversationID(body),
		Body:           body,
		ReceivedAt:     h.clock().UTC(),
		RequestID:      httpkit.GetRequestID(c),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.enqueueTimeout)
	defer cancel()

	log := h.log.WithContext(c.Request.Context()).WithConversationID(payload.ConversationID)

	duplicate, err := h.queue.EnqueueCallCompleted(ctx, payload)
	if err != nil {
		log.Error("webhook: enqueue failed", "error", err)
		httpkit.HandleError(c, apperr.Unavailable("event queue unavailable", err))
		return
	}
	if duplicate {
		log.Info("webhook: duplicate delivery for queued conversation")
	} else {
		log.Info("webhook: call event enqueued", "bytes", len(body))
	}

	httpkit.Accepted(c, transport.AcceptedResponse{Status: statusAccepted})
}
