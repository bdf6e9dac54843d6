// Package voice is the outbound client for the voice-calling platform.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"leadcall_backend/platform/config"
	"leadcall_backend/platform/logger"
)

const outboundCallPath = "/v1/convai/twilio/outbound-call"

// ErrNotConfigured is returned when no API key or agent is configured.
var ErrNotConfigured = errors.New("voice platform not configured")

type Client struct {
	baseURL            string
	apiKey             string
	agentID            string
	agentPhoneNumberID string
	http               *http.Client
	log                *logger.Logger
}

// OutboundCall is one call to place.
type OutboundCall struct {
	ToNumber         string
	DynamicVariables map[string]string
}

type outboundCallRequest struct {
	AgentID                          string                 `json:"agent_id"`
	AgentPhoneNumberID               string                 `json:"agent_phone_number_id"`
	ToNumber                         string                 `json:"to_number"`
	ConversationInitiationClientData conversationInitiation `json:"conversation_initiation_client_data"`
}

type conversationInitiation struct {
	DynamicVariables map[string]string `json:"dynamic_variables"`
}

type outboundCallResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
	CallSID        string `json:"callSid"`
}

func NewClient(cfg config.VoiceConfig, log *logger.Logger) *Client {
	return &Client{
		baseURL:            strings.TrimRight(cfg.GetVoiceAPIBaseURL(), "/"),
		apiKey:             cfg.GetVoiceAPIKey(),
		agentID:            cfg.GetVoiceAgentID(),
		agentPhoneNumberID: cfg.GetVoiceAgentPhoneNumberID(),
		http:               &http.Client{Timeout: 15 * time.Second},
		log:                log,
	}
}

// StartOutboundCall asks the platform to dial call.ToNumber and returns the platform's
// conversation id. The id is empty when the platform does not report one.
func (c *Client) StartOutboundCall(ctx context.Context, call OutboundCall) (string, error) {
	if c == nil || c.apiKey == "" || c.agentID == "" {
		return "", ErrNotConfigured
	}

	vars := call.DynamicVariables
	if vars == nil {
		vars = map[string]string{}
	}
	body, err := json.Marshal(outboundCallRequest{
		AgentID:                          c.agentID,
		AgentPhoneNumberID:               c.agentPhoneNumberID,
		ToNumber:                         call.ToNumber,
		ConversationInitiationClientData: conversationInitiation{DynamicVariables: vars},
	})
	if err != nil {
		return "", fmt.Errorf("marshal outbound call payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+outboundCallPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("voice outbound request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("voice outbound call failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out outboundCallResponse
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &out); err != nil {
			c.log.Warn("voice: unreadable outbound call response", "error", err)
		}
	}
	if !out.Success && out.ConversationID == "" && out.Message != "" {
		return "", fmt.Errorf("voice outbound call rejected: %s", out.Message)
	}

	c.log.Info("voice: outbound call started", "conversationId", out.ConversationID, "callSid", out.CallSID)
	return out.ConversationID, nil
}
