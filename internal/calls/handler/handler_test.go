package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"leadcall_backend/internal/calls/outbound"
	"leadcall_backend/internal/calls/signature"
	"leadcall_backend/internal/dynamicvars"
	"leadcall_backend/internal/scheduler"
	"leadcall_backend/platform/apperr"
	"leadcall_backend/platform/httpkit"
	"leadcall_backend/platform/logger"
	"leadcall_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const testSecret = "whsec_test"

type testWebhookConfig struct{}

func (testWebhookConfig) GetVoiceWebhookSecret() string           { return testSecret }
func (testWebhookConfig) GetWebhookMaxBodyBytes() int64           { return 1024 }
func (testWebhookConfig) GetWebhookEnqueueTimeout() time.Duration { return time.Second }
func (testWebhookConfig) GetWebhookRatePerMinute() int            { return 0 }

type fakeQueue struct {
	mu       sync.Mutex
	payloads []scheduler.CallCompletedPayload
	seen     map[string]bool
	err      error
}

func (q *fakeQueue) EnqueueCallCompleted(_ context.Context, payload scheduler.CallCompletedPayload) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return false, q.err
	}
	if q.seen == nil {
		q.seen = map[string]bool{}
	}
	if payload.ConversationID != "" && q.seen[payload.ConversationID] {
		return true, nil
	}
	q.seen[payload.ConversationID] = true
	q.payloads = append(q.payloads, payload)
	return false, nil
}

func newWebhookRouter(q *fakeQueue) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(httpkit.RequestID())
	h := NewWebhookHandler(q, testWebhookConfig{}, logger.Discard())
	r.POST("/api/v1/webhooks/voice/call-completed", h.HandleCallCompleted)
	return r
}

func postWebhook(r http.Handler, body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/voice/call-completed", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sig != "" {
		req.Header.Set(signature.HeaderName, sig)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookAcceptsSignedEvent(t *testing.T) {
	q := &fakeQueue{}
	r := newWebhookRouter(q)
	// Odd spacing must survive untouched; the signature is over these exact bytes.
	body := []byte(`{ "conversation_id" : "c1", "summary":"hot lead"  }`)

	w := postWebhook(r, body, signature.Sign(body, []byte(testSecret)))

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "accepted" {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if len(q.payloads) != 1 {
		t.Fatalf("expected one enqueue, got %d", len(q.payloads))
	}
	got := q.payloads[0]
	if got.ConversationID != "c1" || !bytes.Equal(got.Body, body) {
		t.Fatalf("unexpected payload %+v", got)
	}
	if got.RequestID == "" || got.ReceivedAt.IsZero() {
		t.Fatalf("expected request id and received_at, got %+v", got)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	q := &fakeQueue{}
	r := newWebhookRouter(q)
	body := []byte(`{"conversation_id":"c1"}`)

	cases := map[string]string{
		"missing":    "",
		"wrong key":  signature.Sign(body, []byte("other")),
		"not hex":    "sha256=zzzz",
		"other body": signature.Sign([]byte(`{"conversation_id":"c2"}`), []byte(testSecret)),
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			w := postWebhook(r, body, sig)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
			if strings.TrimSpace(w.Body.String()) != `{"error":"invalid signature"}` {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
		})
	}
	if len(q.payloads) != 0 {
		t.Fatalf("expected no enqueue, got %d", len(q.payloads))
	}
}

func TestWebhookDuplicateIsAccepted(t *testing.T) {
	q := &fakeQueue{}
	r := newWebhookRouter(q)
	body := []byte(`{"conversation_id":"c2"}`)
	sig := signature.Sign(body, []byte(testSecret))

	for i := 0; i < 2; i++ {
		if w := postWebhook(r, body, sig); w.Code != http.StatusAccepted {
			t.Fatalf("delivery %d: expected 202, got %d", i, w.Code)
		}
	}
	if len(q.payloads) != 1 {
		t.Fatalf("expected a single queued task, got %d", len(q.payloads))
	}
}

func TestWebhookQueueDownIs503(t *testing.T) {
	q := &fakeQueue{err: errors.New("dial tcp: connection refused")}
	r := newWebhookRouter(q)
	body := []byte(`{"conversation_id":"c1"}`)

	w := postWebhook(r, body, signature.Sign(body, []byte(testSecret)))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestWebhookBodyLimit(t *testing.T) {
	q := &fakeQueue{}
	r := newWebhookRouter(q)
	body := []byte(`{"conversation_id":"c1","summary":"` + strings.Repeat("x", 2048) + `"}`)

	w := postWebhook(r, body, signature.Sign(body, []byte(testSecret)))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
	if len(q.payloads) != 0 {
		t.Fatal("expected no enqueue for oversized body")
	}
}

func TestWebhookEnqueuesUnparseableSignedBody(t *testing.T) {
	q := &fakeQueue{}
	r := newWebhookRouter(q)
	body := []byte(`not json`)

	w := postWebhook(r, body, signature.Sign(body, []byte(testSecret)))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if len(q.payloads) != 1 || q.payloads[0].ConversationID != "" {
		t.Fatalf("expected task without id, got %+v", q.payloads)
	}
}

type fakeLookup struct {
	vars dynamicvars.Variables
	err  error
	got  dynamicvars.LookupRequest
}

func (f *fakeLookup) Lookup(_ context.Context, req dynamicvars.LookupRequest) (dynamicvars.Variables, error) {
	f.got = req
	return f.vars, f.err
}

type fakeInitiator struct {
	res outbound.Result
	err error
	got outbound.Request
}

func (f *fakeInitiator) Initiate(_ context.Context, req outbound.Request) (outbound.Result, error) {
	f.got = req
	return f.res, f.err
}

func newVoiceRouter(lookup *fakeLookup, initiator *fakeInitiator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewVoiceHandler(lookup, initiator, validator.New())
	r.POST("/api/v1/voice/dynamic-variables", h.HandleDynamicVariables)
	r.POST("/api/v1/calls/outbound", h.HandleOutboundCall)
	return r
}

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestDynamicVariables(t *testing.T) {
	lookup := &fakeLookup{vars: dynamicvars.Variables{"lead_first_name": "Jane"}}
	r := newVoiceRouter(lookup, &fakeInitiator{})

	w := postJSON(r, "/api/v1/voice/dynamic-variables", `{"conversation_id":"conv-1","contact_id":"1","property_id":7}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ClientData map[string]string `json:"client_data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientData["lead_first_name"] != "Jane" {
		t.Fatalf("unexpected response %s", w.Body.String())
	}
	if lookup.got != (dynamicvars.LookupRequest{ConversationID: "conv-1", LeadID: 1, ListingID: 7}) {
		t.Fatalf("unexpected lookup request %+v", lookup.got)
	}
}

func TestDynamicVariablesNotFound(t *testing.T) {
	r := newVoiceRouter(&fakeLookup{err: apperr.NotFound("no variables for conversation")}, &fakeInitiator{})

	if w := postJSON(r, "/api/v1/voice/dynamic-variables", `{}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := postJSON(r, "/api/v1/voice/dynamic-variables", `{"contact_id":"abc"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a non numeric id, got %d", w.Code)
	}
}

func TestOutboundCall(t *testing.T) {
	initiator := &fakeInitiator{res: outbound.Result{ConversationID: "conv-9", ToNumber: "+61412345678"}}
	r := newVoiceRouter(&fakeLookup{}, initiator)

	w := postJSON(r, "/api/v1/calls/outbound", `{"contact_id":1,"property_id":"7","phone":"0412 345 678"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"conversation_id":"conv-9"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
	if initiator.got != (outbound.Request{LeadID: 1, ListingID: 7, Phone: "0412 345 678"}) {
		t.Fatalf("unexpected initiate request %+v", initiator.got)
	}
}

func TestOutboundCallValidation(t *testing.T) {
	initiator := &fakeInitiator{err: apperr.Validation("phone number is not a valid dialable number")}
	r := newVoiceRouter(&fakeLookup{}, initiator)

	if w := postJSON(r, "/api/v1/calls/outbound", `{"property_id":7}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing contact_id, got %d", w.Code)
	}
	if w := postJSON(r, "/api/v1/calls/outbound", `{"contact_id":1,"property_id":7,"phone":"12"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid phone, got %d", w.Code)
	}
}
