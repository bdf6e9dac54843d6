package moonshot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func firstResponse(t *testing.T, m *KimiModel, req *model.LLMRequest) (*model.LLMResponse, error) {
	t.Helper()
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		return resp, err
	}
	t.Fatal("expected one response")
	return nil, nil
}

func TestGenerateContentSendsSystemAndJSONMode(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"ok\":true}"}}]}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "key", BaseURL: srv.URL + "/", HTTPClient: srv.Client()})
	resp, err := firstResponse(t, m, &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hello", genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText("be terse", genai.RoleUser),
			ResponseMIMEType:  "application/json",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := resp.Content.Parts[0].Text; got != `{"ok":true}` {
		t.Fatalf("unexpected content %q", got)
	}

	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response_format, got %v", captured["response_format"])
	}
	messages, _ := captured["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system and user messages, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be terse" {
		t.Fatalf("unexpected system message %v", first)
	}
}

func TestGenerateContentMapsStatusToAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	_, err := firstResponse(t, m, &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hello", genai.RoleUser)},
	})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", apiErr.StatusCode)
	}
}

func TestGenerateContentEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	m := NewModel(Config{APIKey: "key", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if _, err := firstResponse(t, m, &model.LLMRequest{}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
