package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{err: NotFound("lead not found"), want: http.StatusNotFound},
		{err: Validation("invalid phone"), want: http.StatusBadRequest},
		{err: BadRequest("unreadable request body"), want: http.StatusBadRequest},
		{err: Unauthorized("invalid signature"), want: http.StatusUnauthorized},
		{err: Unavailable("event queue unavailable", errors.New("dial tcp")), want: http.StatusServiceUnavailable},
		{err: Wrap(KindInternal, "voice call failed", errors.New("boom")), want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.HTTPStatus(); got != tt.want {
			t.Errorf("%q: expected %d, got %d", tt.err.Message, tt.want, got)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	cause := errors.New("redis: connection refused")
	err := fmt.Errorf("webhook: %w", Unavailable("event queue unavailable", cause))

	if !Is(err, KindUnavailable) {
		t.Fatalf("expected unavailable kind, got %v", GetKind(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("expected the cause to stay in the chain")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatal("untyped errors have no kind")
	}
	if got := Unavailable("event queue unavailable", cause).Error(); got != "event queue unavailable: redis: connection refused" {
		t.Fatalf("unexpected message %q", got)
	}
}
