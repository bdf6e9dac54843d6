package sanitize

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "Buyer keen on a second viewing.", want: "Buyer keen on a second viewing."},
		{name: "tags removed", input: "<b>Hot</b> lead <script>alert(1)</script>", want: "Hot lead alert(1)"},
		{name: "encoded tags removed", input: "&lt;img src=x&gt;ok", want: "ok"},
		{name: "nul removed", input: "wants\x00 a viewing", want: "wants a viewing"},
		{name: "invalid utf8 removed", input: "caf\xc3 ok\xff", want: "caf ok"},
		{name: "whitespace collapsed", input: "  wants   a\t\tgarden \r\n\r\n\r\n\r\nand parking  ", want: "wants a garden\n\nand parking"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Text(tt.input); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestJSON(t *testing.T) {
	clean := []byte(`{"conversation_id":"c1",  "summary":"caf\u00e9"}`)
	got, err := JSON(clean)
	if err != nil || !bytes.Equal(got, clean) {
		t.Fatalf("storable json should pass through unchanged, got %s err=%v", got, err)
	}

	dirty := []byte("{\"summary\":\"a\\u0000b\",\"tags\":[\"x\\u0000\"],\"n\":12345678901234567890,\"bad\":\"\xff\"}")
	got, err = JSON(dirty)
	if err != nil {
		t.Fatalf("clean: %v", err)
	}
	if bytes.Contains(got, []byte(`\u0000`)) {
		t.Fatalf("nul escape survived: %s", got)
	}
	var doc struct {
		Summary string      `json:"summary"`
		Tags    []string    `json:"tags"`
		N       json.Number `json:"n"`
	}
	if err := json.Unmarshal(got, &doc); err != nil {
		t.Fatalf("reencoded json invalid: %v", err)
	}
	if doc.Summary != "ab" || doc.Tags[0] != "x" || doc.N.String() != "12345678901234567890" {
		t.Fatalf("unexpected document %+v", doc)
	}

	if _, err := JSON([]byte("{\"a\":\"\\u0000\"")); err == nil {
		t.Fatal("expected error for truncated json")
	}
}
