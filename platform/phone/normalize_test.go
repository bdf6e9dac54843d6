package phone

import (
	"errors"
	"testing"
)

func TestParseE164(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		region string
		want   string
		err    bool
	}{
		{name: "australian mobile local format", input: "0412 345 678", region: "AU", want: "+61412345678"},
		{name: "already e164", input: "+61412345678", region: "AU", want: "+61412345678"},
		{name: "international prefix ignores region", input: "+31 6 12345678", region: "AU", want: "+31612345678"},
		{name: "lowercase region", input: "0412345678", region: "au", want: "+61412345678"},
		{name: "empty", input: "   ", region: "AU", err: true},
		{name: "letters", input: "call me maybe", region: "AU", err: true},
		{name: "too short", input: "123", region: "AU", err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseE164(tt.input, tt.region)
			if tt.err {
				if !errors.Is(err, ErrInvalidNumber) {
					t.Fatalf("expected ErrInvalidNumber, got %q, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
