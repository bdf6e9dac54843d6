package storage

import "testing"

func TestIsAudioContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{contentType: "audio/mpeg", want: true},
		{contentType: "Audio/MPEG; charset=binary", want: true},
		{contentType: "audio/x-wav", want: true},
		{contentType: "text/plain", want: false},
		{contentType: "text/html; charset=utf-8", want: false},
		{contentType: "audio/x-unknown", want: false},
		{contentType: "", want: false},
	}

	for _, tt := range tests {
		if got := IsAudioContentType(tt.contentType); got != tt.want {
			t.Fatalf("IsAudioContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	if err := ValidateFileSize(0, 10); err == nil {
		t.Fatal("expected empty file to be rejected")
	}
	if err := ValidateFileSize(11, 10); err == nil {
		t.Fatal("expected oversized file to be rejected")
	}
	if err := ValidateFileSize(10, 10); err != nil {
		t.Fatalf("expected file at the limit to pass: %v", err)
	}
	if err := ValidateFileSize(1<<40, 0); err != nil {
		t.Fatalf("expected no limit when max is zero: %v", err)
	}
}

func TestValidateContentType(t *testing.T) {
	if err := ValidateContentType("text/plain; charset=utf-8"); err != nil {
		t.Fatalf("expected transcript type to pass: %v", err)
	}
	if err := ValidateContentType("application/x-msdownload"); err == nil {
		t.Fatal("expected executable type to be rejected")
	}
}
