package storage

import (
	"fmt"
	"strings"
)

// AllowedContentTypes defines the MIME types accepted for call artifacts.
var AllowedContentTypes = map[string]bool{
	// Transcripts
	"text/plain": true,

	// Recordings
	"audio/mpeg":   true,
	"audio/mp3":    true,
	"audio/wav":    true,
	"audio/x-wav":  true,
	"audio/ogg":    true,
	"audio/webm":   true,
	"audio/mp4":    true,
	"audio/x-m4a":  true,
	"audio/aac":    true,
	"audio/flac":   true,
	"audio/x-flac": true,
}

func normalizeContentType(contentType string) string {
	// Normalize content type (remove parameters like charset)
	normalized := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(normalized))
}

// ValidateContentType checks if the content type is allowed.
func (s *MinIOService) ValidateContentType(contentType string) error {
	return ValidateContentType(contentType)
}

// ValidateContentType checks contentType against AllowedContentTypes.
func ValidateContentType(contentType string) error {
	if !AllowedContentTypes[normalizeContentType(contentType)] {
		return fmt.Errorf("content type %q is not allowed", contentType)
	}
	return nil
}

// ValidateFileSize checks if the file size is within limits.
func (s *MinIOService) ValidateFileSize(sizeBytes int64) error {
	return ValidateFileSize(sizeBytes, s.maxFileSize)
}

// ValidateFileSize checks 0 < sizeBytes <= maxBytes. A non-positive maxBytes means no upper bound.
func ValidateFileSize(sizeBytes, maxBytes int64) error {
	if sizeBytes <= 0 {
		return fmt.Errorf("file size must be greater than 0")
	}
	if maxBytes > 0 && sizeBytes > maxBytes {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of %d bytes", sizeBytes, maxBytes)
	}
	return nil
}

// IsAudioContentType checks if the content type is an allowed audio type.
func IsAudioContentType(contentType string) bool {
	normalized := normalizeContentType(contentType)
	return strings.HasPrefix(normalized, "audio/") && AllowedContentTypes[normalized]
}
