package processor

import (
	"fmt"
	"time"
)

// TranscriptKey is the object key for a conversation's transcript.
func TranscriptKey(conversationID string, at time.Time) string {
	return artifactKey(conversationID, at, "transcript.txt")
}

// RecordingKey is the object key for a conversation's recording.
func RecordingKey(conversationID string, at time.Time) string {
	return artifactKey(conversationID, at, "recording.mp3")
}

func artifactKey(conversationID string, at time.Time, suffix string) string {
	at = at.UTC()
	return fmt.Sprintf("calls/%04d/%02d/%02d/%s-%s", at.Year(), int(at.Month()), at.Day(), conversationID, suffix)
}
