package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"leadcall_backend/internal/adapters/storage"
	"leadcall_backend/internal/calls/processor"
)

const transcriptContentType = "text/plain; charset=utf-8"

// CallArtifactStore writes call transcripts and recordings to the call artifact bucket.
type CallArtifactStore struct {
	storage storage.StorageService
	bucket  string
}

// NewCallArtifactStore creates a new call artifact store adapter.
func NewCallArtifactStore(storageSvc storage.StorageService, bucket string) *CallArtifactStore {
	return &CallArtifactStore{storage: storageSvc, bucket: bucket}
}

func (s *CallArtifactStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.storage.ObjectExists(ctx, s.bucket, key)
}

func (s *CallArtifactStore) PutTranscript(ctx context.Context, key, text string) error {
	data := []byte(text)
	return s.storage.PutObject(ctx, s.bucket, key, transcriptContentType, bytes.NewReader(data), int64(len(data)))
}

// PutRecording rejects anything that is not an allowed audio type or exceeds the storage size limit.
func (s *CallArtifactStore) PutRecording(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if !storage.IsAudioContentType(contentType) {
		return fmt.Errorf("recording content type %q is not audio", contentType)
	}
	if err := s.storage.ValidateFileSize(size); err != nil {
		return err
	}
	return s.storage.PutObject(ctx, s.bucket, key, contentType, body, size)
}

// Compile-time check that CallArtifactStore implements processor.ArtifactStore.
var _ processor.ArtifactStore = (*CallArtifactStore)(nil)
