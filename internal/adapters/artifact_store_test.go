package adapters

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"leadcall_backend/internal/adapters/storage"
)

type memStorage struct {
	objects     map[string][]byte
	types       map[string]string
	maxFileSize int64
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}, maxFileSize: 16}
}

func (m *memStorage) PutObject(_ context.Context, bucket, key, contentType string, reader io.Reader, _ int64) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.objects[bucket+"/"+key] = data
	m.types[bucket+"/"+key] = contentType
	return nil
}

func (m *memStorage) ObjectExists(_ context.Context, bucket, key string) (bool, error) {
	_, ok := m.objects[bucket+"/"+key]
	return ok, nil
}

func (m *memStorage) EnsureBucketExists(context.Context, string) error {
	return nil
}

func (m *memStorage) ValidateContentType(ct string) error {
	return storage.ValidateContentType(ct)
}

func (m *memStorage) ValidateFileSize(size int64) error {
	return storage.ValidateFileSize(size, m.maxFileSize)
}

func (m *memStorage) GetMaxFileSize() int64 {
	return m.maxFileSize
}

func TestCallArtifactStoreTranscript(t *testing.T) {
	mem := newMemStorage()
	store := NewCallArtifactStore(mem, "call-artifacts")
	ctx := context.Background()

	key := "calls/2026/01/02/c1-transcript.txt"
	if err := store.PutTranscript(ctx, key, "Agent: hi"); err != nil {
		t.Fatalf("put: %v", err)
	}
	exists, err := store.Exists(ctx, key)
	if err != nil || !exists {
		t.Fatalf("expected object to exist, got %v %v", exists, err)
	}
	if got := string(mem.objects["call-artifacts/"+key]); got != "Agent: hi" {
		t.Fatalf("unexpected body %q", got)
	}
	if mem.types["call-artifacts/"+key] != transcriptContentType {
		t.Fatalf("unexpected content type %q", mem.types["call-artifacts/"+key])
	}
}

func TestCallArtifactStoreRecordingValidation(t *testing.T) {
	store := NewCallArtifactStore(newMemStorage(), "call-artifacts")
	ctx := context.Background()

	cases := []struct {
		name        string
		contentType string
		data        []byte
		wantErr     bool
	}{
		{name: "mp3", contentType: "audio/mpeg", data: []byte("ID3"), wantErr: false},
		{name: "not audio", contentType: "text/html", data: []byte("<html>"), wantErr: true},
		{name: "empty", contentType: "audio/mpeg", data: nil, wantErr: true},
		{name: "too large", contentType: "audio/mpeg", data: bytes.Repeat([]byte("a"), 17), wantErr: true},
	}
	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			key := fmt.Sprintf("calls/2026/01/02/c%d-recording.mp3", i)
			err := store.PutRecording(ctx, key, tc.contentType, bytes.NewReader(tc.data), int64(len(tc.data)))
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
		})
	}
}
