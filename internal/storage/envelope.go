package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/perf-analysis/ppmc/pkg/compression"
)

// envelopeStorage wraps a Storage backend, compressing bytes with an outer
// envelope before upload and transparently undoing it on download. This
// never touches the canonical on-disk PPM/bucketed binary layout itself
// (internal/ppm serializes that directly) — it is purely an artifact
// transport concern.
type envelopeStorage struct {
	Storage
	compressor compression.Compressor
}

// WithEnvelope wraps s so Upload/UploadFile compress their payload with c
// before handing it to the backend, and Download/DownloadFile decompress it
// back out based on its magic bytes. A nil or no-op compressor is a
// passthrough.
func WithEnvelope(s Storage, c compression.Compressor) Storage {
	if c == nil || c.Type() == compression.TypeNone {
		return s
	}
	return &envelopeStorage{Storage: s, compressor: c}
}

func (e *envelopeStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("read upload payload: %w", err)
	}
	compressed, err := e.compressor.Compress(data)
	if err != nil {
		return fmt.Errorf("compress upload payload: %w", err)
	}
	return e.Storage.Upload(ctx, key, bytes.NewReader(compressed))
}

func (e *envelopeStorage) UploadFile(ctx context.Context, key, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read local file: %w", err)
	}
	return e.Upload(ctx, key, bytes.NewReader(data))
}

func (e *envelopeStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	rc, err := e.Storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read downloaded payload: %w", err)
	}
	decompressed, err := compression.AutoDecompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress downloaded payload: %w", err)
	}
	return io.NopCloser(bytes.NewReader(decompressed)), nil
}

func (e *envelopeStorage) DownloadFile(ctx context.Context, key, localPath string) error {
	rc, err := e.Download(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, rc); err != nil {
		return fmt.Errorf("write local file: %w", err)
	}
	return nil
}
