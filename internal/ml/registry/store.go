package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"credtech/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

// ArtifactStore persists one artifact per ticker. Get returns
// domain.ErrArtifactNotFound on a miss; Put replaces any previous artifact.
type ArtifactStore interface {
	Get(ctx context.Context, ticker string) ([]byte, error)
	Put(ctx context.Context, ticker string, blob []byte) error
}

// FileStore keeps artifacts as files in a directory. Writes go to a temp
// file that is renamed into place.
type FileStore struct {
	tracer trace.Tracer
	dir    string
}

func NewFileStore(tracer trace.Tracer, dir string) (*FileStore, error) {
	if dir == "" {
		dir = "./ml_models"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}
	return &FileStore{tracer: tracer, dir: dir}, nil
}

func (s *FileStore) path(ticker string) string {
	return filepath.Join(s.dir, storageKey(ticker)+"_model.json")
}

func (s *FileStore) Get(ctx context.Context, ticker string) ([]byte, error) {
	_, span := s.tracer.Start(ctx, "model-store.file.get")
	defer span.End()

	blob, err := os.ReadFile(s.path(ticker))
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrArtifactNotFound
	}
	return blob, err
}

func (s *FileStore) Put(ctx context.Context, ticker string, blob []byte) error {
	_, span := s.tracer.Start(ctx, "model-store.file.put")
	defer span.End()

	tmp, err := os.CreateTemp(s.dir, ".artifact-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path(ticker))
}

// storageKey normalizes a ticker into a filesystem and key safe token.
// Bytes outside [A-Z0-9.-^] are written as _XX hex, so distinct tickers never
// share a key.
func storageKey(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "_"
	}
	var b strings.Builder
	for i := 0; i < len(ticker); i++ {
		c := ticker[i]
		switch {
		case c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '-', c == '^':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "_%02X", c)
		}
	}
	return b.String()
}
