package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalPublisher writes objects below a directory, usually the document
// root of a static file server.
type LocalPublisher struct {
	baseDir string
	baseURL string
}

// NewLocalPublisher creates baseDir when missing.
func NewLocalPublisher(baseDir, baseURL string) (*LocalPublisher, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	return &LocalPublisher{baseDir: abs, baseURL: baseURL}, nil
}

func (p *LocalPublisher) Publish(ctx context.Context, obj Object) (*Published, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key, err := cleanKey(obj.Key)
	if err != nil {
		return nil, err
	}

	dst := filepath.Join(p.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	// Write then rename so readers never see a partial file.
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, obj.Body, 0o644); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("%w: %v", ErrFailedToWriteFile, err)
	}

	return &Published{
		Key:  key,
		URL:  joinURL(p.baseURL, key),
		Size: len(obj.Body),
		ETag: obj.ETag(),
	}, nil
}
