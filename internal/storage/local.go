package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements the Storage interface using local disk. Scratch
// files live under a shared scratch directory; published artifacts are
// written to an output directory served statically by the HTTP layer.
type LocalStorage struct {
	scratchDir    string
	outputDir     string
	publicBaseURL string
}

// NewLocalStorage creates a LocalStorage instance, creating both
// directories if they do not exist. Empty directories default to
// subdirectories of os.TempDir().
func NewLocalStorage(scratchDir, outputDir, publicBaseURL string) (*LocalStorage, error) {
	if scratchDir == "" {
		scratchDir = filepath.Join(os.TempDir(), "compose", "scratch")
	}
	if outputDir == "" {
		outputDir = filepath.Join(os.TempDir(), "compose", "outputs")
	}

	if err := os.MkdirAll(scratchDir, 0750); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &LocalStorage{
		scratchDir:    scratchDir,
		outputDir:     outputDir,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}, nil
}

// ScratchDir returns the scratch directory path.
func (s *LocalStorage) ScratchDir() string {
	return s.scratchDir
}

// OutputDir returns the output directory path.
func (s *LocalStorage) OutputDir() string {
	return s.outputDir
}

// SaveScratch writes data to a scratch file and returns its path.
// The name is used as a base for the filename with a unique suffix.
func (s *LocalStorage) SaveScratch(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.scratchDir, "*_"+filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("create scratch file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write scratch file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close scratch file: %w", err)
	}

	return fileName, nil
}

// CleanupScratch removes the specified scratch files. It continues past
// individual failures, returning the first error encountered.
func (s *LocalStorage) CleanupScratch(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove scratch file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Publish writes the artifact into the output directory and returns the
// statically served URL under /outputs/.
func (s *LocalStorage) Publish(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	name = filepath.Base(name)
	dst := filepath.Join(s.outputDir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640) // #nosec G304 - name is reduced to its base
	if err != nil {
		return "", fmt.Errorf("create output file: %w", err)
	}

	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write output file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close output file: %w", err)
	}

	return fmt.Sprintf("%s/outputs/%s", s.publicBaseURL, name), nil
}
