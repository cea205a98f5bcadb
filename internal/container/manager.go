// Package container manages per-upload staging containers: directories
// holding a base video (video.<ext>) and an optional co-located audio
// track (audio.mp3) referenced later by compose requests.
package container

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Static errors for container resolution.
var (
	// ErrContainerNotFound is returned when a container ID is unknown.
	ErrContainerNotFound = errors.New("container not found")
	// ErrBaseMediaNotFound is returned when a container holds no base video.
	ErrBaseMediaNotFound = errors.New("base media not found in container")
)

// audioFileName is the fixed name of the optional co-located audio track.
const audioFileName = "audio.mp3"

// Container is one upload staging area.
type Container struct {
	// ID is the unique container identifier.
	ID string
	// Dir is the absolute directory path holding the container's files.
	Dir string
	// CreatedAt is when the container was created.
	CreatedAt time.Time
}

// Manager creates containers and resolves their staged files. The
// registry is an in-memory map guarded by a RWMutex; the directories
// themselves are the durable record, so resolution falls back to a
// disk check for IDs created before a restart.
type Manager struct {
	baseDir string

	mu         sync.RWMutex
	containers map[string]Container
}

// NewManager creates a Manager rooted at baseDir, creating it if needed.
func NewManager(baseDir string) (*Manager, error) {
	if baseDir == "" {
		baseDir = filepath.Join(os.TempDir(), "compose", "containers")
	}
	if err := os.MkdirAll(baseDir, 0750); err != nil {
		return nil, fmt.Errorf("create container base directory: %w", err)
	}
	return &Manager{
		baseDir:    baseDir,
		containers: make(map[string]Container),
	}, nil
}

// BaseDir returns the directory under which containers are created.
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// Create allocates a new container with a fresh UUID and its directory.
func (m *Manager) Create(ctx context.Context) (Container, error) {
	select {
	case <-ctx.Done():
		return Container{}, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	c := Container{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
	}
	c.Dir = filepath.Join(m.baseDir, c.ID)
	if err := os.MkdirAll(c.Dir, 0750); err != nil {
		return Container{}, fmt.Errorf("create container directory: %w", err)
	}

	m.mu.Lock()
	m.containers[c.ID] = c
	m.mu.Unlock()
	return c, nil
}

// Get resolves a container by ID, falling back to a directory check for
// containers created before a restart.
func (m *Manager) Get(id string) (Container, error) {
	m.mu.RLock()
	c, ok := m.containers[id]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}

	// Registry miss: accept the ID if its directory exists and the ID
	// parses as a UUID (rejects path traversal attempts).
	if _, err := uuid.Parse(id); err != nil {
		return Container{}, ErrContainerNotFound
	}
	dir := filepath.Join(m.baseDir, id)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return Container{}, ErrContainerNotFound
	}

	c = Container{ID: id, Dir: dir, CreatedAt: info.ModTime()}
	m.mu.Lock()
	m.containers[id] = c
	m.mu.Unlock()
	return c, nil
}

// SaveFile stores an uploaded file in the container under the given
// field name plus the upload's original extension. Returns the path of
// the written file.
func (m *Manager) SaveFile(ctx context.Context, id, field, originalName string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	c, err := m.Get(id)
	if err != nil {
		return "", err
	}

	name := filepath.Base(field) + filepath.Ext(filepath.Base(originalName))
	dst := filepath.Join(c.Dir, name)
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0640) // #nosec G304 - field and extension are reduced to base names
	if err != nil {
		return "", fmt.Errorf("create container file: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(dst)
		return "", fmt.Errorf("write container file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(dst)
		return "", fmt.Errorf("close container file: %w", err)
	}
	return dst, nil
}

// ResolveBaseVideo returns the path of the container's base video,
// matching video.<ext>. Returns ErrBaseMediaNotFound when absent.
func (m *Manager) ResolveBaseVideo(id string) (string, error) {
	c, err := m.Get(id)
	if err != nil {
		return "", err
	}

	matches, err := filepath.Glob(filepath.Join(c.Dir, "video.*"))
	if err != nil || len(matches) == 0 {
		return "", ErrBaseMediaNotFound
	}
	return matches[0], nil
}

// ResolveAudio returns the path of the container's optional audio track
// and whether it exists.
func (m *Manager) ResolveAudio(id string) (string, bool) {
	c, err := m.Get(id)
	if err != nil {
		return "", false
	}

	p := filepath.Join(c.Dir, audioFileName)
	if _, err := os.Stat(p); err != nil {
		return "", false
	}
	return p, true
}

// Remove deletes a container's directory and registry entry.
func (m *Manager) Remove(id string) error {
	c, err := m.Get(id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.containers, id)
	m.mu.Unlock()

	if err := os.RemoveAll(c.Dir); err != nil {
		return fmt.Errorf("remove container directory: %w", err)
	}
	return nil
}
