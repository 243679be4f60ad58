package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrPermissionDenied is returned by the directory store until write access was granted.
var ErrPermissionDenied = errors.New("storage write permission not granted")

// DirectoryMediaStore is the legacy media store: plain files in a directory,
// no pending flag, and an explicit write permission grant before first use.
// Record ids are the file names.
type DirectoryMediaStore struct {
	dir string

	mu      sync.RWMutex
	granted bool
}

func NewDirectoryMediaStore(dir string) (*DirectoryMediaStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("media directory must not be empty")
	}
	return &DirectoryMediaStore{dir: filepath.Clean(dir)}, nil
}

func (s *DirectoryMediaStore) SupportsPending() bool {
	return false
}

func (s *DirectoryMediaStore) RequiresWritePermission() bool {
	return true
}

// RequestWritePermission creates the directory if needed and checks that files
// can be created in it. The grant is remembered for the lifetime of the store.
func (s *DirectoryMediaStore) RequestWritePermission(_ context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.granted {
		return true, nil
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.Warn("media directory not creatable", "dir", s.dir, "error", err)
		return false, nil
	}
	check, err := os.CreateTemp(s.dir, ".write-check-*")
	if err != nil {
		slog.Warn("media directory not writable", "dir", s.dir, "error", err)
		return false, nil
	}
	name := check.Name()
	if err := check.Close(); err != nil {
		return false, fmt.Errorf("failed to close write check: %w", err)
	}
	if err := os.Remove(name); err != nil {
		return false, fmt.Errorf("failed to remove write check: %w", err)
	}

	s.granted = true
	slog.Info("storage write permission granted", "dir", s.dir)
	return true, nil
}

func (s *DirectoryMediaStore) Insert(_ context.Context, details MediaDetails) (*Media, error) {
	if err := s.checkGranted(); err != nil {
		return nil, err
	}
	if details.IsPending {
		slog.Debug("directory media store ignores pending flag", "display_name", details.DisplayName)
	}
	path, err := s.pathFor(details.DisplayName)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create media file %s: %w", details.DisplayName, err)
	}
	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close media file %s: %w", details.DisplayName, err)
	}
	return s.stat(details.DisplayName)
}

func (s *DirectoryMediaStore) Write(_ context.Context, id string, data []byte) error {
	if err := s.checkGranted(); err != nil {
		return err
	}
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to stat media %s: %w", id, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write media %s: %w", id, err)
	}
	return nil
}

func (s *DirectoryMediaStore) Update(_ context.Context, id string, update MediaUpdate) error {
	if update.IsPending {
		return errors.New("directory media store does not support pending records")
	}
	if _, err := s.stat(id); err != nil {
		return err
	}
	return nil
}

func (s *DirectoryMediaStore) Get(_ context.Context, id string) (*Media, error) {
	return s.stat(id)
}

func (s *DirectoryMediaStore) List(_ context.Context, _ bool) ([]*Media, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list media directory: %w", err)
	}

	var media []*Media
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !strings.HasPrefix(mimeTypeFor(entry.Name()), "image/") {
			continue
		}
		m, err := s.stat(entry.Name())
		if err != nil {
			return nil, err
		}
		media = append(media, m)
	}
	sort.SliceStable(media, func(i, j int) bool {
		if media[i].CreatedAt.Equal(media[j].CreatedAt) {
			return media[i].ID < media[j].ID
		}
		return media[i].CreatedAt.After(media[j].CreatedAt)
	})
	return media, nil
}

func (s *DirectoryMediaStore) Data(_ context.Context, id string) ([]byte, error) {
	path, err := s.pathFor(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to read media %s: %w", id, err)
	}
	return data, nil
}

func (s *DirectoryMediaStore) Delete(_ context.Context, id string) error {
	if err := s.checkGranted(); err != nil {
		return err
	}
	path, err := s.pathFor(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrMediaNotFound
		}
		return fmt.Errorf("failed to delete media %s: %w", id, err)
	}
	return nil
}

func (s *DirectoryMediaStore) Close() error {
	return nil
}

func (s *DirectoryMediaStore) checkGranted() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.granted {
		return ErrPermissionDenied
	}
	return nil
}

func (s *DirectoryMediaStore) pathFor(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid media name %q", name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *DirectoryMediaStore) stat(name string) (*Media, error) {
	path, err := s.pathFor(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to stat media %s: %w", name, err)
	}
	return &Media{
		ID:          name,
		DisplayName: name,
		MimeType:    mimeTypeFor(name),
		Size:        info.Size(),
		CreatedAt:   info.ModTime().UTC(),
	}, nil
}

func mimeTypeFor(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		return t
	}
	return "application/octet-stream"
}
