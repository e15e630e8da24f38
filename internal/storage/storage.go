// Package storage is the object-storage collaborator used for
// business logo uploads. Objects live on the local filesystem and are
// served under a public base URL by the router's static handler.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Store struct {
	dir     string
	baseURL string
}

func New(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the filesystem root the router serves statically.
func (s *Store) Dir() string {
	return s.dir
}

// Upload writes an object and returns nothing; the object becomes
// reachable at PublicURL(path).
func (s *Store) Upload(path string, data []byte) error {
	full := filepath.Join(s.dir, filepath.Clean("/"+path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write object %s: %w", path, err)
	}
	return nil
}

func (s *Store) PublicURL(path string) string {
	return s.baseURL + "/" + strings.TrimLeft(path, "/")
}

// SaveLogo stores a logo under a per-user timestamped name and
// returns its public URL.
func (s *Store) SaveLogo(userID, fileName string, data []byte) (string, error) {
	ext := filepath.Ext(fileName)
	path := fmt.Sprintf("logos/%s-%d%s", userID, time.Now().UnixMilli(), ext)
	if err := s.Upload(path, data); err != nil {
		return "", err
	}
	return s.PublicURL(path), nil
}
