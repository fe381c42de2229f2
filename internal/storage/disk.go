// SPDX-License-Identifier: MIT
package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ossrs/go-oryx-lib/errors"
)

// DiskStore implements Store on a local directory tree. Keys are
// slash-separated relative paths under the root.
type DiskStore struct {
	root string
}

// NewDiskStore creates the root directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, errors.New("storage root is empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create storage root %v", root)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func (s *DiskStore) Download(ctx context.Context, key string) ([]byte, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, errors.Wrapf(err, "download %v", key)
	}
	return data, nil
}

func (s *DiskStore) Upload(ctx context.Context, key string, data []byte) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir for %v", key)
	}
	// Write-then-rename so a crashed upload never leaves a readable
	// half-written object.
	tmp := p + ".uploading"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "write %v", key)
	}
	if err := os.Rename(tmp, p); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "finalize %v", key)
	}
	return nil
}

func (s *DiskStore) Promote(ctx context.Context, tempKey, finalKey string) error {
	from, err := s.path(tempKey)
	if err != nil {
		return err
	}
	to, err := s.path(finalKey)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir for %v", finalKey)
	}
	if err := os.Rename(from, to); err != nil {
		return errors.Wrapf(err, "promote %v -> %v", tempKey, finalKey)
	}
	return nil
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "delete %v", key)
	}
	return nil
}

var _ Store = (*DiskStore)(nil)
