package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is one output file produced for an input sweep log
type Artifact struct {
	Name string
	Data []byte
}

// ArtifactStore handles artifact persistence
type ArtifactStore interface {
	// SaveAll persists every artifact into dir and returns their paths.
	// Either all artifacts are written or none are. Once started a save runs
	// to completion regardless of ctx.
	SaveAll(ctx context.Context, dir string, artifacts []Artifact) ([]string, error)
}

type fileStore struct {
	perm os.FileMode
}

// NewFileStore creates an artifact store on the local filesystem
func NewFileStore() ArtifactStore {
	return &fileStore{perm: 0644}
}

// SaveAll writes each artifact to a temp file beside its destination, then
// renames it into place. On failure every artifact renamed so far is removed.
func (s *fileStore) SaveAll(_ context.Context, dir string, artifacts []Artifact) ([]string, error) {
	if err := s.validate(artifacts); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	temps := make([]string, 0, len(artifacts))
	defer func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}()

	for _, a := range artifacts {
		tmp, err := s.writeTemp(dir, a)
		if err != nil {
			return nil, err
		}
		temps = append(temps, tmp)
	}

	paths := make([]string, 0, len(artifacts))
	for i, a := range artifacts {
		dest := filepath.Join(dir, a.Name)
		if err := os.Rename(temps[i], dest); err != nil {
			for _, p := range paths {
				os.Remove(p)
			}
			return nil, fmt.Errorf("failed to store %s: %w", a.Name, err)
		}
		paths = append(paths, dest)
	}
	temps = temps[:0]

	return paths, nil
}

func (s *fileStore) writeTemp(dir string, a Artifact) (string, error) {
	f, err := os.CreateTemp(dir, "."+a.Name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file for %s: %w", a.Name, err)
	}

	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write %s: %w", a.Name, err)
	}
	if err := f.Chmod(s.perm); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to set permissions on %s: %w", a.Name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close %s: %w", a.Name, err)
	}

	return f.Name(), nil
}

// validate rejects artifact names that would escape the output directory
func (s *fileStore) validate(artifacts []Artifact) error {
	seen := make(map[string]bool, len(artifacts))
	for _, a := range artifacts {
		if a.Name == "" || a.Name != filepath.Base(a.Name) || strings.HasPrefix(a.Name, ".") {
			return fmt.Errorf("invalid artifact name: %q", a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate artifact name: %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}
