// Package filestore publishes report artifacts to a local directory served
// by the static frontend.
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/asesor-publico/noticias/internal/domain"
)

const (
	artifactPrefix = "noticias_"
	artifactSuffix = ".json"
)

var artifactRe = regexp.MustCompile(`^noticias_([a-z0-9_]+)\.json$`)

// Store writes one artifact per locality under a directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the output directory.
func (s *Store) Dir() string { return s.dir }

// ArtifactName returns the file name of a locality's artifact.
func ArtifactName(localityID string) string {
	return artifactPrefix + localityID + artifactSuffix
}

// LocalityFromArtifact extracts the locality id from an artifact file name.
func LocalityFromArtifact(name string) (string, bool) {
	m := artifactRe.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Path returns the full path of a locality's artifact.
func (s *Store) Path(localityID string) string {
	return filepath.Join(s.dir, ArtifactName(localityID))
}

// Name identifies the sink in logs and metrics.
func (s *Store) Name() string { return "file" }

// Publish replaces the locality's artifact with the serialized record.
// The write goes to a temporary file in the same directory and is renamed
// into place, so readers see either the previous or the new artifact.
func (s *Store) Publish(_ context.Context, loc domain.LocalityContext, record domain.ReportRecord, _ string) error {
	data, err := domain.MarshalRecord(record)
	if err != nil {
		return err
	}
	return s.writeAtomic(ArtifactName(loc.ID), data)
}

func (s *Store) writeAtomic(name string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck // sync error takes precedence
		return fmt.Errorf("sync %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Read returns the raw artifact of a locality. A missing artifact wraps
// domain.ErrNotFound.
func (s *Store) Read(localityID string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(localityID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("artifact for %q: %w", localityID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact for %q: %w", localityID, err)
	}
	return data, nil
}

// CheckReadiness reports whether the output directory exists and can be listed.
func (s *Store) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output dir %s is not a directory", s.dir)
	}
	if _, err := os.ReadDir(s.dir); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}
	return nil
}
