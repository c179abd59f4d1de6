// Copyright 2026 The CurationGym Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/waycodes/curationgym/internal/curationerr"
	"github.com/waycodes/curationgym/pkg/decontam"
	"github.com/waycodes/curationgym/pkg/slices"
)

// Store is the content-addressed artifact store from spec §4.7. Every
// artifact lives under root/<hash>/ with manifest.json, shards/, and logs/.
type Store struct {
	root string
}

// NewStore opens a store rooted at root, creating the directory if needed.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, curationerr.NewStorageError("cannot create artifact store root", root, "", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) dir(hash string) string          { return filepath.Join(s.root, hash) }
func (s *Store) manifestPath(hash string) string { return filepath.Join(s.dir(hash), "manifest.json") }
func (s *Store) shardsDir(hash string) string    { return filepath.Join(s.dir(hash), "shards") }
func (s *Store) logsDir(hash string) string      { return filepath.Join(s.dir(hash), "logs") }
func (s *Store) statsPath(hash string) string    { return filepath.Join(s.dir(hash), "slice_stats.json") }
func (s *Store) auditPath(hash string) string    { return filepath.Join(s.dir(hash), "decontam_report.json") }

// CreateArtifactDir ensures hash's directory tree (shards/, logs/) exists
// and returns the artifact root path.
func (s *Store) CreateArtifactDir(hash string) (string, error) {
	dir := s.dir(hash)
	if err := os.MkdirAll(s.shardsDir(hash), 0o750); err != nil {
		return "", curationerr.NewStorageError("cannot create shards dir", dir, "", err)
	}
	if err := os.MkdirAll(s.logsDir(hash), 0o750); err != nil {
		return "", curationerr.NewStorageError("cannot create logs dir", dir, "", err)
	}
	return dir, nil
}

// Exists reports whether hash's directory contains a complete
// manifest.json — the store's only notion of "artifact is done".
func (s *Store) Exists(hash string) bool {
	info, err := os.Stat(s.manifestPath(hash))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// GetManifest loads hash's manifest, or (nil, nil) if it doesn't exist.
func (s *Store) GetManifest(hash string) (*Manifest, error) {
	data, err := os.ReadFile(s.manifestPath(hash)) //nolint:gosec // path built from content hash
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, curationerr.NewStorageError("cannot read manifest", s.manifestPath(hash), "", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, curationerr.NewStorageError("cannot parse manifest", s.manifestPath(hash), "", err)
	}
	return &m, nil
}

// SaveManifest writes hash's manifest via temp-file-then-rename, so no
// reader ever observes a partially written manifest.json (spec §4.7,
// §9 atomicity note).
func (s *Store) SaveManifest(hash string, m *Manifest) error {
	if _, err := s.CreateArtifactDir(hash); err != nil {
		return err
	}
	path := s.manifestPath(hash)

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return curationerr.NewInternalError("cannot marshal manifest", hash, "", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return curationerr.NewStorageError("cannot write manifest temp file", tmpPath, "", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return curationerr.NewStorageError("cannot rename manifest into place", path, "", err)
	}
	return nil
}

// GetStats loads hash's slice_stats.json, or (nil, nil) if it doesn't exist.
func (s *Store) GetStats(hash string) (*slices.Report, error) {
	data, err := os.ReadFile(s.statsPath(hash)) //nolint:gosec // path built from content hash
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, curationerr.NewStorageError("cannot read slice stats", s.statsPath(hash), "", err)
	}
	var r slices.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, curationerr.NewStorageError("cannot parse slice stats", s.statsPath(hash), "", err)
	}
	return &r, nil
}

// SaveStats writes hash's slice_stats.json via temp-file-then-rename,
// the same atomicity contract as SaveManifest (spec §4.7).
func (s *Store) SaveStats(hash string, r *slices.Report) error {
	if _, err := s.CreateArtifactDir(hash); err != nil {
		return err
	}
	path := s.statsPath(hash)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return curationerr.NewInternalError("cannot marshal slice stats", hash, "", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return curationerr.NewStorageError("cannot write slice stats temp file", tmpPath, "", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return curationerr.NewStorageError("cannot rename slice stats into place", path, "", err)
	}
	return nil
}

// GetAudit loads hash's decontam_report.json, or (nil, nil) if it doesn't
// exist (no decontam guard was configured for the run).
func (s *Store) GetAudit(hash string) (*decontam.Report, error) {
	data, err := os.ReadFile(s.auditPath(hash)) //nolint:gosec // path built from content hash
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, curationerr.NewStorageError("cannot read decontam report", s.auditPath(hash), "", err)
	}
	var r decontam.Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, curationerr.NewStorageError("cannot parse decontam report", s.auditPath(hash), "", err)
	}
	return &r, nil
}

// SaveAudit writes hash's decontam_report.json via temp-file-then-rename,
// the same atomicity contract as SaveManifest (spec §4.7).
func (s *Store) SaveAudit(hash string, r *decontam.Report) error {
	if _, err := s.CreateArtifactDir(hash); err != nil {
		return err
	}
	path := s.auditPath(hash)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return curationerr.NewInternalError("cannot marshal decontam report", hash, "", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return curationerr.NewStorageError("cannot write decontam report temp file", tmpPath, "", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return curationerr.NewStorageError("cannot rename decontam report into place", path, "", err)
	}
	return nil
}

// DeleteArtifact recursively removes hash's directory.
func (s *Store) DeleteArtifact(hash string) error {
	if err := os.RemoveAll(s.dir(hash)); err != nil {
		return curationerr.NewStorageError("cannot delete artifact", s.dir(hash), "", err)
	}
	return nil
}

// ListArtifacts returns every hash with a subdirectory under the store
// root, sorted by name.
func (s *Store) ListArtifacts() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, curationerr.NewStorageError("cannot list artifact store", s.root, "", err)
	}
	var hashes []string
	for _, e := range entries {
		if e.IsDir() {
			hashes = append(hashes, e.Name())
		}
	}
	return hashes, nil
}

// ShardPath returns the path a new shard numbered index should be written
// to within hash's artifact directory.
func (s *Store) ShardPath(hash string, index int) string {
	return filepath.Join(s.shardsDir(hash), fmt.Sprintf("shard-%05d.jsonl", index))
}

// LogsDir exposes hash's logs directory for callers writing run logs.
func (s *Store) LogsDir(hash string) string {
	return s.logsDir(hash)
}

// ShardsDir exposes hash's shards directory, so a caller reconstructing a
// manifest after a resumed run (whose shard tasks may have completed in an
// earlier process) can re-derive the shard list from disk rather than from
// in-memory state that does not survive across invocations.
func (s *Store) ShardsDir(hash string) string {
	return s.shardsDir(hash)
}
