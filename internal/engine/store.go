package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DocumentVersion is the current on-disk format of a stack document
const DocumentVersion = 1

// Document is the persisted form of one trunk's stack
type Document struct {
	Version  int      `json:"version"`
	Trunk    string   `json:"trunk"`
	Branches []Record `json:"branches"`
}

// Record is the persisted form of one tracked branch. Children are never
// stored; they are rebuilt from parent links on load.
type Record struct {
	Name                 string    `json:"name"`
	Parent               string    `json:"parent"`
	PRID                 *int      `json:"prId,omitempty"`
	BaseBranch           *string   `json:"baseBranch,omitempty"`
	PRState              *string   `json:"prState,omitempty"`
	PRURL                *string   `json:"prUrl,omitempty"`
	LastSyncedHeadCommit string    `json:"lastSyncedHeadCommit,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
}

// Store reads and writes the stack document for one trunk under
// <git-dir>/gitx/stacks.
type Store struct {
	dir   string
	trunk string
}

// NewStore creates a store for trunk inside gitDir
func NewStore(gitDir, trunk string) *Store {
	return &Store{
		dir:   filepath.Join(gitDir, "gitx", "stacks"),
		trunk: trunk,
	}
}

// Trunk returns the trunk the store is keyed by
func (s *Store) Trunk() string {
	return s.trunk
}

// Path returns the document path
func (s *Store) Path() string {
	return filepath.Join(s.dir, stackFileName(s.trunk)+".json")
}

// LockPath returns the advisory lock file path
func (s *Store) LockPath() string {
	return filepath.Join(s.dir, stackFileName(s.trunk)+".lock")
}

// Read returns the stored document, or an empty one if none was written yet
func (s *Store) Read() (*Document, error) {
	data, err := os.ReadFile(s.Path())
	if errors.Is(err, os.ErrNotExist) {
		return &Document{Version: DocumentVersion, Trunk: s.trunk}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read stack metadata: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse stack metadata %s: %w", s.Path(), err)
	}
	if doc.Version > DocumentVersion {
		return nil, fmt.Errorf("stack metadata version %d is newer than supported version %d", doc.Version, DocumentVersion)
	}
	if doc.Trunk == "" {
		doc.Trunk = s.trunk
	}
	return &doc, nil
}

// Write replaces the stored document. The new content is written to a
// temporary file, synced, then renamed over the old one so a crash leaves
// either the old or the new document.
func (s *Store) Write(doc *Document) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	doc.Version = DocumentVersion
	doc.Trunk = s.trunk
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stack metadata: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, stackFileName(s.trunk)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.Path()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Lock takes the advisory lock for this trunk without blocking. A lock held
// by another process yields ErrBusy.
func (s *Store) Lock() (*FileLock, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create metadata directory: %w", err)
	}
	lock := NewFileLock(s.LockPath())
	if err := lock.TryLock(); err != nil {
		return nil, err
	}
	return lock, nil
}

// stackFileName keeps trunk names such as "release/1.0" in a single file.
func stackFileName(trunk string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(trunk)
}
