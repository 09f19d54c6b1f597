// Package store persists the daemon's DB.json document: a single JSON file
// holding data that must survive restarts, most importantly the custom map
// gamemode cache.
//
// The document is always read and written wholesale. The daemon's main loop
// is single-threaded, so the read-modify-write cycle in the gamemode
// resolver needs no locking; anything that ever parallelizes resolution must
// serialize access to the same [Store] or lose updates.
package store

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fortwatch/fortpresence/internal/atomicfile"
	"github.com/fortwatch/fortpresence/internal/migrate"
)

// ///////////////////////////////////////////////
// Document Types
// ///////////////////////////////////////////////

// CacheEntry is one resolved custom map gamemode. On disk it is the triple
// [gamemode_id, display_name, resolved_at_unix_seconds], matching the
// historical DB.json layout.
type CacheEntry struct {
	// GamemodeID is the machine gamemode tag (e.g. "koth", "payload").
	GamemodeID string
	// DisplayName is the user-facing gamemode label (e.g. "King of the Hill").
	DisplayName string
	// ResolvedAt is the Unix timestamp of the resolution that produced this
	// entry. Monotonically non-decreasing across overwrites of one map key.
	ResolvedAt int64
}

// MarshalJSON encodes the entry as a three-element array.
func (e CacheEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.GamemodeID, e.DisplayName, e.ResolvedAt})
}

// UnmarshalJSON decodes the three-element array form.
func (e *CacheEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("cache entry has %d elements, want 3", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.GamemodeID); err != nil {
		return fmt.Errorf("gamemode id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.DisplayName); err != nil {
		return fmt.Errorf("display name: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.ResolvedAt); err != nil {
		return fmt.Errorf("resolved at: %w", err)
	}
	return nil
}

// Document is the full DB.json schema.
type Document struct {
	// Version is the schema version, used for migration.
	Version int `json:"$version"`
	// CustomMaps caches resolved custom map gamemodes keyed by map filename.
	// Entries are only ever overwritten, never deleted.
	CustomMaps map[string]CacheEntry `json:"custom_maps"`
}

// NewDocument returns an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{
		Version:    migrate.DB.CurrentVersion,
		CustomMaps: make(map[string]CacheEntry),
	}
}

// ///////////////////////////////////////////////
// Store
// ///////////////////////////////////////////////

// Store reads and writes the DB.json document at a fixed path.
type Store struct {
	path string
}

// New creates a Store for the document at path. The file is created lazily
// on first Write.
func New(path string) *Store {
	return &Store{path: path}
}

// Read loads and parses the document. A missing file yields a fresh empty
// document; documents behind the current schema version are migrated in
// memory (the upgraded form is persisted on the next Write).
func (s *Store) Read() (*Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewDocument(), nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	version := peekVersion(data)
	if migrate.DB.NeedsMigration(version, false) && version < migrate.DB.CurrentVersion {
		var migrateErr error
		data, version, migrateErr = migrate.DB.Run(data, version)
		if migrateErr != nil {
			return nil, fmt.Errorf("migrate %s: %w", s.path, migrateErr)
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	doc.Version = version
	if doc.Version == 0 {
		doc.Version = migrate.DB.CurrentVersion
	}
	if doc.CustomMaps == nil {
		doc.CustomMaps = make(map[string]CacheEntry)
	}
	return &doc, nil
}

// Write persists the document atomically.
func (s *Store) Write(doc *Document) error {
	doc.Version = migrate.DB.CurrentVersion
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return atomicfile.Write(s.path, data, 0o644)
}

// peekVersion extracts the $version field from raw JSON, normalizing a
// missing or zero field to 1.
func peekVersion(data []byte) int {
	var partial struct {
		Version int `json:"$version"`
	}
	if err := json.Unmarshal(data, &partial); err != nil {
		return 1
	}
	if partial.Version == 0 {
		return 1
	}
	return partial.Version
}
