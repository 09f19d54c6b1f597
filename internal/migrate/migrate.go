// Package migrate upgrades versioned on-disk documents in place. The daemon
// has two such documents, config.toml and the DB.json map cache; each one
// owns a [Registry] declaring its current schema version and the ordered
// transforms that bring older files up to it.
package migrate

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Migration is one schema step. Upgrade receives a document at the previous
// version and must return it at [Migration.Version].
type Migration struct {
	// Version is the schema version this migration produces.
	Version int
	// Description labels the step in log output.
	Description string
	// Upgrade transforms the raw document bytes.
	Upgrade func(data []byte) ([]byte, error)
}

// ///////////////////////////////////////////////
// Public API
// ///////////////////////////////////////////////

// Run applies every migration with a Version above fromVersion, in version
// order, and returns the transformed document with the version it reached.
// A failing step aborts the chain; the caller keeps its original bytes.
func Run(data []byte, fromVersion int, migrations []Migration) ([]byte, int, error) {
	ordered := slices.Clone(migrations)
	slices.SortFunc(ordered, func(a, b Migration) int {
		return cmp.Compare(a.Version, b.Version)
	})

	version := fromVersion
	for _, m := range ordered {
		if version >= m.Version {
			continue
		}
		slog.Info("applying migration", "version", m.Version, "description", m.Description)
		var err error
		if data, err = m.Upgrade(data); err != nil {
			return nil, version, fmt.Errorf("migration to v%d failed: %w", m.Version, err)
		}
		version = m.Version
	}
	return data, version, nil
}

// NeedsMigration reports whether a document at fileVersion would be touched
// by Run. force requests a rewrite whenever any migration exists at all,
// used by development rebuilds.
func NeedsMigration(fileVersion, currentVersion int, force bool, migrations []Migration) bool {
	if fileVersion != currentVersion {
		return true
	}
	if force && len(migrations) > 0 {
		return true
	}
	return slices.ContainsFunc(migrations, func(m Migration) bool {
		return fileVersion < m.Version
	})
}
