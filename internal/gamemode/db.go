package gamemode

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fortwatch/fortpresence/internal/atomicfile"
	"github.com/fortwatch/fortpresence/internal/paths"
	"github.com/fortwatch/fortpresence/internal/remote"
)

// mapsJSON holds the bundled static map database, embedded at build time.
//
//go:embed maps.json
var mapsJSON []byte

// ///////////////////////////////////////////////
// Static Database
// ///////////////////////////////////////////////

// DB is the static map database. It is read-only after load.
type DB struct {
	// Official maps official map filenames to their gamemode.
	Official map[string]Pair `json:"official"`
	// CommonCustom maps well-known community map filenames to their
	// gamemode, saving an API round trip for popular custom maps.
	CommonCustom map[string]Pair `json:"common_custom"`
	// Excluded lists maps that never resolve through the official table
	// (menu backgrounds, the item test map).
	Excluded []string `json:"excluded"`
}

// IsExcluded reports whether mapName is on the excluded list.
func (db *DB) IsExcluded(mapName string) bool {
	for _, m := range db.Excluded {
		if m == mapName {
			return true
		}
	}
	return false
}

var (
	loadOnce sync.Once
	loadedDB *DB
)

// Load returns the static map database, memoized for the process lifetime.
// A maps.json previously refreshed into dataDir takes precedence over the
// bundled copy; either way the result never changes after the first call.
func Load(dataDir string) *DB {
	loadOnce.Do(func() {
		if dataDir != "" {
			if db, err := parseDB(readRefreshed(dataDir)); err == nil && db != nil {
				slog.Debug("loaded refreshed map database", "official", len(db.Official), "common_custom", len(db.CommonCustom))
				loadedDB = db
				return
			}
		}
		db, err := parseDB(mapsJSON)
		if err != nil {
			// The embedded database is validated by tests; reaching this
			// means a broken build.
			panic(fmt.Sprintf("gamemode: embedded maps.json invalid: %v", err))
		}
		loadedDB = db
	})
	return loadedDB
}

// parseDB unmarshals and sanity-checks a map database document.
func parseDB(data []byte) (*DB, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty map database")
	}
	var db DB
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("parse map database: %w", err)
	}
	if db.CommonCustom == nil {
		return nil, fmt.Errorf("map database missing common_custom table")
	}
	return &db, nil
}

// refreshedPath is where a remotely refreshed maps.json is stored.
func refreshedPath(dataDir string) string {
	return filepath.Join(dataDir, "maps.json")
}

// readRefreshed returns the bytes of a previously refreshed maps.json,
// or nil when none exists.
func readRefreshed(dataDir string) []byte {
	data, err := os.ReadFile(refreshedPath(dataDir))
	if err != nil {
		return nil
	}
	return data
}

// ///////////////////////////////////////////////
// Remote Refresh
// ///////////////////////////////////////////////

// refreshClient is a lazily-initialized retryable HTTP client shared by
// database refreshes.
var (
	refreshClient     *retryablehttp.Client
	refreshClientOnce sync.Once
)

func getRefreshClient() *retryablehttp.Client {
	refreshClientOnce.Do(func() {
		refreshClient = retryablehttp.NewClient()
		refreshClient.RetryMax = 2
		refreshClient.HTTPClient.Timeout = 10 * time.Second
		refreshClient.Logger = nil // suppress retryablehttp's default logging
	})
	return refreshClient
}

// Refresh downloads the latest maps.json from the project's repository and
// stores it in dataDir for the next daemon start. The in-memory database is
// deliberately not swapped: [Load] memoizes once per process so resolution
// stays consistent within a session. Failures are logged and ignored.
func Refresh(dataDir string) {
	url := remote.RawURL(paths.MapsDataPath)
	if url == "" {
		slog.Debug("skipping map database refresh: no remote URL configured")
		return
	}
	refreshFrom(url, dataDir)
}

// refreshFrom fetches, validates, and stores a map database from url.
func refreshFrom(url, dataDir string) {
	resp, err := getRefreshClient().Get(url)
	if err != nil {
		slog.Debug("map database refresh failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Debug("map database refresh failed", "status", resp.StatusCode)
		return
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		slog.Debug("map database refresh read failed", "error", err)
		return
	}
	if _, err := parseDB(body); err != nil {
		slog.Warn("refreshed map database rejected", "error", err)
		return
	}

	if err := atomicfile.Write(refreshedPath(dataDir), body, 0o644); err != nil {
		slog.Debug("failed to store refreshed map database", "error", err)
		return
	}
	slog.Info("map database refreshed", "bytes", len(body))
}
