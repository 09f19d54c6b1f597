// Package steamcfg reads Steam's per-account localconfig.vdf files to find
// accounts that launch TF2 with -condebug, the launch option that makes the
// game write console.log.
//
// Without -condebug the daemon has nothing to interpret, so the main loop
// uses this scan both to warn the user and to learn which persona names can
// be attributed to the monitored log.
package steamcfg

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tf2AppID is TF2's Steam application ID as it appears in localconfig.vdf.
const tf2AppID = "440"

// ///////////////////////////////////////////////
// Scanner
// ///////////////////////////////////////////////

// Scanner tracks the localconfig.vdf files under one Steam installation.
// Files are re-parsed only when their modification time advances, since the
// scan runs inside the main loop.
type Scanner struct {
	steamDir string
	mtimes   map[string]time.Time

	condebug bool
	personas map[string]struct{}
}

// NewScanner scans the Steam installation rooted at steamDir.
func NewScanner(steamDir string) *Scanner {
	return &Scanner{
		steamDir: steamDir,
		mtimes:   make(map[string]time.Time),
		personas: make(map[string]struct{}),
	}
}

// Scan re-reads any changed localconfig.vdf and reports whether anything
// was re-parsed. Results accumulate: an account once seen with -condebug
// stays counted even if its file later becomes unreadable.
func (s *Scanner) Scan() bool {
	pattern := filepath.Join(s.steamDir, "userdata", "*", "config", "localconfig.vdf")
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return false
	}

	changed := false
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if last, ok := s.mtimes[path]; ok && !info.ModTime().After(last) {
			continue
		}
		s.mtimes[path] = info.ModTime()
		changed = true

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("steam localconfig unreadable", "path", path, "error", err)
			continue
		}
		s.ingest(path, data)
	}
	return changed
}

// ingest parses one localconfig.vdf and records its persona and -condebug
// standing.
func (s *Scanner) ingest(path string, data []byte) {
	root, err := ParseVDF(data)
	if err != nil {
		slog.Debug("steam localconfig unparseable", "path", path, "error", err)
		return
	}

	store := root.Child("UserLocalConfigStore")
	if store == nil {
		return
	}

	persona := store.Child("friends").Value("PersonaName")
	launch := store.Child("Software", "Valve", "Steam", "apps", tf2AppID).Value("LaunchOptions")

	condebug := strings.Contains(launch, "-condebug")
	if condebug {
		s.condebug = true
	}
	if persona != "" {
		if _, seen := s.personas[persona]; !seen {
			slog.Debug("found Steam account", "persona", persona, "condebug", condebug)
		}
		s.personas[persona] = struct{}{}
	}
}

// CondebugEnabled reports whether any scanned account launches TF2 with
// -condebug.
func (s *Scanner) CondebugEnabled() bool {
	return s.condebug
}

// Personas returns the persona names of every scanned account. Any of them
// may show up in console.log, so all are candidates for line attribution.
// The map is live; callers must not mutate it.
func (s *Scanner) Personas() map[string]struct{} {
	return s.personas
}

// ///////////////////////////////////////////////
// Steam Location
// ///////////////////////////////////////////////

// DefaultSteamDirs returns the usual Steam installation roots for this
// platform, most likely first. The main loop prefers the directory derived
// from the running Steam process and falls back to these.
func DefaultSteamDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	var dirs []string
	if pf := os.Getenv("ProgramFiles(x86)"); pf != "" {
		dirs = append(dirs, filepath.Join(pf, "Steam"))
	}
	if home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".local", "share", "Steam"),
			filepath.Join(home, ".steam", "steam"),
		)
	}
	return dirs
}

// FindSteamDir returns the first candidate directory that has a userdata
// subdirectory. processPath, when non-empty, is the running Steam binary's
// path and its directory is tried first.
func FindSteamDir(processPath string) string {
	var candidates []string
	if processPath != "" {
		candidates = append(candidates, filepath.Dir(processPath))
	}
	candidates = append(candidates, DefaultSteamDirs()...)

	for _, dir := range candidates {
		if info, err := os.Stat(filepath.Join(dir, "userdata")); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}
