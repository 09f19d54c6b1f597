// Package procwatch reports whether the processes fortpresence depends on
// are running: the game itself, the Discord client, and Steam.
//
// A scan is a point-in-time snapshot. Callers take a fresh [ScanResult]
// every tick and never hold one across ticks.
package procwatch

import (
	"strings"
	"time"
)

// ///////////////////////////////////////////////
// Types
// ///////////////////////////////////////////////

// Kind identifies one of the watched processes.
type Kind int

const (
	// Game is Team Fortress 2.
	Game Kind = iota
	// Discord is the Discord desktop client hosting Rich Presence.
	Discord
	// Steam is the Steam client the game runs under.
	Steam
)

// String returns the user-facing process name.
func (k Kind) String() string {
	switch k {
	case Game:
		return "Team Fortress 2"
	case Discord:
		return "Discord"
	case Steam:
		return "Steam"
	}
	return "unknown"
}

// Snapshot describes one watched process at scan time. PID, Path, and
// StartTime are only meaningful when Running is true; Path and StartTime
// may still be zero when the platform denies access to them.
type Snapshot struct {
	Running   bool
	PID       int
	Path      string
	StartTime time.Time
}

// ScanResult holds the snapshots of all watched processes from one scan.
type ScanResult struct {
	Game    Snapshot
	Discord Snapshot
	Steam   Snapshot
}

// AllRunning reports whether every watched process was found.
func (r ScanResult) AllRunning() bool {
	return r.Game.Running && r.Discord.Running && r.Steam.Running
}

// FirstMissing returns the highest-priority process that is not running.
// Priority order is Game, Discord, Steam, matching the order the daemon
// reports "waiting for X" states in.
func (r ScanResult) FirstMissing() (Kind, bool) {
	switch {
	case !r.Game.Running:
		return Game, true
	case !r.Discord.Running:
		return Discord, true
	case !r.Steam.Running:
		return Steam, true
	}
	return 0, false
}

// Scanner enumerates the watched processes. The platform implementation is
// returned by [New]; tests substitute fakes.
type Scanner interface {
	Scan() (ScanResult, error)
}

// New returns the process scanner for the current platform.
func New() Scanner {
	return platformScanner{}
}

// ///////////////////////////////////////////////
// Name Matching
// ///////////////////////////////////////////////

// classify maps an executable name (basename, any case) to the watched
// process it belongs to. Platform name tables live in the scan files.
func classify(name string) (Kind, bool) {
	name = strings.ToLower(name)
	for kind, names := range targetNames {
		for _, n := range names {
			if name == n {
				return kind, true
			}
		}
	}
	return 0, false
}

// record stores snap into the matching slot of r unless that slot already
// has a running process. The first match per kind wins.
func (r *ScanResult) record(kind Kind, snap Snapshot) {
	slot := map[Kind]*Snapshot{Game: &r.Game, Discord: &r.Discord, Steam: &r.Steam}[kind]
	if slot.Running {
		return
	}
	*slot = snap
}
