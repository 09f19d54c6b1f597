// Package paths centralizes file and directory names used across the project.
// All data directory file names are defined here as the single source of truth.
package paths

import "path/filepath"

// ///////////////////////////////////////////////
// Constants
// ///////////////////////////////////////////////

// Data directory file names.
const (
	PIDFile    = "daemon.pid"
	ConfigFile = "config.toml"
	LogFile    = "daemon.log"
	DBFile     = "DB.json"
)

// Daemon identity.
const (
	BinaryName = "fortpresence"
	DataDirRel = ".fortpresence" // relative to $HOME
)

// Remote-fetched file paths (relative to repo root).
const (
	MapsDataPath    = "data/maps.json"
	ReleaseManifest = ".release-manifest.json"
)

// ///////////////////////////////////////////////
// DataDir
// ///////////////////////////////////////////////

// DataDir provides path construction methods rooted at a data directory.
type DataDir struct {
	Root string
}

// PID returns the full path to the PID file.
func (d DataDir) PID() string { return filepath.Join(d.Root, PIDFile) }

// Config returns the full path to the config file.
func (d DataDir) Config() string { return filepath.Join(d.Root, ConfigFile) }

// Log returns the full path to the log file.
func (d DataDir) Log() string { return filepath.Join(d.Root, LogFile) }

// DB returns the full path to the DB.json document store.
func (d DataDir) DB() string { return filepath.Join(d.Root, DBFile) }

// ///////////////////////////////////////////////
// Game Paths
// ///////////////////////////////////////////////

// ConsoleLog returns the console.log path for a TF2 install directory.
// The game only writes this file when launched with -condebug.
func ConsoleLog(gameDir string) string {
	return filepath.Join(gameDir, "tf", "console.log")
}

// ClassConfigDir returns the per-class .cfg directory for a TF2 install
// directory.
func ClassConfigDir(gameDir string) string {
	return filepath.Join(gameDir, "tf", "cfg")
}
