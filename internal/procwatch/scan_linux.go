//go:build linux

package procwatch

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// targetNames maps each watched process to the executable names it runs
// under on Linux. Names are compared lowercase against /proc/<pid>/comm,
// which the kernel truncates to 15 characters.
var targetNames = map[Kind][]string{
	Game:    {"tf_linux64", "hl2_linux"},
	Discord: {"discord", "discordptb", "discordcanary"},
	Steam:   {"steam"},
}

type platformScanner struct{}

// Scan walks /proc once and fills a ScanResult from the numeric entries.
// Processes owned by other users may deny the exe link; the snapshot then
// carries PID and start time but no path.
func (platformScanner) Scan() (ScanResult, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return ScanResult{}, fmt.Errorf("read /proc: %w", err)
	}

	var result ScanResult
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		if err != nil {
			continue // process exited mid-scan
		}
		kind, ok := classify(strings.TrimSpace(string(comm)))
		if !ok {
			continue
		}

		snap := Snapshot{Running: true, PID: pid}
		if path, err := os.Readlink(filepath.Join("/proc", e.Name(), "exe")); err == nil {
			snap.Path = path
		}
		// The /proc/<pid> directory is created when the process starts;
		// its mtime is a close-enough start time for presence elapsed
		// counters.
		if info, err := e.Info(); err == nil {
			snap.StartTime = info.ModTime()
		}
		result.record(kind, snap)
	}
	return result, nil
}
