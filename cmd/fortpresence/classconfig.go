package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fortwatch/fortpresence/internal/console"
)

// ///////////////////////////////////////////////
// Class Config Markers
// ///////////////////////////////////////////////

// classConfigFile returns the per-class .cfg base name the game executes
// when the player picks that class. Heavy is the one irregular name.
func classConfigFile(class string) string {
	if class == "Heavy" {
		return "heavyweapons.cfg"
	}
	return strings.ToLower(class) + ".cfg"
}

// classMarkerLine is the echo command planted in a class config. The game
// runs the config on class selection, the echo lands in console.log, and
// the interpreter picks it up as a class change.
func classMarkerLine(class string) string {
	return fmt.Sprintf("echo %q", console.ClassMarkerPrefix+class)
}

// installClassMarkers plants the marker echo in each of the nine class
// configs under cfgDir, creating configs that do not exist yet. Files that
// already carry their marker are left untouched, so repeated installs are
// harmless. Per-file failures are logged and skipped; the install succeeds
// as long as the directory itself is usable.
func installClassMarkers(cfgDir string) error {
	if _, err := os.Stat(cfgDir); err != nil {
		return fmt.Errorf("class config dir: %w", err)
	}

	for _, class := range console.Classes {
		path := filepath.Join(cfgDir, classConfigFile(class))
		marker := classMarkerLine(class)

		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			slog.Warn("class config unreadable", "file", path, "error", err)
			continue
		}
		if strings.Contains(string(data), marker) {
			continue
		}

		content := string(data)
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += marker + "\n"

		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			slog.Warn("failed to write class config marker", "file", path, "error", err)
			continue
		}
		slog.Debug("installed class config marker", "file", path)
	}
	return nil
}
