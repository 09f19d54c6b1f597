// Tests for data directory and game path construction.
package paths

import (
	"path/filepath"
	"testing"
)

func TestDataDirPaths(t *testing.T) {
	d := DataDir{Root: filepath.Join("home", ".fortpresence")}

	tests := []struct {
		name string
		got  string
		file string
	}{
		{"pid", d.PID(), PIDFile},
		{"config", d.Config(), ConfigFile},
		{"log", d.Log(), LogFile},
		{"db", d.DB(), DBFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := filepath.Join(d.Root, tt.file)
			if tt.got != want {
				t.Errorf("got %q, want %q", tt.got, want)
			}
		})
	}
}

func TestConsoleLog(t *testing.T) {
	got := ConsoleLog(filepath.Join("steamapps", "common", "Team Fortress 2"))
	want := filepath.Join("steamapps", "common", "Team Fortress 2", "tf", "console.log")
	if got != want {
		t.Errorf("ConsoleLog = %q, want %q", got, want)
	}
}

func TestClassConfigDir(t *testing.T) {
	got := ClassConfigDir("game")
	want := filepath.Join("game", "tf", "cfg")
	if got != want {
		t.Errorf("ClassConfigDir = %q, want %q", got, want)
	}
}
