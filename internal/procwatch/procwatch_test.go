package procwatch

import "testing"

func TestFirstMissingPriorityOrder(t *testing.T) {
	running := Snapshot{Running: true, PID: 1234}

	tests := []struct {
		name     string
		result   ScanResult
		wantKind Kind
		wantMiss bool
	}{
		{"all missing", ScanResult{}, Game, true},
		{"game missing", ScanResult{Discord: running, Steam: running}, Game, true},
		{"discord missing", ScanResult{Game: running, Steam: running}, Discord, true},
		{"steam missing", ScanResult{Game: running, Discord: running}, Steam, true},
		{"game outranks steam", ScanResult{Discord: running}, Game, true},
		{"all running", ScanResult{Game: running, Discord: running, Steam: running}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, missing := tt.result.FirstMissing()
			if missing != tt.wantMiss {
				t.Fatalf("FirstMissing() missing = %v, want %v", missing, tt.wantMiss)
			}
			if missing && kind != tt.wantKind {
				t.Errorf("FirstMissing() = %v, want %v", kind, tt.wantKind)
			}
		})
	}
}

func TestAllRunning(t *testing.T) {
	running := Snapshot{Running: true}
	if (ScanResult{Game: running, Discord: running}).AllRunning() {
		t.Error("AllRunning with Steam missing")
	}
	if !(ScanResult{Game: running, Discord: running, Steam: running}).AllRunning() {
		t.Error("!AllRunning with everything present")
	}
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	if len(targetNames) == 0 {
		t.Skip("no name table on this platform")
	}
	for kind, names := range targetNames {
		for _, n := range names {
			got, ok := classify(n)
			if !ok || got != kind {
				t.Errorf("classify(%q) = %v, %v; want %v, true", n, got, ok, kind)
			}
		}
	}
	if _, ok := classify("definitely_not_a_target"); ok {
		t.Error("classify matched an unknown name")
	}
}

func TestRecordFirstMatchWins(t *testing.T) {
	var r ScanResult
	r.record(Game, Snapshot{Running: true, PID: 100})
	r.record(Game, Snapshot{Running: true, PID: 200})
	if r.Game.PID != 100 {
		t.Errorf("Game.PID = %d, want first-recorded 100", r.Game.PID)
	}
}

func TestKindString(t *testing.T) {
	if Game.String() != "Team Fortress 2" || Discord.String() != "Discord" || Steam.String() != "Steam" {
		t.Error("unexpected Kind names")
	}
}
