package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fortwatch/fortpresence/internal/config"
	"github.com/fortwatch/fortpresence/internal/discord"
	"github.com/fortwatch/fortpresence/internal/gamemode"
	"github.com/fortwatch/fortpresence/internal/procwatch"
	"github.com/fortwatch/fortpresence/internal/srcquery"
	"github.com/fortwatch/fortpresence/internal/steamcfg"
)

// ///////////////////////////////////////////////
// Fakes
// ///////////////////////////////////////////////

type fakeScanner struct {
	result procwatch.ScanResult
	err    error
}

func (f *fakeScanner) Scan() (procwatch.ScanResult, error) {
	return f.result, f.err
}

type fakeTransport struct {
	connected  bool
	connectErr error
	setErr     error
	setCalls   int
	clearCalls int
	closeCalls int
	last       *discord.Activity
}

func (f *fakeTransport) Connect() error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) SetActivity(a *discord.Activity) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.setCalls++
	f.last = a
	return nil
}

func (f *fakeTransport) ClearActivity() error {
	f.clearCalls++
	return nil
}

func (f *fakeTransport) Close() error {
	f.closeCalls++
	f.connected = false
	return nil
}

func (f *fakeTransport) Connected() bool { return f.connected }

type stubResolver struct{}

func (stubResolver) Resolve(mapName string, forceRemote bool) (gamemode.Pair, error) {
	return gamemode.Sentinel(), nil
}

type stubQuerier struct{}

func (stubQuerier) Query(ctx context.Context, addr string) (*srcquery.Info, error) {
	return &srcquery.Info{Players: 10, MaxPlayers: 24}, nil
}

// ///////////////////////////////////////////////
// Helpers
// ///////////////////////////////////////////////

// newTestDaemon builds a daemon over fakes plus a throwaway game install
// under a temp dir. The returned ScanResult reports all three processes
// running with the game rooted at that install.
func newTestDaemon(t *testing.T) (*daemon, *fakeScanner, *fakeTransport, procwatch.ScanResult) {
	t.Helper()

	gameRoot := t.TempDir()
	if err := os.MkdirAll(filepath.Join(gameRoot, "tf", "cfg"), 0o755); err != nil {
		t.Fatalf("create game dirs: %v", err)
	}

	allRunning := procwatch.ScanResult{
		Game: procwatch.Snapshot{
			Running:   true,
			PID:       4242,
			Path:      filepath.Join(gameRoot, "tf_linux64"),
			StartTime: time.Unix(1700000000, 0),
		},
		Discord: procwatch.Snapshot{Running: true, PID: 4243},
		Steam:   procwatch.Snapshot{Running: true, PID: 4244},
	}

	cfg := config.DefaultConfig()
	cfg.Behavior.CheckUpdates = false

	scanner := &fakeScanner{result: allRunning}
	transport := &fakeTransport{}
	d := newDaemon(cfg, DataPaths{Root: t.TempDir()}, "test",
		scanner, discord.NewPublisher(transport), gamemode.Load(""), stubResolver{}, stubQuerier{})
	// Init ops reach the network; tests never want them.
	d.initOpsDone = true
	t.Cleanup(d.close)

	return d, scanner, transport, allRunning
}

func consoleLogPath(d *daemon) string {
	return filepath.Join(d.gameDir, "tf", "console.log")
}

func appendConsole(t *testing.T, d *daemon, lines string) {
	t.Helper()
	f, err := os.OpenFile(consoleLogPath(d), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open console log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(lines); err != nil {
		t.Fatalf("append console log: %v", err)
	}
}

// ///////////////////////////////////////////////
// Tick State Machine Tests
// ///////////////////////////////////////////////

func TestTickAllProcessesMissing(t *testing.T) {
	d, scanner, transport, _ := newTestDaemon(t)
	scanner.result = procwatch.ScanResult{}

	d.tick(context.Background())

	if !d.slow {
		t.Error("loop not slowed while waiting for processes")
	}
	if d.gameRunning {
		t.Error("game session started with no game running")
	}
	if transport.setCalls != 0 {
		t.Errorf("SetActivity called %d times while waiting", transport.setCalls)
	}
}

func TestTickPublishesMenuPresence(t *testing.T) {
	d, _, transport, _ := newTestDaemon(t)

	d.tick(context.Background())

	if !d.gameRunning {
		t.Fatal("game session not started")
	}
	if d.slow {
		t.Error("loop slowed with all processes running")
	}
	if transport.setCalls != 1 {
		t.Fatalf("SetActivity calls = %d, want 1", transport.setCalls)
	}
	if transport.last.Details != "In menus" {
		t.Errorf("Details = %q, want In menus", transport.last.Details)
	}
}

func TestTickSuppressesUnchangedPresence(t *testing.T) {
	d, _, transport, _ := newTestDaemon(t)

	d.tick(context.Background())
	d.tick(context.Background())
	d.tick(context.Background())

	if transport.setCalls != 1 {
		t.Errorf("SetActivity calls = %d, want 1 for an unchanged view", transport.setCalls)
	}
}

func TestTickPicksUpConsoleEvents(t *testing.T) {
	d, _, transport, _ := newTestDaemon(t)

	d.tick(context.Background())
	appendConsole(t, d, "Map: pl_badwater\n")
	d.tick(context.Background())

	if transport.setCalls != 2 {
		t.Fatalf("SetActivity calls = %d, want 2", transport.setCalls)
	}
	if transport.last.Details != "Map: pl_badwater" {
		t.Errorf("Details = %q, want the map line", transport.last.Details)
	}
}

func TestTickGameExitTearsDownSession(t *testing.T) {
	d, scanner, transport, allRunning := newTestDaemon(t)

	d.tick(context.Background())
	appendConsole(t, d, "Map: pl_badwater\n")
	d.tick(context.Background())

	gone := allRunning
	gone.Game = procwatch.Snapshot{}
	scanner.result = gone
	d.tick(context.Background())

	if d.gameRunning {
		t.Error("game session still live after exit")
	}
	if d.watcher != nil || d.interp != nil || d.steam != nil {
		t.Error("per-session resources not torn down")
	}
	if !d.slow {
		t.Error("loop not slowed after game exit")
	}
	if transport.closeCalls != 1 {
		t.Errorf("Close calls = %d, want 1", transport.closeCalls)
	}

	// Relaunch starts a fresh session and republishes the menu view.
	scanner.result = allRunning
	d.tick(context.Background())
	if !d.gameRunning {
		t.Error("game session not restarted")
	}
	if transport.last.Details != "In menus" {
		t.Errorf("Details after relaunch = %q, want In menus", transport.last.Details)
	}
}

func TestTickScanError(t *testing.T) {
	d, scanner, transport, _ := newTestDaemon(t)
	scanner.err = os.ErrPermission

	d.tick(context.Background())

	if d.gameRunning || transport.setCalls != 0 {
		t.Error("scan error mutated session state")
	}
}

func TestTickUnrecognizedPublishErrorIsFatal(t *testing.T) {
	d, _, transport, _ := newTestDaemon(t)
	brokenPipe := errors.New("write unix @->discord-ipc-0: broken pipe")
	transport.setErr = brokenPipe

	err := d.tick(context.Background())

	if err == nil {
		t.Fatal("tick swallowed an unrecognized publish failure")
	}
	if !errors.Is(err, brokenPipe) {
		t.Errorf("tick error = %v, want it to wrap the transport failure", err)
	}
}

func TestRunStopsOnFatalPublishError(t *testing.T) {
	d, _, transport, _ := newTestDaemon(t)
	transport.setErr = errors.New("the pipe is being closed")

	sigCh := make(chan os.Signal)
	if err := d.run(sigCh); err == nil {
		t.Fatal("run kept going after a fatal publish error")
	}
}

func TestTickLifetimeOpsRunWhileWaiting(t *testing.T) {
	d, scanner, _, _ := newTestDaemon(t)
	d.initOpsDone = false
	scanner.result = procwatch.ScanResult{}

	d.tick(context.Background())

	if !d.priorityLowered {
		t.Error("process priority not lowered while waiting for processes")
	}
	if !d.initOpsDone {
		t.Error("init operations not run while waiting for processes")
	}
}

func TestTickAttributesLogToKnownPersona(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)

	d.tick(context.Background())
	// No Steam scanner in the test install, so the persona set stays ours.
	d.usernames = map[string]struct{}{"WatchedUser": {}}
	appendConsole(t, d, "WatchedUser connected\n")
	d.tick(context.Background())

	if !d.logAttributed {
		t.Error("known persona in the log did not mark it attributed")
	}
}

func TestWarnMissingCondebug(t *testing.T) {
	tests := []struct {
		name       string
		attributed bool
		wantWarned bool
	}{
		{"stale steam config, silent log", false, true},
		{"stale steam config, live log", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, _, _, _ := newTestDaemon(t)
			d.steam = steamcfg.NewScanner(t.TempDir())
			d.logAttributed = tt.attributed

			d.warnMissingCondebug()

			if d.condebugWarned != tt.wantWarned {
				t.Errorf("condebugWarned = %v, want %v", d.condebugWarned, tt.wantWarned)
			}
		})
	}
}

func TestTickDiscordNotReadyIsNotFatal(t *testing.T) {
	d, _, transport, _ := newTestDaemon(t)
	transport.connectErr = discord.ErrIPCNotAvailable

	d.tick(context.Background())

	if transport.setCalls != 0 {
		t.Error("SetActivity called without a connection")
	}

	// Discord comes up; the same view publishes on the next tick.
	transport.connectErr = nil
	d.tick(context.Background())
	if transport.setCalls != 1 {
		t.Errorf("SetActivity calls = %d after Discord recovered, want 1", transport.setCalls)
	}
}

func TestTickInstallsClassMarkers(t *testing.T) {
	d, _, _, _ := newTestDaemon(t)

	d.tick(context.Background())

	path := filepath.Join(d.gameDir, "tf", "cfg", "medic.cfg")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("medic.cfg not created: %v", err)
	}
	want := classMarkerLine("Medic")
	if string(data) != want+"\n" {
		t.Errorf("medic.cfg = %q, want %q", string(data), want+"\n")
	}
}
