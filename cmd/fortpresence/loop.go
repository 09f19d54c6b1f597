package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fortwatch/fortpresence/internal/config"
	"github.com/fortwatch/fortpresence/internal/console"
	"github.com/fortwatch/fortpresence/internal/discord"
	"github.com/fortwatch/fortpresence/internal/gamemode"
	"github.com/fortwatch/fortpresence/internal/gamestate"
	"github.com/fortwatch/fortpresence/internal/paths"
	"github.com/fortwatch/fortpresence/internal/procwatch"
	"github.com/fortwatch/fortpresence/internal/steamcfg"
	"github.com/fortwatch/fortpresence/internal/update"
)

// ///////////////////////////////////////////////
// Daemon
// ///////////////////////////////////////////////

// daemon holds everything the tick loop mutates. One instance lives for the
// process lifetime; per-game-session pieces (interpreter, watcher, Steam
// scanner) are created when the game appears and torn down when it exits.
type daemon struct {
	cfg       *config.Config
	dataPaths DataPaths
	version   string

	scanner   procwatch.Scanner
	publisher *discord.Publisher
	state     *gamestate.State

	// Per-game-session state, nil/zero while the game is not running.
	steam     *steamcfg.Scanner
	interp    *console.Interpreter
	watcher   *console.Watcher
	usernames map[string]struct{}
	gameDir   string

	gameRunning     bool
	condebugWarned  bool
	logAttributed   bool
	initOpsDone     bool
	priorityLowered bool
	slow            bool
	iteration       int
}

// newDaemon wires the long-lived collaborators into a daemon ready to run.
func newDaemon(
	cfg *config.Config,
	dataPaths DataPaths,
	version string,
	scanner procwatch.Scanner,
	publisher *discord.Publisher,
	db *gamemode.DB,
	resolver gamestate.Resolver,
	querier gamestate.ServerQuerier,
) *daemon {
	return &daemon{
		cfg:       cfg,
		dataPaths: dataPaths,
		version:   version,
		scanner:   scanner,
		publisher: publisher,
		state:     gamestate.New(cfg, db, resolver, querier),
	}
}

// close tears down any live game-session resources.
func (d *daemon) close() {
	if d.watcher != nil {
		d.watcher.Close()
		d.watcher = nil
	}
}

// ///////////////////////////////////////////////
// Run Loop
// ///////////////////////////////////////////////

// run ticks until a shutdown signal arrives or a tick fails fatally.
// Between ticks it waits on the console.log watcher (when one is live) and a
// timer; the timer stretches to the slow interval while a required process
// is missing, since process launches are rare events.
func (d *daemon) run(sigCh <-chan os.Signal) error {
	ctx := context.Background()

	for {
		if err := d.tick(ctx); err != nil {
			return err
		}

		wait := d.cfg.Behavior.WaitTime()
		if d.slow {
			wait = d.cfg.Behavior.WaitTimeSlow()
		}

		var events <-chan struct{}
		if d.watcher != nil {
			events = d.watcher.Events()
		}

		timer := time.NewTimer(wait)
		select {
		case <-sigCh:
			timer.Stop()
			slog.Info("received shutdown signal")
			return nil
		case <-events:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// ///////////////////////////////////////////////
// Tick
// ///////////////////////////////////////////////

// tick runs one pass of the daemon state machine: scan processes, ingest
// console events, render a view, and publish it if it changed. A non-nil
// error is fatal: recognized not-ready presence failures are absorbed inside
// [discord.Publisher], so anything surfacing here is unexpected and must
// end the session rather than be retried forever.
func (d *daemon) tick(ctx context.Context) error {
	d.iteration++

	result, err := d.scanner.Scan()
	if err != nil {
		slog.Warn("process scan failed", "error", err)
		return nil
	}

	if missing, ok := result.FirstMissing(); ok {
		d.waitFor(missing, result)
		d.finishTick()
		return nil
	}

	d.slow = false
	if !d.gameRunning {
		d.beginGameSession(result.Game, result.Steam)
	}

	d.scanSteam()

	if d.interp != nil {
		ev, interpErr := d.interp.Interpret(d.usernames)
		if interpErr != nil {
			slog.Debug("console log read failed", "error", interpErr)
		}
		if ev != nil && ev.DebugUserSeen {
			d.logAttributed = true
		}
		d.state.ApplyEvents(ev)
	}

	d.warnMissingCondebug()

	v := d.state.View(ctx)
	if d.state.UpdateRPC(v) {
		accepted, pubErr := d.publisher.Publish(d.state.Activity(v))
		if pubErr != nil {
			return fmt.Errorf("presence update: %w", pubErr)
		}
		if accepted {
			d.state.MarkPublished(v)
			slog.Debug("presence updated", "details", v.Details, "state", v.State)
		}
	}

	d.finishTick()
	return nil
}

// finishTick applies the once-per-lifetime side effects after a tick has run
// to completion, whichever branch it took. Both are deliberately deferred
// past the first tick so presence appears before any housekeeping happens.
func (d *daemon) finishTick() {
	if !d.priorityLowered {
		if err := lowerPriority(); err != nil {
			slog.Debug("could not lower process priority", "error", err)
		}
		d.priorityLowered = true
	}
	d.maybeRunInitOps()
}

// waitFor handles a tick where a required process is missing. Presence is
// withdrawn and the loop drops to the slow interval until everything is
// back.
func (d *daemon) waitFor(missing procwatch.Kind, result procwatch.ScanResult) {
	d.slow = true
	if d.gameRunning && !result.Game.Running {
		d.endGameSession()
	}
	// Closing the IPC connection withdraws the presence card; Discord
	// clears it client-side when the pipe drops.
	d.publisher.Disconnect()
	d.state.ForgetPublished()
	slog.Debug("waiting for process", "process", missing.String())
}

// ///////////////////////////////////////////////
// Game Session Lifecycle
// ///////////////////////////////////////////////

// beginGameSession sets up the per-session pieces once the game process is
// seen: console.log tailing, the Steam config scanner, and the class config
// markers.
func (d *daemon) beginGameSession(game, steam procwatch.Snapshot) {
	d.gameRunning = true
	d.gameDir = filepath.Dir(game.Path)
	d.state.SetGameStart(game.StartTime)
	slog.Info("game detected", "pid", game.PID, "dir", d.gameDir)

	consolePath := paths.ConsoleLog(d.gameDir)
	d.interp = console.NewInterpreter(consolePath)
	w, err := console.NewWatcher(consolePath)
	if err != nil {
		slog.Warn("console log watcher unavailable, relying on the tick timer", "error", err)
	} else {
		d.watcher = w
		if w.Polling() {
			slog.Info("using polling mode for console log watching")
		}
	}

	if steamDir := steamcfg.FindSteamDir(steam.Path); steamDir != "" {
		d.steam = steamcfg.NewScanner(steamDir)
	} else {
		slog.Warn("Steam directory not found; username attribution disabled")
	}

	if err := installClassMarkers(paths.ClassConfigDir(d.gameDir)); err != nil {
		slog.Warn("class config markers not installed", "error", err)
	}
}

// endGameSession tears down per-session pieces after the game exits and
// resets the aggregated state so a relaunch starts clean.
func (d *daemon) endGameSession() {
	slog.Info("game exited")
	d.gameRunning = false
	d.gameDir = ""
	d.interp = nil
	d.steam = nil
	d.usernames = nil
	d.condebugWarned = false
	d.logAttributed = false
	if d.watcher != nil {
		d.watcher.Close()
		d.watcher = nil
	}
	d.state.Reset()
}

// scanSteam refreshes persona names and the -condebug standing from Steam's
// localconfig files.
func (d *daemon) scanSteam() {
	if d.steam == nil {
		return
	}
	d.steam.Scan()
	d.usernames = d.steam.Personas()
}

// warnMissingCondebug warns once per game session when nothing indicates
// console.log is being written: no scanned Steam account has -condebug in
// its launch options and no known username has shown up in the log itself.
func (d *daemon) warnMissingCondebug() {
	if d.steam == nil || d.condebugWarned || d.logAttributed {
		return
	}
	if d.steam.CondebugEnabled() {
		return
	}
	slog.Warn("no Steam account launches TF2 with -condebug; console.log will stay empty")
	d.condebugWarned = true
}

// ///////////////////////////////////////////////
// Deferred Init Operations
// ///////////////////////////////////////////////

// maybeRunInitOps runs the one-time startup work after the first tick has
// completed, so presence appears before any network round trips happen.
func (d *daemon) maybeRunInitOps() {
	if d.initOpsDone || d.iteration < 1 {
		return
	}
	d.initOpsDone = true

	logLocale()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("init operations panic", "error", r)
			}
		}()
		if d.cfg.Behavior.CheckUpdates {
			update.Check(d.version)
		}
		gamemode.Refresh(d.dataPaths.Root)
	}()
}

// logLocale records the host locale for debugging report triage.
func logLocale() {
	locale := os.Getenv("LC_ALL")
	if locale == "" {
		locale = os.Getenv("LANG")
	}
	if locale == "" {
		locale = "unknown"
	}
	slog.Debug("host locale", "locale", locale)
}
