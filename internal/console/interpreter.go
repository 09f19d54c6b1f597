// Package console interprets TF2's console.log into discrete game events.
//
// The game appends to console.log for as long as it runs with -condebug.
// The interpreter tails only the bytes added since its previous successful
// read, tolerates the file being truncated or briefly unreadable, and never
// consumes a partial line, so an event is parsed exactly once no matter how
// reads align with the game's writes.
package console

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ///////////////////////////////////////////////
// Events
// ///////////////////////////////////////////////

// Events carries the state changes found in newly appended log content.
// Each value field has a matching Set flag; an unset field means the log
// said nothing about it, not that it reset. Latest occurrence wins within
// one read.
type Events struct {
	// InMenus is true after a disconnect-style line and false after a map
	// load.
	InMenus    bool
	InMenusSet bool

	// Map is the most recent loaded map filename.
	Map    string
	MapSet bool

	// Class is the most recent selected player class.
	Class    string
	ClassSet bool

	// Queue is the user-facing matchmaking queue description.
	Queue    string
	QueueSet bool

	// ServerAddr is the most recent "ip:port" the client connected to.
	ServerAddr    string
	ServerAddrSet bool

	// DebugUserSeen is true when a username known to have -condebug
	// enabled connected, attributing this log to a monitored account.
	DebugUserSeen bool

	// Kills counts kill lines credited to a known username in the new
	// content. The aggregator accumulates these across reads and resets
	// the total on map change.
	Kills int
}

func (e *Events) any() bool {
	return e.InMenusSet || e.MapSet || e.ClassSet || e.QueueSet || e.ServerAddrSet ||
		e.DebugUserSeen || e.Kills > 0
}

// Queue descriptions derived from PartyClient lines.
const (
	QueueNone        = "Not queued"
	QueueCasual      = "Queued for Casual"
	QueueCompetitive = "Queued for Competitive"
	QueueMvM         = "Queued for MvM"
	QueueGeneric     = "Queued"
)

// ClassMarkerPrefix starts the echo line the daemon plants in each class
// config so class switches surface in console.log.
const ClassMarkerPrefix = "fp_class_selected "

// Classes lists the nine player classes as they appear in presence text.
var Classes = []string{
	"Scout", "Soldier", "Pyro", "Demoman", "Heavy",
	"Engineer", "Medic", "Sniper", "Spy",
}

// menuMarkers are line prefixes that mean the client left a server and is
// back at the main menu.
var menuMarkers = []string{
	"Disconnect",
	"Disconnecting from",
	"Failed to connect",
	"Connection failed after",
	"Lobby destroyed",
}

// ///////////////////////////////////////////////
// Interpreter
// ///////////////////////////////////////////////

// maxCatchUp bounds how much backlog one read will parse. When the unread
// region is larger (first run against a huge old log, or the daemon was
// down for a long session) the interpreter skips to the tail; presence
// reflects current activity, not history.
const maxCatchUp = 8 << 20

// Interpreter incrementally tails one console.log. It is not safe for
// concurrent use; the main loop is its only caller.
type Interpreter struct {
	path   string
	offset int64
	mtime  time.Time
}

// NewInterpreter tails the log at path, starting from its current end so a
// pre-existing log from an earlier session is not replayed.
func NewInterpreter(path string) *Interpreter {
	i := &Interpreter{path: path}
	if info, err := os.Stat(path); err == nil {
		i.offset = info.Size()
		i.mtime = info.ModTime()
	}
	return i
}

// Interpret reads any newly appended complete lines and returns the events
// found in them. It returns (nil, nil) when there is nothing new or the
// file is momentarily unreadable; callers keep their prior state in that
// case. knownUsernames attributes "<name> connected" lines (see
// [Events.DebugUserSeen]).
func (i *Interpreter) Interpret(knownUsernames map[string]struct{}) (*Events, error) {
	info, err := os.Stat(i.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Debug("console log unreadable", "path", i.path, "error", err)
		}
		return nil, nil
	}

	size := info.Size()
	if size < i.offset {
		// Truncated or rotated underneath us; start over.
		slog.Debug("console log shrank, restarting from beginning", "size", size, "offset", i.offset)
		i.offset = 0
	}
	if size == i.offset && !info.ModTime().After(i.mtime) {
		return nil, nil
	}
	if size-i.offset > maxCatchUp {
		slog.Debug("console log backlog too large, skipping to tail", "backlog", size-i.offset)
		i.offset = size - maxCatchUp
	}

	f, err := os.Open(i.path)
	if err != nil {
		slog.Debug("console log open failed", "error", err)
		return nil, nil
	}
	defer f.Close()

	if _, err := f.Seek(i.offset, io.SeekStart); err != nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(f, maxCatchUp))
	if err != nil {
		slog.Debug("console log read failed", "error", err)
		return nil, nil
	}

	// Consume only up to the last newline; a partial trailing line stays
	// for the next read.
	cut := bytes.LastIndexByte(data, '\n')
	if cut < 0 {
		return nil, nil
	}
	i.offset += int64(cut + 1)
	i.mtime = info.ModTime()

	events := parseLines(data[:cut], knownUsernames)
	if !events.any() {
		return nil, nil
	}
	return events, nil
}

// parseLines folds every recognized line into one Events value.
func parseLines(data []byte, knownUsernames map[string]struct{}) *Events {
	ev := &Events{}
	for _, raw := range bytes.Split(data, []byte{'\n'}) {
		line := strings.TrimRight(string(raw), "\r")
		if line == "" {
			continue
		}
		parseLine(line, knownUsernames, ev)
	}
	return ev
}

func parseLine(line string, knownUsernames map[string]struct{}, ev *Events) {
	switch {
	case strings.HasPrefix(line, "Map: "):
		ev.Map = strings.TrimSpace(strings.TrimPrefix(line, "Map: "))
		ev.MapSet = true
		ev.InMenus = false
		ev.InMenusSet = true

	case strings.HasPrefix(line, "Connected to "):
		ev.ServerAddr = strings.TrimSpace(strings.TrimPrefix(line, "Connected to "))
		ev.ServerAddrSet = true

	case strings.HasPrefix(line, "[PartyClient] Entering queue for match group "):
		group := strings.TrimPrefix(line, "[PartyClient] Entering queue for match group ")
		ev.Queue = queueDescription(group)
		ev.QueueSet = true

	case strings.HasPrefix(line, "[PartyClient] Leaving queue"):
		ev.Queue = QueueNone
		ev.QueueSet = true

	case strings.HasPrefix(line, ClassMarkerPrefix):
		class := strings.TrimSpace(strings.TrimPrefix(line, ClassMarkerPrefix))
		if validClass(class) {
			ev.Class = class
			ev.ClassSet = true
		}

	case isMenuMarker(line):
		ev.InMenus = true
		ev.InMenusSet = true
		// Leaving a server always cancels any queue standing.
		ev.Queue = QueueNone
		ev.QueueSet = true

	case strings.HasSuffix(line, " connected"):
		name := strings.TrimSuffix(line, " connected")
		if _, ok := knownUsernames[name]; ok {
			ev.DebugUserSeen = true
		}

	default:
		// Kill feed: "<killer> killed <victim> with <weapon>."
		if killer, rest, found := strings.Cut(line, " killed "); found && strings.Contains(rest, " with ") {
			if _, ok := knownUsernames[killer]; ok {
				ev.Kills++
			}
		}
	}
}

// queueDescription maps a PartyClient match group to presence text.
func queueDescription(group string) string {
	switch {
	case strings.Contains(group, "Casual"):
		return QueueCasual
	case strings.Contains(group, "Ladder"):
		return QueueCompetitive
	case strings.Contains(group, "MvM"):
		return QueueMvM
	}
	return QueueGeneric
}

func validClass(name string) bool {
	for _, c := range Classes {
		if c == name {
			return true
		}
	}
	return false
}

func isMenuMarker(line string) bool {
	for _, m := range menuMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
