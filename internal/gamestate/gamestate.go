// Package gamestate folds process, console, and gamemode information into
// the single coherent state the presence publisher renders.
//
// The aggregator owns the publish decision: a tick republishes only when
// the externally visible view (map line, state line, images, timer anchor)
// differs field-by-field from what was last published.
package gamestate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fortwatch/fortpresence/internal/config"
	"github.com/fortwatch/fortpresence/internal/console"
	"github.com/fortwatch/fortpresence/internal/discord"
	"github.com/fortwatch/fortpresence/internal/gamemode"
	"github.com/fortwatch/fortpresence/internal/srcquery"
)

// ///////////////////////////////////////////////
// Collaborator Contracts
// ///////////////////////////////////////////////

// Resolver resolves a custom map to its gamemode. Satisfied by
// [gamemode.Resolver].
type Resolver interface {
	Resolve(mapName string, forceRemote bool) (gamemode.Pair, error)
}

// ServerQuerier fetches live data from the connected game server.
// Satisfied by [srcquery.Querier].
type ServerQuerier interface {
	Query(ctx context.Context, addr string) (*srcquery.Info, error)
}

// ///////////////////////////////////////////////
// View
// ///////////////////////////////////////////////

// View is the externally visible presence content. Two ticks with equal
// views must not republish; equality is plain field comparison, which is
// why View holds only rendered strings and the timer anchor.
type View struct {
	Details    string
	State      string
	LargeImage string
	LargeText  string
	SmallImage string
	SmallText  string
	// TimerStart anchors Discord's elapsed counter; zero hides it.
	TimerStart int64
}

// ///////////////////////////////////////////////
// State
// ///////////////////////////////////////////////

// State is the aggregated game state, mutated once per tick.
type State struct {
	cfg      *config.Config
	db       *gamemode.DB
	resolver Resolver
	querier  ServerQuerier

	// Now overrides the clock for tests; nil means time.Now.
	Now func() time.Time

	InMenus    bool
	Map        string
	CustomMap  bool
	Gamemode   gamemode.Pair
	Class      string
	Queue      string
	ServerAddr string
	Kills      int

	gameStart  time.Time
	mapStart   time.Time
	serverInfo *srcquery.Info

	published View
	everShown bool
}

// New returns an aggregator over the given collaborators.
func New(cfg *config.Config, db *gamemode.DB, resolver Resolver, querier ServerQuerier) *State {
	return &State{
		cfg:      cfg,
		db:       db,
		resolver: resolver,
		querier:  querier,
		InMenus:  true,
		Queue:    console.QueueNone,
	}
}

func (s *State) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// SetGameStart records the game process's launch time for the elapsed
// timer.
func (s *State) SetGameStart(t time.Time) {
	s.gameStart = t
}

// Reset returns the state to its launch defaults. Called when the game
// stops so a later session starts clean.
func (s *State) Reset() {
	s.InMenus = true
	s.Map = ""
	s.CustomMap = false
	s.Gamemode = gamemode.Pair{}
	s.Class = ""
	s.Queue = console.QueueNone
	s.ServerAddr = ""
	s.Kills = 0
	s.gameStart = time.Time{}
	s.mapStart = time.Time{}
	s.serverInfo = nil
	s.everShown = false
}

// ApplyEvents folds one batch of console events into the state. A nil
// batch (no new log content) leaves everything untouched.
func (s *State) ApplyEvents(ev *console.Events) {
	if ev == nil {
		return
	}

	if ev.MapSet && ev.Map != s.Map {
		s.Map = ev.Map
		s.Kills = 0
		s.mapStart = s.now()
		s.serverInfo = nil
		s.resolveGamemode(ev.Map)
	}
	if ev.InMenusSet {
		s.InMenus = ev.InMenus
		if ev.InMenus {
			s.Map = ""
			s.Class = ""
			s.ServerAddr = ""
			s.Kills = 0
			s.serverInfo = nil
		}
	}
	if ev.ClassSet {
		s.Class = ev.Class
	}
	if ev.QueueSet {
		s.Queue = ev.Queue
	}
	if ev.ServerAddrSet {
		s.ServerAddr = ev.ServerAddr
	}
	s.Kills += ev.Kills
}

// resolveGamemode derives the gamemode for mapName. Official maps come
// straight from the static table; anything excluded or unknown is a custom
// map and goes through the three-tier resolver.
func (s *State) resolveGamemode(mapName string) {
	if !s.db.IsExcluded(mapName) {
		if pair, ok := s.db.Official[mapName]; ok {
			s.CustomMap = false
			s.Gamemode = pair
			return
		}
	}

	s.CustomMap = true
	pair, err := s.resolver.Resolve(mapName, false)
	if err != nil {
		slog.Debug("custom map resolution degraded", "map", mapName, "error", err)
	}
	s.Gamemode = pair
}

// ///////////////////////////////////////////////
// View Construction
// ///////////////////////////////////////////////

// View renders the current presence content. Server data is fetched only
// when a configured display line needs it, and only while in game on a
// known server.
func (s *State) View(ctx context.Context) View {
	if s.InMenus {
		return View{
			Details:    "In menus",
			State:      s.queueLine(),
			LargeImage: "main_menu",
			LargeText:  "Main menu",
			TimerStart: s.timerStart(),
		}
	}

	s.refreshServerInfo(ctx)

	v := View{
		Details:    s.mapLine(),
		State:      s.stateLine(),
		LargeImage: gamemodeAsset(s.Gamemode.ID),
		LargeText:  s.Gamemode.Name,
		TimerStart: s.timerStart(),
	}
	if s.Class != "" {
		v.SmallImage = "class_" + strings.ToLower(s.Class)
		v.SmallText = s.Class
	}
	return v
}

// UpdateRPC reports whether v differs from the last published view.
func (s *State) UpdateRPC(v View) bool {
	return !s.everShown || v != s.published
}

// MarkPublished records v as the live presence.
func (s *State) MarkPublished(v View) {
	s.published = v
	s.everShown = true
}

// ForgetPublished clears the publish memory so the next view republishes
// unconditionally. Called after the presence connection is torn down.
func (s *State) ForgetPublished() {
	s.everShown = false
}

// Activity converts a view into the Discord payload.
func (s *State) Activity(v View) *discord.Activity {
	a := &discord.Activity{
		Details: v.Details,
		State:   v.State,
		Assets: &discord.Assets{
			LargeImage: v.LargeImage,
			LargeText:  v.LargeText,
			SmallImage: v.SmallImage,
			SmallText:  v.SmallText,
		},
	}
	if v.TimerStart != 0 {
		a.Timestamps = &discord.Timestamps{Start: v.TimerStart}
	}
	return a
}

// refreshServerInfo queries the connected server when a display line wants
// live data. Failures (including rate-limit skips) keep the previous info;
// presence degrades to slightly stale numbers rather than churning.
func (s *State) refreshServerInfo(ctx context.Context) {
	if !s.cfg.Display.WantsServerData() || s.ServerAddr == "" {
		return
	}
	info, err := s.querier.Query(ctx, s.ServerAddr)
	if err != nil {
		slog.Debug("server query skipped", "addr", s.ServerAddr, "error", err)
		return
	}
	s.serverInfo = info
}

// mapLine renders the details line, honoring the map privacy patterns.
func (s *State) mapLine() string {
	if s.cfg.Privacy.MapHidden(s.Map) {
		return "Map: " + s.cfg.Privacy.HiddenMapText
	}
	return "Map: " + s.Map
}

// queueLine renders the matchmaking standing shown in menus.
func (s *State) queueLine() string {
	if s.Queue == console.QueueNone || s.Queue == "" {
		return console.QueueNone
	}
	if s.cfg.Display.HideQueuedGamemode {
		return console.QueueGeneric
	}
	return s.Queue
}

// stateLine renders the configured in-game lines, joined when both are
// non-blank.
func (s *State) stateLine() string {
	top := s.renderToken(s.cfg.Display.TopLine)
	bottom := s.renderToken(s.cfg.Display.BottomLine)
	switch {
	case top != "" && bottom != "":
		return top + " | " + bottom
	case top != "":
		return top
	default:
		return bottom
	}
}

// renderToken renders one display-line token.
func (s *State) renderToken(token string) string {
	switch token {
	case "player_count":
		if s.serverInfo == nil {
			return "Players: ?"
		}
		return fmt.Sprintf("Players: %d/%d", s.serverInfo.HumanPlayers(), s.serverInfo.MaxPlayers)
	case "kills":
		return fmt.Sprintf("Kills: %d", s.Kills)
	case "time_on_map":
		if s.mapStart.IsZero() {
			return ""
		}
		// Whole minutes so the text only changes once a minute.
		return fmt.Sprintf("Time on map: %dm", int(s.now().Sub(s.mapStart).Minutes()))
	case "class":
		if s.Class == "" {
			return "Class: unselected"
		}
		return "Class: " + s.Class
	}
	return ""
}

// timerStart returns the elapsed-timer anchor per the timestamps setting.
func (s *State) timerStart() int64 {
	switch s.cfg.Display.Timestamps {
	case "elapsed":
		if s.gameStart.IsZero() {
			return 0
		}
		return s.gameStart.Unix()
	case "map":
		if s.mapStart.IsZero() {
			return 0
		}
		return s.mapStart.Unix()
	}
	return 0
}

// gamemodeAsset maps a gamemode tag to its Discord asset key.
func gamemodeAsset(id string) string {
	if id == "" || id == gamemode.SentinelID {
		return "gamemode_unknown"
	}
	return "gamemode_" + strings.ReplaceAll(id, "-", "_")
}
