package config

// ///////////////////////////////////////////////
// Documentation Types
// ///////////////////////////////////////////////

// FieldDoc holds documentation and alternative examples for a single config field.
// The genconfig tool uses [FieldDoc] values to annotate the generated config.default.toml.
type FieldDoc struct {
	// Comment is shown as a header comment above the field in the example config.
	Comment string

	// Alternatives are shown as commented-out lines below the active value.
	Alternatives []string
}

// ///////////////////////////////////////////////
// Field Documentation Map
// ///////////////////////////////////////////////

// ConfigDocs maps TOML field paths (dot-separated, e.g. "display.top_line")
// to their [FieldDoc] entries. The genconfig tool uses this map to annotate
// the generated config.default.toml with inline comments and alternative
// examples.
var ConfigDocs = map[string]FieldDoc{
	// ── Root ──────────────────────────────────────────────────────
	"version": {
		Comment: "Config schema version — do not edit.",
	},

	// ── Discord ──────────────────────────────────────────────────
	"discord.app_id": {
		Comment: "Application ID for Discord Rich Presence.\nOverride with your own Discord app if you want custom images.",
	},

	// ── Display ──────────────────────────────────────────────────
	"display.top_line": {
		Comment: "What the two in-game presence lines show.\nAvailable tokens: player_count, kills, time_on_map, class, blank",
		Alternatives: []string{
			`top_line = "kills"`,
			`top_line = "class"`,
		},
	},
	"display.bottom_line": {},
	"display.hide_queued_gamemode": {
		Comment: "Show \"Queued\" instead of the matchmaking mode while queued.",
	},
	"display.timestamps": {
		Comment: "Elapsed timer anchor: \"elapsed\" counts from game launch,\n\"map\" from the last map change, \"none\" hides the timer.",
	},

	// ── Privacy ──────────────────────────────────────────────────
	"privacy.hide_map_patterns": {
		Comment: "Glob patterns for map names that must never appear on the card.\nDoublestar syntax, e.g. \"trade_*\" or \"*secret*\".",
		Alternatives: []string{
			`hide_map_patterns = ["trade_*", "achievement_*"]`,
		},
	},
	"privacy.hidden_map_text": {
		Comment: "Shown in place of a hidden map's name.",
	},

	// ── Behavior ─────────────────────────────────────────────────
	"behavior.wait_time_seconds": {
		Comment: "Seconds between ticks while the game, Discord, and Steam all run.",
	},
	"behavior.wait_time_slow_seconds": {
		Comment: "Seconds between ticks while waiting for a required process.",
	},
	"behavior.request_timeout_seconds": {
		Comment: "Timeout for each remote gamemode lookup.",
	},
	"behavior.map_invalidation_hours": {
		Comment: "How long a resolved custom map gamemode stays cached.",
	},
	"behavior.server_query_seconds": {
		Comment: "Minimum spacing between live game server queries.",
	},
	"behavior.check_updates": {
		Comment: "Check for a newer release at startup (log only, never auto-update).",
	},

	// ── Network ──────────────────────────────────────────────────
	"network.teamwork_api_key": {
		Comment: "teamwork.tf API key for custom map gamemode lookups.\nGet one at https://teamwork.tf/settings — lookups fail without it.",
	},

	// ── Log ──────────────────────────────────────────────────────
	"log.level": {
		Comment: "Minimum log level: trace, debug, info, warn, error, fail.",
	},
	"log.max_size_mb": {
		Comment: "Log file size before rotation.",
	},
}
