// Package gamemode resolves TF2 map names to gamemodes.
//
// Official maps resolve through the bundled static database. Custom maps go
// through three tiers, short-circuiting on the first hit:
//
//  1. the static database's common_custom table (well-known community maps)
//  2. the local DB.json cache, valid for a configurable TTL
//  3. the teamwork.tf map-stats API, with the result written back to cache
//
// Resolution never fails outright: any unresolvable map yields the sentinel
// pair ("unknown_map", "Unknown gamemode") plus an error classifying why.
package gamemode

import (
	"encoding/json"
	"fmt"
)

// Sentinel values returned whenever a gamemode cannot be determined.
const (
	SentinelID   = "unknown_map"
	SentinelName = "Unknown gamemode"
)

// ///////////////////////////////////////////////
// Pair
// ///////////////////////////////////////////////

// Pair is a resolved gamemode: machine tag plus display label. On disk and
// in the static database it is encoded as the two-element array
// [gamemode_id, display_name].
type Pair struct {
	// ID is the machine gamemode tag (e.g. "payload", "koth").
	ID string
	// Name is the user-facing label (e.g. "Payload", "King of the Hill").
	Name string
}

// Sentinel returns the fallback pair for unresolvable maps.
func Sentinel() Pair {
	return Pair{ID: SentinelID, Name: SentinelName}
}

// MarshalJSON encodes the pair as a two-element array.
func (p Pair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.ID, p.Name})
}

// UnmarshalJSON decodes the two-element array form.
func (p *Pair) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("gamemode pair: want 2 elements, got %d", len(raw))
	}
	p.ID = raw[0]
	p.Name = raw[1]
	return nil
}

// ///////////////////////////////////////////////
// Translation Table
// ///////////////////////////////////////////////

// translations maps teamwork.tf gamemode tags to display labels. Only tags
// present here are recognized when parsing API responses; anything else is
// treated as unknown.
var translations = map[string]string{
	"ctf":                 "Capture the Flag",
	"control-point":       "Control Point",
	"attack-defend":       "Attack/Defend",
	"medieval-mode":       "Attack/Defend (Medieval Mode)",
	"territorial-control": "Territorial Control",
	"payload":             "Payload",
	"payload-race":        "Payload Race",
	"koth":                "King of the Hill",
	"special-delivery":    "Special Delivery",
	"mvm":                 "Mann vs. Machine",
	"beta-map":            "Robot Destruction",
	"mannpower":           "Mannpower",
	"passtime":            "PASS Time",
	"player-destruction":  "Player Destruction",
	"arena":               "Arena",
	"training":            "Training",
	"surfing":             "Surfing",
	"trading":             "Trading",
	"jumping":             "Jumping",
	"deathmatch":          "Deathmatch",
	"cp-orange":           "Orange",
	"versus-saxton-hale":  "Versus Saxton Hale",
	"deathrun":            "Deathrun",
	"achievement":         "Achievement",
	"breakout":            "Jail Breakout",
	"slender":             "Slender",
	"dodgeball":           "Dodgeball",
	"mario-kart":          "Mario Kart",
	"prophunt":            "Prop Hunt",
	"class-wars":          "Class Wars",
	"stop-that-tank":      "Stop that Tank!",
}

// Translate returns the display label for a gamemode tag and whether the
// tag is recognized.
func Translate(tag string) (string, bool) {
	name, ok := translations[tag]
	return name, ok
}
