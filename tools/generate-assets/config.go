// config.go defines asset configuration types and JSON loading for the
// gen-assets tool. [AssetData] is the top-level structure deserialized from
// data/assets.json; [AssetStyle] holds per-asset visual styling fields.

package main

import (
	"encoding/json"
	"os"
)

// AssetStyle holds the visual styling for a single Discord presence asset.
type AssetStyle struct {
	// BgColor is the background hex color (e.g. "#CF7336").
	BgColor string `json:"bg_color,omitempty"`
	// FgColor is the foreground (letter) hex color (e.g. "#FFFFFF").
	FgColor string `json:"fg_color,omitempty"`
	// Size is the square image dimension in pixels.
	Size int `json:"size,omitempty"`
	// FontSize is the font size in points at 72 DPI.
	FontSize int `json:"font_size,omitempty"`
}

// GroupConfig holds one family of assets (classes, gamemodes) sharing a
// Discord asset key prefix.
type GroupConfig struct {
	// Prefix is prepended to each asset name to form the Discord asset key
	// (e.g. "class_" yields class_scout.png).
	Prefix string `json:"prefix,omitempty"`
	// Defaults provides group-level styling inherited by all assets in the group.
	Defaults AssetStyle `json:"defaults"`
	// Assets maps asset names (e.g. "scout") to their styling overrides.
	Assets map[string]AssetStyle `json:"assets"`
}

// AssetData holds the asset configuration read from data/assets.json.
type AssetData struct {
	// Font is the local font file path relative to the repo root.
	Font string `json:"font,omitempty"`
	// FontFallback is a Google Fonts spec (e.g. "google:Inter:800") used when
	// the local font file is not found.
	FontFallback string `json:"font_fallback,omitempty"`
	// Defaults provides base styling inherited by all groups and assets.
	Defaults AssetStyle `json:"defaults"`
	// Groups maps group IDs to their asset configuration.
	Groups map[string]GroupConfig `json:"groups"`
}

// ResolvedStyle returns the effective style for a group's asset, with all
// inheritance applied: global defaults -> group defaults -> asset overrides.
func (d *AssetData) ResolvedStyle(group, name string) AssetStyle {
	style := d.Defaults
	gc, ok := d.Groups[group]
	if !ok {
		return style
	}
	mergeStyle(&style, gc.Defaults)
	if as, ok := gc.Assets[name]; ok {
		mergeStyle(&style, as)
	}
	return style
}

// mergeStyle applies non-zero fields from src onto dst.
func mergeStyle(dst *AssetStyle, src AssetStyle) {
	if src.BgColor != "" {
		dst.BgColor = src.BgColor
	}
	if src.FgColor != "" {
		dst.FgColor = src.FgColor
	}
	if src.Size != 0 {
		dst.Size = src.Size
	}
	if src.FontSize != 0 {
		dst.FontSize = src.FontSize
	}
}

// LoadAssetData reads and parses an assets.json file.
func LoadAssetData(path string) (*AssetData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ad AssetData
	if err := json.Unmarshal(data, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}
