// gen-assets generates the Discord Rich Presence assets for fortpresence:
// class icons, gamemode icons, and the menu icon, each a centered capital
// letter on a colored background.
//
// Reads the asset list and styling from data/assets.json and writes PNGs to
// assets/discord/presence/, named with their group prefix so the file names
// match the asset keys the daemon sends (class_scout.png, gamemode_payload.png).
//
// Font resolution:
//  1. Local file path from assets.json "font" field
//  2. Google Fonts download from "font_fallback" field (e.g. "google:Inter:800")
//  3. The bundled Go Regular face when neither is available
//
// Usage:
//
//	cd tools/generate-assets && go run .
//	cd tools/generate-assets && go run . -assets ../../data/assets.json -out ../../assets/discord/presence
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tdewolff/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func main() {
	// Default paths assume running from tools/generate-assets/
	assetsFile := flag.String("assets", "../../data/assets.json", "Path to assets.json")
	outDir := flag.String("out", "../../assets/discord/presence", "Output directory for rendered PNGs")
	flag.Parse()

	// Resolve repo root relative to the tool directory (for font paths in assets.json)
	repoRoot, err := filepath.Abs(filepath.Join(filepath.Dir(*assetsFile), ".."))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: resolve repo root: %v\n", err)
		os.Exit(1)
	}

	fontCacheDir := filepath.Join(repoRoot, "assets", "fonts", ".cache")

	assetData, err := LoadAssetData(*assetsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: load assets: %v\n", err)
		os.Exit(1)
	}

	if len(assetData.Groups) == 0 {
		fmt.Fprintln(os.Stderr, "error: no groups defined in assets.json")
		os.Exit(1)
	}

	fontBytes := resolveFont(assetData, repoRoot, fontCacheDir)
	otFont, err := opentype.Parse(fontBytes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: parse font: %v\n", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "error: create output dir: %v\n", err)
		os.Exit(1)
	}

	totalAssets := 0

	// Sorted group iteration for stable output ordering
	groupIDs := make([]string, 0, len(assetData.Groups))
	for id := range assetData.Groups {
		groupIDs = append(groupIDs, id)
	}
	sort.Strings(groupIDs)

	for _, groupID := range groupIDs {
		group := assetData.Groups[groupID]
		fmt.Printf("[%s]\n", groupID)

		names := make([]string, 0, len(group.Assets))
		for name := range group.Assets {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			style := assetData.ResolvedStyle(groupID, name)
			pngData, err := RenderAsset(style, name, otFont)
			if err != nil {
				fmt.Fprintf(os.Stderr, "  error: render %s: %v\n", name, err)
				os.Exit(1)
			}

			outPath := filepath.Join(*outDir, group.Prefix+name+".png")
			if err := os.WriteFile(outPath, pngData, 0o644); err != nil {
				fmt.Fprintf(os.Stderr, "  error: write %s: %v\n", outPath, err)
				os.Exit(1)
			}
			fmt.Printf("  %s%s.png (%s)\n", group.Prefix, name, strings.ToUpper(name[:1]))
			totalAssets++
		}
	}

	fmt.Printf("Done. Generated %d assets for %d groups.\n", totalAssets, len(assetData.Groups))
}

// resolveFont loads a font using this fallback chain:
//  1. Local file from assetData.Font (path relative to repoRoot)
//  2. Google Fonts from assetData.FontFallback (e.g. "google:Inter:800")
//  3. The bundled Go Regular face
func resolveFont(assetData *AssetData, repoRoot, fontCacheDir string) []byte {
	if assetData.Font != "" {
		localPath := filepath.Join(repoRoot, assetData.Font)
		if data, err := os.ReadFile(localPath); err == nil {
			if converted, convErr := maybeConvertWOFF2(localPath, data); convErr == nil {
				fmt.Printf("font: %s (local)\n", assetData.Font)
				return converted
			}
		}
	}

	if assetData.FontFallback != "" {
		if _, _, ok := ParseGoogleFontSpec(assetData.FontFallback); ok {
			data, err := FetchGoogleFont(assetData.FontFallback, fontCacheDir)
			if err == nil {
				fmt.Printf("font: %s (Google Fonts)\n", assetData.FontFallback)
				return data
			}
			fmt.Fprintf(os.Stderr, "warning: google fonts fallback failed: %v\n", err)
		}
	}

	fmt.Println("font: Go Regular (bundled)")
	return goregular.TTF
}

// maybeConvertWOFF2 converts WOFF2 font data to SFNT format if needed.
func maybeConvertWOFF2(path string, data []byte) ([]byte, error) {
	if isWOFF2(path, data) {
		sfnt, err := font.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert woff2 to sfnt: %w", err)
		}
		return sfnt, nil
	}
	return data, nil
}

// isWOFF2 checks whether a font file is WOFF2 by extension or magic bytes.
// WOFF2 magic: 0x774F4632 ("wOF2")
func isWOFF2(path string, data []byte) bool {
	if strings.HasSuffix(strings.ToLower(path), ".woff2") {
		return true
	}
	if len(data) >= 4 && data[0] == 'w' && data[1] == 'O' && data[2] == 'F' && data[3] == '2' {
		return true
	}
	return false
}
