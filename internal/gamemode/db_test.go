package gamemode

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseDBEmbedded(t *testing.T) {
	db, err := parseDB(mapsJSON)
	if err != nil {
		t.Fatalf("parseDB(embedded) error = %v", err)
	}
	if len(db.Official) == 0 {
		t.Error("embedded database has no official maps")
	}
	if len(db.CommonCustom) == 0 {
		t.Error("embedded database has no common custom maps")
	}

	// Every gamemode referenced by the tables must have a display name.
	check := func(table string, m map[string]Pair) {
		for name, p := range m {
			if p.ID == "" || p.Name == "" {
				t.Errorf("%s[%q] has blank gamemode %v", table, name, p)
			}
		}
	}
	check("official", db.Official)
	check("common_custom", db.CommonCustom)

	spotChecks := map[string]string{
		"pl_badwater":        "payload",
		"koth_harvest_final": "koth",
		"ctf_2fort":          "ctf",
	}
	for mapName, wantID := range spotChecks {
		if got := db.Official[mapName]; got.ID != wantID {
			t.Errorf("official[%q] = %v, want id %q", mapName, got, wantID)
		}
	}
}

func TestParseDBRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not json", []byte("not json at all")},
		{"missing common_custom", []byte(`{"official":{}}`)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseDB(tc.data); err == nil {
				t.Error("parseDB accepted invalid input")
			}
		})
	}
}

func TestIsExcluded(t *testing.T) {
	db, err := parseDB(mapsJSON)
	if err != nil {
		t.Fatalf("parseDB error = %v", err)
	}
	if !db.IsExcluded("itemtest") {
		t.Error("itemtest should be excluded")
	}
	if !db.IsExcluded("background01") {
		t.Error("background01 should be excluded")
	}
	if db.IsExcluded("pl_badwater") {
		t.Error("pl_badwater must not be excluded")
	}
}

func TestRefreshStoresValidDatabase(t *testing.T) {
	body := `{"official":{"koth_test":["koth","King of the Hill"]},"common_custom":{},"excluded":[]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	refreshFrom(srv.URL, dir)

	stored, err := os.ReadFile(filepath.Join(dir, "maps.json"))
	if err != nil {
		t.Fatalf("refreshed maps.json not stored: %v", err)
	}
	if string(stored) != body {
		t.Errorf("stored body = %q, want %q", stored, body)
	}
}

func TestRefreshRejectsInvalidDatabase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"official":{}}`)) // missing common_custom
	}))
	defer srv.Close()

	dir := t.TempDir()
	refreshFrom(srv.URL, dir)

	if _, err := os.Stat(filepath.Join(dir, "maps.json")); err == nil {
		t.Error("invalid refreshed database was stored")
	}
}
