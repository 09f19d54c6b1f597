package gamemode

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fortwatch/fortpresence/internal/store"
)

// countingStore is an in-memory DocumentStore that counts calls.
type countingStore struct {
	doc    *store.Document
	reads  int
	writes int
}

func newCountingStore() *countingStore {
	return &countingStore{doc: store.NewDocument()}
}

func (s *countingStore) Read() (*store.Document, error) {
	s.reads++
	// Hand out a copy so the resolver's read-modify-write is observable.
	out := store.NewDocument()
	out.Version = s.doc.Version
	for k, v := range s.doc.CustomMaps {
		out.CustomMaps[k] = v
	}
	return out, nil
}

func (s *countingStore) Write(doc *store.Document) error {
	s.writes++
	s.doc = doc
	return nil
}

// testDB builds a small static database without touching the embedded one.
func testDB() *DB {
	return &DB{
		Official: map[string]Pair{
			"koth_harvest_final": {ID: "koth", Name: "King of the Hill"},
		},
		CommonCustom: map[string]Pair{
			"surf_utopia_v3": {ID: "surfing", Name: "Surfing"},
		},
	}
}

// newTestResolver wires a resolver against srv with a fixed clock.
func newTestResolver(srv *httptest.Server, st DocumentStore, now time.Time) *Resolver {
	return &Resolver{
		Store:   st,
		BaseURL: srv.URL,
		APIKey:  "test-key",
		TTL:     24 * time.Hour,
		Timeout: 2 * time.Second,
		DB:      testDB(),
		Now:     func() time.Time { return now },
	}
}

func gamemodeServer(t *testing.T, hits *atomic.Int64, byMap map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if got := r.URL.Query().Get("key"); got != "test-key" {
			t.Errorf("request key = %q, want test-key", got)
		}
		body, ok := byMap[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"error":"no such map"}`)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveBlankName(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, nil)
	st := newCountingStore()
	r := newTestResolver(srv, st, time.Now())

	got, err := r.Resolve("", false)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Resolve(\"\") error = %v, want ErrInvalidInput", err)
	}
	if got != Sentinel() {
		t.Errorf("Resolve(\"\") = %v, want sentinel", got)
	}
	if hits.Load() != 0 {
		t.Errorf("blank name made %d network requests, want 0", hits.Load())
	}
	if st.reads != 0 || st.writes != 0 {
		t.Errorf("blank name touched the store (reads=%d writes=%d)", st.reads, st.writes)
	}
}

func TestResolveStaticShortCircuit(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, nil)
	st := newCountingStore()
	r := newTestResolver(srv, st, time.Now())

	got, err := r.Resolve("surf_utopia_v3", false)
	if err != nil {
		t.Fatalf("Resolve(surf_utopia_v3) error = %v", err)
	}
	want := Pair{ID: "surfing", Name: "Surfing"}
	if got != want {
		t.Errorf("Resolve(surf_utopia_v3) = %v, want %v", got, want)
	}
	if hits.Load() != 0 {
		t.Errorf("static hit made %d network requests, want 0", hits.Load())
	}
	if st.reads != 0 || st.writes != 0 {
		t.Errorf("static hit touched the store (reads=%d writes=%d)", st.reads, st.writes)
	}

	// forceRemote skips the cache but never the static table.
	if _, err := r.Resolve("surf_utopia_v3", true); err != nil {
		t.Fatalf("forced Resolve(surf_utopia_v3) error = %v", err)
	}
	if hits.Load() != 0 {
		t.Errorf("forced static hit made %d network requests, want 0", hits.Load())
	}
}

func TestResolveRemoteFirstTagWins(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, map[string]string{
		"/api/v1/map-stats/map/cp_catwalk_a5c": `{"map":"cp_catwalk_a5c","all_gamemodes":["control-point","attack-defend"]}`,
	})
	st := newCountingStore()
	now := time.Unix(1_700_000_000, 0)
	r := newTestResolver(srv, st, now)

	got, err := r.Resolve("cp_catwalk_a5c", false)
	if err != nil {
		t.Fatalf("Resolve(cp_catwalk_a5c) error = %v", err)
	}
	want := Pair{ID: "control-point", Name: "Control Point"}
	if got != want {
		t.Errorf("Resolve(cp_catwalk_a5c) = %v, want %v", got, want)
	}
	if hits.Load() != 1 {
		t.Fatalf("made %d network requests, want 1", hits.Load())
	}

	entry, ok := st.doc.CustomMaps["cp_catwalk_a5c"]
	if !ok {
		t.Fatal("resolution was not cached")
	}
	if entry.GamemodeID != "control-point" || entry.ResolvedAt != now.Unix() {
		t.Errorf("cached entry = %+v, want control-point at %d", entry, now.Unix())
	}

	// Second resolution is served from the cache.
	if _, err := r.Resolve("cp_catwalk_a5c", false); err != nil {
		t.Fatalf("cached Resolve error = %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("cached hit made a network request (total %d)", hits.Load())
	}
}

func TestResolveRemoteUnrecognizedTagsSkipped(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, map[string]string{
		"/api/v1/map-stats/map/koth_wubwubwub_remix_vip": `{"all_gamemodes":["vip-mode","koth","arena"]}`,
	})
	st := newCountingStore()
	r := newTestResolver(srv, st, time.Now())

	got, err := r.Resolve("koth_wubwubwub_remix_vip", false)
	if err != nil {
		t.Fatalf("Resolve error = %v", err)
	}
	want := Pair{ID: "koth", Name: "King of the Hill"}
	if got != want {
		t.Errorf("Resolve(koth_wubwubwub_remix_vip) = %v, want %v", got, want)
	}
}

func TestResolveRemoteNoMatchCachesSentinel(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, map[string]string{
		"/api/v1/map-stats/map/ytsb8eitybw": `{"all_gamemodes":["completely-made-up"]}`,
	})
	st := newCountingStore()
	r := newTestResolver(srv, st, time.Now())

	got, err := r.Resolve("ytsb8eitybw", false)
	if !errors.Is(err, ErrTerminalLookup) {
		t.Fatalf("Resolve error = %v, want ErrTerminalLookup", err)
	}
	if got != Sentinel() {
		t.Errorf("Resolve = %v, want sentinel", got)
	}
	if hits.Load() != 1 {
		t.Fatalf("made %d network requests, want 1", hits.Load())
	}

	// The sentinel was cached: a second call makes zero network requests.
	got, err = r.Resolve("ytsb8eitybw", false)
	if err != nil {
		t.Fatalf("second Resolve error = %v", err)
	}
	if got != Sentinel() {
		t.Errorf("second Resolve = %v, want sentinel", got)
	}
	if hits.Load() != 1 {
		t.Errorf("cached sentinel made a network request (total %d)", hits.Load())
	}
}

func TestResolveBadStatusCachesSentinel(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, nil) // every path 404s
	st := newCountingStore()
	r := newTestResolver(srv, st, time.Now())

	_, err := r.Resolve("cp_nonexistent_b1", false)
	if !errors.Is(err, ErrTerminalLookup) {
		t.Fatalf("Resolve error = %v, want ErrTerminalLookup", err)
	}
	entry, ok := st.doc.CustomMaps["cp_nonexistent_b1"]
	if !ok {
		t.Fatal("sentinel was not cached after bad status")
	}
	if entry.GamemodeID != SentinelID {
		t.Errorf("cached gamemode = %q, want %q", entry.GamemodeID, SentinelID)
	}
}

func TestResolveTimeoutNotCached(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	t.Cleanup(func() { close(block); srv.Close() })

	st := newCountingStore()
	r := newTestResolver(srv, st, time.Now())
	r.Timeout = 50 * time.Millisecond

	got, err := r.Resolve("pl_slowpoke_rc2", false)
	if !errors.Is(err, ErrTransientLookup) {
		t.Fatalf("Resolve error = %v, want ErrTransientLookup", err)
	}
	if got != Sentinel() {
		t.Errorf("Resolve = %v, want sentinel", got)
	}
	if _, ok := st.doc.CustomMaps["pl_slowpoke_rc2"]; ok {
		t.Error("timeout result was cached; it must not be")
	}
}

func TestResolveCacheTTLBoundary(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, map[string]string{
		"/api/v1/map-stats/map/koth_product_final": `{"all_gamemodes":["koth"]}`,
	})

	resolvedAt := time.Unix(1_700_000_000, 0)
	ttl := 24 * time.Hour

	seed := func() *countingStore {
		st := newCountingStore()
		st.doc.CustomMaps["koth_product_final"] = store.CacheEntry{
			GamemodeID:  "koth",
			DisplayName: "King of the Hill",
			ResolvedAt:  resolvedAt.Unix(),
		}
		return st
	}

	tests := []struct {
		name     string
		now      time.Time
		wantHits int64
	}{
		{"fresh", resolvedAt.Add(time.Hour), 0},
		{"exactly at ttl", resolvedAt.Add(ttl), 0},
		{"one second past ttl", resolvedAt.Add(ttl + time.Second), 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			hits.Store(0)
			r := newTestResolver(srv, seed(), tc.now)
			r.TTL = ttl
			got, err := r.Resolve("koth_product_final", false)
			if err != nil {
				t.Fatalf("Resolve error = %v", err)
			}
			if got.ID != "koth" {
				t.Errorf("Resolve = %v, want koth", got)
			}
			if hits.Load() != tc.wantHits {
				t.Errorf("network requests = %d, want %d", hits.Load(), tc.wantHits)
			}
		})
	}
}

func TestResolveForceRemoteSkipsCache(t *testing.T) {
	var hits atomic.Int64
	srv := gamemodeServer(t, &hits, map[string]string{
		"/api/v1/map-stats/map/cp_glassworks_rc7a": `{"all_gamemodes":["control-point"]}`,
	})
	now := time.Unix(1_700_000_000, 0)
	st := newCountingStore()
	st.doc.CustomMaps["cp_glassworks_rc7a"] = store.CacheEntry{
		GamemodeID:  "koth", // stale wrong value the forced lookup must bypass
		DisplayName: "King of the Hill",
		ResolvedAt:  now.Unix(),
	}
	r := newTestResolver(srv, st, now)

	got, err := r.Resolve("cp_glassworks_rc7a", true)
	if err != nil {
		t.Fatalf("forced Resolve error = %v", err)
	}
	if got.ID != "control-point" {
		t.Errorf("forced Resolve = %v, want control-point", got)
	}
	if hits.Load() != 1 {
		t.Errorf("network requests = %d, want 1", hits.Load())
	}
	if entry := st.doc.CustomMaps["cp_glassworks_rc7a"]; entry.GamemodeID != "control-point" {
		t.Errorf("cache entry after forced lookup = %+v, want control-point", entry)
	}
}
