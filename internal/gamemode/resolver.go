package gamemode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fortwatch/fortpresence/internal/store"
)

// ///////////////////////////////////////////////
// Errors
// ///////////////////////////////////////////////

// ErrInvalidInput is returned for a blank map name. The sentinel pair is
// still returned alongside it.
var ErrInvalidInput = errors.New("blank map name")

// ErrTransientLookup is returned when the remote lookup timed out. The
// sentinel result is NOT cached so the next tick retries.
var ErrTransientLookup = errors.New("gamemode lookup timed out")

// ErrTerminalLookup is returned for every other remote failure (transport,
// bad status, malformed body, no recognized tag). The sentinel result IS
// cached so an unresolvable map does not hit the network again until the
// cache entry expires.
var ErrTerminalLookup = errors.New("gamemode lookup failed")

// ///////////////////////////////////////////////
// Collaborator Contracts
// ///////////////////////////////////////////////

// DocumentStore is the persistence collaborator for the custom map cache.
// Satisfied by [store.Store]; tests substitute counting fakes.
type DocumentStore interface {
	Read() (*store.Document, error)
	Write(*store.Document) error
}

// DefaultBaseURL is the production lookup service.
const DefaultBaseURL = "https://teamwork.tf"

// ///////////////////////////////////////////////
// Resolver
// ///////////////////////////////////////////////

// Resolver resolves custom map names to gamemodes using the static
// database, the persisted cache, and the remote lookup service, in that
// order.
type Resolver struct {
	// Store persists the custom map cache inside the DB.json document.
	Store DocumentStore
	// BaseURL is the lookup service root; defaults to [DefaultBaseURL].
	BaseURL string
	// APIKey is the lookup service credential appended to each request.
	APIKey string
	// TTL is how long a cached resolution stays valid. An entry aged
	// exactly TTL is still valid; strictly older is expired.
	TTL time.Duration
	// Timeout bounds each remote request.
	Timeout time.Duration
	// DB overrides the process-wide static database; nil means [Load].
	DB *DB
	// Now overrides the clock for tests; nil means [time.Now].
	Now func() time.Time

	client *retryablehttp.Client
}

// apiResponse is the subset of the map-stats response the resolver reads.
type apiResponse struct {
	AllGamemodes []string `json:"all_gamemodes"`
}

// now returns the current time from the injected clock.
func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// db returns the static database in use.
func (r *Resolver) db() *DB {
	if r.DB != nil {
		return r.DB
	}
	return Load("")
}

// httpClient returns the lookup HTTP client. RetryMax is zero: each
// resolution issues exactly one request, and retry policy lives in the
// cache (transient failures simply retry next tick).
func (r *Resolver) httpClient() *retryablehttp.Client {
	if r.client == nil {
		r.client = retryablehttp.NewClient()
		r.client.RetryMax = 0
		r.client.Logger = nil
	}
	return r.client
}

// Resolve returns the gamemode for mapName. The returned pair is always
// usable; a non-nil error classifies degraded results (see [ErrInvalidInput],
// [ErrTransientLookup], [ErrTerminalLookup]).
//
// forceRemote skips the cache tier, forcing a fresh remote lookup. The
// static table is never skipped: a map present there is never looked up
// remotely.
func (r *Resolver) Resolve(mapName string, forceRemote bool) (Pair, error) {
	if mapName == "" {
		slog.Error("map filename is blank")
		return Sentinel(), ErrInvalidInput
	}

	if p, ok := r.db().CommonCustom[mapName]; ok {
		slog.Debug("custom map found in static database", "map", mapName, "gamemode", p.ID)
		return p, nil
	}

	if !forceRemote {
		if p, ok := r.cacheLookup(mapName); ok {
			slog.Debug("custom map found in cache", "map", mapName, "gamemode", p.ID)
			return p, nil
		}
	}

	return r.resolveRemote(mapName)
}

// cacheLookup returns the cached pair for mapName when a fresh-enough entry
// exists. Expiry is strict: now - resolved_at must exceed the TTL for the
// entry to be stale, so an entry aged exactly TTL still hits.
func (r *Resolver) cacheLookup(mapName string) (Pair, bool) {
	doc, err := r.Store.Read()
	if err != nil {
		slog.Warn("custom map cache unreadable", "error", err)
		return Pair{}, false
	}
	entry, ok := doc.CustomMaps[mapName]
	if !ok {
		return Pair{}, false
	}
	age := r.now().Unix() - entry.ResolvedAt
	if age > int64(r.TTL.Seconds()) {
		slog.Debug("custom map cache entry expired", "map", mapName, "age_seconds", age)
		return Pair{}, false
	}
	return Pair{ID: entry.GamemodeID, Name: entry.DisplayName}, true
}

// cacheWrite reads the whole persisted document, overwrites one map's
// entry, and writes the document back. Failures are logged only: a broken
// cache degrades to extra lookups, not missing presence.
func (r *Resolver) cacheWrite(mapName string, p Pair) {
	doc, err := r.Store.Read()
	if err != nil {
		slog.Warn("custom map cache unreadable for write-back", "error", err)
		doc = store.NewDocument()
	}
	doc.CustomMaps[mapName] = store.CacheEntry{
		GamemodeID:  p.ID,
		DisplayName: p.Name,
		ResolvedAt:  r.now().Unix(),
	}
	if err := r.Store.Write(doc); err != nil {
		slog.Warn("custom map cache write failed", "error", err)
	}
}

// resolveRemote queries the lookup service for mapName. The first response
// tag with a translation wins; this intentionally mirrors the historical
// first-match behavior rather than picking a "best" tag.
func (r *Resolver) resolveRemote(mapName string) (Pair, error) {
	base := r.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	reqURL := fmt.Sprintf("%s/api/v1/map-stats/map/%s?key=%s", base, url.PathEscape(mapName), url.QueryEscape(r.APIKey))

	ctx, cancel := context.WithTimeout(context.Background(), r.Timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Sentinel(), fmt.Errorf("%w: build request: %v", ErrTerminalLookup, err)
	}

	started := time.Now()
	resp, err := r.httpClient().Do(req)
	if err != nil {
		if isTimeout(err) {
			// Do not cache: the service may just be slow right now.
			slog.Debug("gamemode lookup timed out, not caching", "map", mapName)
			return Sentinel(), ErrTransientLookup
		}
		slog.Error("gamemode lookup transport failure", "map", mapName, "error", err)
		r.cacheWrite(mapName, Sentinel())
		return Sentinel(), fmt.Errorf("%w: %v", ErrTerminalLookup, err)
	}
	defer resp.Body.Close()
	slog.Debug("gamemode lookup completed", "map", mapName, "elapsed", time.Since(started).Round(10*time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("gamemode lookup bad status", "map", mapName, "status", resp.StatusCode)
		r.cacheWrite(mapName, Sentinel())
		return Sentinel(), fmt.Errorf("%w: status %d", ErrTerminalLookup, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		if isTimeout(err) {
			return Sentinel(), ErrTransientLookup
		}
		r.cacheWrite(mapName, Sentinel())
		return Sentinel(), fmt.Errorf("%w: read body: %v", ErrTerminalLookup, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Error("gamemode lookup malformed body", "map", mapName, "error", err)
		r.cacheWrite(mapName, Sentinel())
		return Sentinel(), fmt.Errorf("%w: parse body: %v", ErrTerminalLookup, err)
	}

	for _, tag := range parsed.AllGamemodes {
		if name, ok := Translate(tag); ok {
			p := Pair{ID: tag, Name: name}
			r.cacheWrite(mapName, p)
			slog.Debug("gamemode resolved remotely", "map", mapName, "gamemode", tag)
			return p, nil
		}
	}

	// No recognized tag: cache the sentinel so this map is not retried
	// every tick until the entry expires.
	slog.Debug("no recognized gamemode tag", "map", mapName, "tags", parsed.AllGamemodes)
	r.cacheWrite(mapName, Sentinel())
	return Sentinel(), fmt.Errorf("%w: no recognized tag", ErrTerminalLookup)
}

// isTimeout reports whether err represents a connect/read timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
