package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dawapahchan/dawapahchan/internal/analysis"
	"github.com/dawapahchan/dawapahchan/internal/urdu"
)

// Router lifecycle states.
type State int

const (
	// StateInstalling: created, pre-cache not yet complete.
	StateInstalling State = iota

	// StateWaiting: pre-cache complete, not yet activated.
	StateWaiting

	// StateActivating: cleanup of superseded generations in progress.
	StateActivating

	// StateActive: this version controls request routing.
	StateActive

	// StateRedundant: superseded by a newer version.
	StateRedundant
)

// String returns the state name for logging.
func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActivating:
		return "activating"
	case StateActive:
		return "active"
	default:
		return "redundant"
	}
}

// Router errors.
var (
	ErrNotInstalled  = errors.New("router not installed")
	ErrAlreadyActive = errors.New("router already activated")
	ErrRedundant     = errors.New("router superseded")
	ErrInstallFailed = errors.New("install failed")
)

// ShellPath is the key of the cached root document used as the navigation
// fallback.
const ShellPath = "/"

// DefaultAssetManifest returns the static asset set pre-cached at install.
func DefaultAssetManifest() []string {
	return []string{
		"/",
		"/static/style.css",
		"/static/app.js",
		"/static/icon.svg",
		"/static/icon-maskable.svg",
		"/manifest.json",
	}
}

// Fetcher performs an outbound HTTP request. Satisfied by
// *upstream.Client; tests inject fakes.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// RouterConfig holds configuration for the cache router.
type RouterConfig struct {
	// Version names this router's cache generation, e.g. "dawa-pahchan-v2".
	Version string

	// Store holds the cache generations (required).
	Store Store

	// Origin is the app origin base URL serving the static shell (required).
	Origin *url.URL

	// Backend is the analysis backend base URL. Defaults to Origin.
	Backend *url.URL

	// Fetcher executes outbound requests (required).
	Fetcher Fetcher

	// Classifier assigns requests to strategy buckets. Defaults to
	// DefaultClassifier.
	Classifier *Classifier

	// Assets is the pre-cache manifest. Defaults to DefaultAssetManifest.
	Assets []string

	// Logger for router operations.
	Logger zerolog.Logger
}

// Router intercepts every request and applies the strategy for its class.
// Install must complete before Activate; Activate cleans up superseded
// generations before promoting (claiming) this one.
type Router struct {
	version    string
	store      Store
	origin     *url.URL
	backend    *url.URL
	fetcher    Fetcher
	classifier Classifier
	assets     []string
	logger     zerolog.Logger

	mu    sync.Mutex
	state State
}

// NewRouter creates a new cache router in the Installing state.
func NewRouter(cfg RouterConfig) *Router {
	classifier := DefaultClassifier()
	if cfg.Classifier != nil {
		classifier = *cfg.Classifier
	}
	assets := cfg.Assets
	if len(assets) == 0 {
		assets = DefaultAssetManifest()
	}
	backend := cfg.Backend
	if backend == nil {
		backend = cfg.Origin
	}

	return &Router{
		version:    cfg.Version,
		store:      cfg.Store,
		origin:     cfg.Origin,
		backend:    backend,
		fetcher:    cfg.Fetcher,
		classifier: classifier,
		assets:     assets,
		logger:     cfg.Logger,
		state:      StateInstalling,
	}
}

// State returns the current lifecycle state.
func (rt *Router) State() State {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.state
}

// Version returns the generation name this router installs and serves.
func (rt *Router) Version() string {
	return rt.version
}

// Install pre-caches the full asset manifest into this version's
// generation as one atomic batch: if any single asset fails, the partial
// generation is deleted and the install fails, leaving the previously
// promoted generation in control.
func (rt *Router) Install(ctx context.Context) error {
	rt.mu.Lock()
	if rt.state == StateRedundant {
		rt.mu.Unlock()
		return ErrRedundant
	}
	if rt.state != StateInstalling {
		rt.mu.Unlock()
		return ErrAlreadyActive
	}
	rt.mu.Unlock()

	rt.logger.Info().
		Str("version", rt.version).
		Int("assets", len(rt.assets)).
		Msg("pre-caching static assets")

	for _, path := range rt.assets {
		if err := rt.precacheAsset(ctx, path); err != nil {
			rt.logger.Error().Err(err).
				Str("version", rt.version).
				Str("asset", path).
				Msg("install failed, discarding generation")
			if delErr := rt.store.Delete(ctx, rt.version); delErr != nil {
				rt.logger.Warn().Err(delErr).Msg("could not discard partial generation")
			}
			return fmt.Errorf("%w: %s: %v", ErrInstallFailed, path, err)
		}
	}

	rt.mu.Lock()
	rt.state = StateWaiting
	rt.mu.Unlock()

	rt.logger.Info().Str("version", rt.version).Msg("install complete")
	return nil
}

// Activate deletes every generation whose name differs from this version,
// then promotes this one so all clients are claimed immediately.
func (rt *Router) Activate(ctx context.Context) error {
	rt.mu.Lock()
	switch rt.state {
	case StateRedundant:
		rt.mu.Unlock()
		return ErrRedundant
	case StateInstalling:
		rt.mu.Unlock()
		return ErrNotInstalled
	case StateActivating, StateActive:
		rt.mu.Unlock()
		return ErrAlreadyActive
	}
	rt.state = StateActivating
	rt.mu.Unlock()

	names, err := rt.store.Names(ctx)
	if err != nil {
		return fmt.Errorf("enumerating generations: %w", err)
	}
	for _, name := range names {
		if name == rt.version {
			continue
		}
		rt.logger.Info().Str("stale", name).Msg("removing superseded generation")
		if err := rt.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("deleting generation %s: %w", name, err)
		}
	}

	// Cleanup done; claim clients by promoting this generation.
	if err := rt.store.Promote(ctx, rt.version); err != nil {
		return fmt.Errorf("promoting generation: %w", err)
	}

	rt.mu.Lock()
	rt.state = StateActive
	rt.mu.Unlock()

	rt.logger.Info().Str("version", rt.version).Msg("generation activated")
	return nil
}

// Supersede marks this router redundant once a newer version has activated.
func (rt *Router) Supersede() {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.state = StateRedundant
}

// ServeHTTP applies the per-class strategy to the request.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch rt.classifier.Classify(r) {
	case ClassAPI:
		rt.serveAPI(w, r)
	case ClassFont:
		rt.serveFont(w, r)
	default:
		rt.serveStatic(w, r)
	}
}

// serveAPI: network only. Analysis correctness depends on the live backend
// and the current profile, so an API answer is never served from cache. On
// network failure, a substitute error-shaped body keeps the client's
// failure path well-formed even with zero connectivity.
func (rt *Router) serveAPI(w http.ResponseWriter, r *http.Request) {
	resp, err := rt.fetch(r, rt.backend)
	if err != nil {
		rt.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("backend unreachable, synthesizing offline answer")
		rt.writeOfflineAPIResponse(w)
		return
	}
	defer resp.Body.Close()
	writeResponse(w, resp)
}

// serveFont: cache-first for allow-listed font hosts. Entries are never
// revalidated; they stay until the generation is superseded.
func (rt *Router) serveFont(w http.ResponseWriter, r *http.Request) {
	name := rt.generation(r.Context())
	key := r.URL.String()

	if r.Method == http.MethodGet {
		if entry, err := rt.store.Get(r.Context(), name, key); err == nil {
			writeEntry(w, entry, true)
			return
		}
	}

	resp, err := rt.fetch(r, nil)
	if err != nil {
		writeOffline(w)
		return
	}
	defer resp.Body.Close()

	entry, err := entryFromResponse(resp)
	if err != nil {
		writeOffline(w)
		return
	}
	if entry.Status >= 200 && entry.Status <= 299 && r.Method == http.MethodGet {
		if err := rt.store.Put(r.Context(), name, key, entry); err != nil {
			rt.logger.Warn().Err(err).Str("key", key).Msg("could not cache font response")
		}
	}
	writeEntry(w, entry, false)
}

// serveStatic: cache-first with network fallback and opportunistic
// population; navigations degrade to the cached shell when fully offline.
func (rt *Router) serveStatic(w http.ResponseWriter, r *http.Request) {
	name := rt.generation(r.Context())
	key := r.URL.Path

	// The cache holds GET answers only; any other method goes straight
	// to the network.
	if r.Method == http.MethodGet {
		if entry, err := rt.store.Get(r.Context(), name, key); err == nil {
			writeEntry(w, entry, true)
			return
		}
	}

	resp, err := rt.fetch(r, rt.origin)
	if err == nil {
		defer resp.Body.Close()
		entry, entryErr := entryFromResponse(resp)
		if entryErr == nil {
			if entry.Status >= 200 && entry.Status <= 299 && r.Method == http.MethodGet {
				if putErr := rt.store.Put(r.Context(), name, key, entry); putErr != nil {
					rt.logger.Warn().Err(putErr).Str("key", key).Msg("could not cache static response")
				}
			}
			writeEntry(w, entry, false)
			return
		}
	}

	// Cache miss and network failure: keep the app shell usable for
	// navigations, fail cleanly otherwise.
	if isNavigation(r) {
		if shell, shellErr := rt.store.Get(r.Context(), name, ShellPath); shellErr == nil {
			writeEntry(w, shell, true)
			return
		}
	}
	writeOffline(w)
}

// generation resolves the promoted generation, falling back to this
// router's own version before any promotion has happened.
func (rt *Router) generation(ctx context.Context) string {
	name, err := rt.store.Current(ctx)
	if err != nil || name == "" {
		return rt.version
	}
	return name
}

// precacheAsset fetches one manifest path from the origin and stores it.
func (rt *Router) precacheAsset(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rt.origin.String()+path, http.NoBody)
	if err != nil {
		return err
	}

	resp, err := rt.fetcher.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	entry, err := entryFromResponse(resp)
	if err != nil {
		return err
	}
	return rt.store.Put(ctx, rt.version, path, entry)
}

// fetch forwards the request to the given base URL (or as-is for absolute
// third-party URLs when base is nil).
func (rt *Router) fetch(r *http.Request, base *url.URL) (*http.Response, error) {
	target := *r.URL
	if base != nil {
		target.Scheme = base.Scheme
		target.Host = base.Host
	}

	out, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
	if err != nil {
		return nil, err
	}
	out.Header = r.Header.Clone()
	out.Host = target.Host

	return rt.fetcher.Do(out)
}

// writeOfflineAPIResponse synthesizes the error-shaped analysis answer the
// orchestrator expects when there is no connectivity.
func (rt *Router) writeOfflineAPIResponse(w http.ResponseWriter) {
	body := analysis.Result{
		NotMedicine:      true,
		ErrorMessageUrdu: urdu.T(urdu.OfflineAPIBody),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(body)
}

// isNavigation reports whether the request is a page navigation.
func isNavigation(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	if r.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// entryFromResponse drains a response into a storable entry.
func entryFromResponse(resp *http.Response) (*Entry, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   body,
	}, nil
}

// writeEntry writes a cached or freshly fetched entry to the client.
func writeEntry(w http.ResponseWriter, e *Entry, hit bool) {
	for k, vs := range e.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	w.WriteHeader(e.Status)
	_, _ = w.Write(e.Body)
}

// writeResponse streams a live response through to the client.
func writeResponse(w http.ResponseWriter, resp *http.Response) {
	for k, vs := range resp.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}

// writeOffline writes the generic offline answer for non-navigation
// requests that cannot be satisfied from cache or network.
func writeOffline(w http.ResponseWriter) {
	http.Error(w, "offline", http.StatusServiceUnavailable)
}
