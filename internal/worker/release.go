// Package worker provides background job processing for DawaPahchan.
package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dawapahchan/dawapahchan/internal/offline"
)

// ReleaseConfig holds configuration for the cache release job.
type ReleaseConfig struct {
	// Assets is the default pre-cache manifest, used when the release
	// message doesn't carry one. Defaults to offline.DefaultAssetManifest.
	Assets []string

	// Timeout bounds one release end to end (install plus activate).
	// Default: 2 minutes
	Timeout time.Duration
}

// DefaultReleaseConfig returns the default release configuration.
func DefaultReleaseConfig() ReleaseConfig {
	return ReleaseConfig{
		Assets:  offline.DefaultAssetManifest(),
		Timeout: 2 * time.Minute,
	}
}

// ReleaseJob installs and activates cache generations on the shared store.
// Gateways resolve the promoted generation per request, so a completed
// release takes effect without restarting them.
type ReleaseJob struct {
	config  ReleaseConfig
	logger  zerolog.Logger
	store   offline.Store
	origin  *url.URL
	fetcher offline.Fetcher

	// Metrics
	metrics *ReleaseMetrics
}

// ReleaseMetrics tracks release job statistics.
type ReleaseMetrics struct {
	mu sync.RWMutex

	TotalReleases      int64
	SuccessfulReleases int64
	FailedReleases     int64
	AssetsPrecached    int64

	LastReleaseAt       time.Time
	LastReleaseVersion  string
	LastReleaseDuration time.Duration
}

// ReleaseJobConfig holds configuration for creating a ReleaseJob.
type ReleaseJobConfig struct {
	Config  ReleaseConfig
	Logger  zerolog.Logger
	Store   offline.Store
	Origin  *url.URL
	Fetcher offline.Fetcher
}

// NewReleaseJob creates a new release job processor.
func NewReleaseJob(cfg ReleaseJobConfig) *ReleaseJob {
	config := cfg.Config
	if len(config.Assets) == 0 {
		config.Assets = offline.DefaultAssetManifest()
	}
	if config.Timeout <= 0 {
		config.Timeout = 2 * time.Minute
	}

	fetcher := cfg.Fetcher
	if fetcher == nil {
		fetcher = http.DefaultClient
	}

	return &ReleaseJob{
		config:  config,
		logger:  cfg.Logger,
		store:   cfg.Store,
		origin:  cfg.Origin,
		fetcher: fetcher,
		metrics: &ReleaseMetrics{},
	}
}

// ReleaseResult contains the result of one release.
type ReleaseResult struct {
	Version    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Precached  int
	Superseded []string
}

// Run installs the named generation and activates it, deleting every
// superseded generation. The whole release is atomic from the gateways'
// point of view: until Activate promotes the new generation, requests keep
// resolving against the previous one.
func (j *ReleaseJob) Run(ctx context.Context, version string, assets []string) (*ReleaseResult, error) {
	startTime := time.Now()

	if len(assets) == 0 {
		assets = j.config.Assets
	}

	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	j.logger.Info().
		Str("version", version).
		Int("assets", len(assets)).
		Msg("starting cache release")

	router := offline.NewRouter(offline.RouterConfig{
		Version: version,
		Store:   j.store,
		Origin:  j.origin,
		Fetcher: j.fetcher,
		Assets:  assets,
		Logger:  j.logger,
	})

	if err := router.Install(ctx); err != nil {
		j.recordRelease(version, time.Since(startTime), false, 0)
		return nil, fmt.Errorf("installing generation %s: %w", version, err)
	}

	// Snapshot before activation; everything but the new version is about
	// to be deleted.
	var superseded []string
	if names, err := j.store.Names(ctx); err == nil {
		for _, name := range names {
			if name != version {
				superseded = append(superseded, name)
			}
		}
	}

	if err := router.Activate(ctx); err != nil {
		j.recordRelease(version, time.Since(startTime), false, len(assets))
		return nil, fmt.Errorf("activating generation %s: %w", version, err)
	}

	duration := time.Since(startTime)
	j.recordRelease(version, duration, true, len(assets))

	result := &ReleaseResult{
		Version:    version,
		StartTime:  startTime,
		EndTime:    startTime.Add(duration),
		Duration:   duration,
		Precached:  len(assets),
		Superseded: superseded,
	}

	j.logger.Info().
		Str("version", version).
		Dur("duration", duration).
		Int("precached", result.Precached).
		Strs("superseded", superseded).
		Msg("cache release completed")

	return result, nil
}

// Verify checks that the origin still serves the app shell. Used by the
// health_check job to catch a dead origin before the next release fails
// halfway through its manifest.
func (j *ReleaseJob) Verify(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shellURL := *j.origin
	shellURL.Path = offline.ShellPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shellURL.String(), nil)
	if err != nil {
		return err
	}

	resp, err := j.fetcher.Do(req)
	if err != nil {
		return fmt.Errorf("fetching app shell: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("app shell returned status %d", resp.StatusCode)
	}
	return nil
}

// Metrics returns a copy of the current release metrics.
func (j *ReleaseJob) Metrics() ReleaseMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return ReleaseMetrics{
		TotalReleases:       j.metrics.TotalReleases,
		SuccessfulReleases:  j.metrics.SuccessfulReleases,
		FailedReleases:      j.metrics.FailedReleases,
		AssetsPrecached:     j.metrics.AssetsPrecached,
		LastReleaseAt:       j.metrics.LastReleaseAt,
		LastReleaseVersion:  j.metrics.LastReleaseVersion,
		LastReleaseDuration: j.metrics.LastReleaseDuration,
	}
}

func (j *ReleaseJob) recordRelease(version string, duration time.Duration, ok bool, precached int) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalReleases++
	if ok {
		j.metrics.SuccessfulReleases++
		j.metrics.AssetsPrecached += int64(precached)
	} else {
		j.metrics.FailedReleases++
	}
	j.metrics.LastReleaseAt = time.Now()
	j.metrics.LastReleaseVersion = version
	j.metrics.LastReleaseDuration = duration
}
