package worker_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawapahchan/dawapahchan/internal/offline"
	"github.com/dawapahchan/dawapahchan/internal/worker"
)

// newOrigin serves a minimal app shell, optionally failing one path.
func newOrigin(t *testing.T, failPath string) *url.URL {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failPath != "" && r.URL.Path == failPath {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("asset:" + r.URL.Path))
	}))
	t.Cleanup(srv.Close)

	origin, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return origin
}

func newJob(t *testing.T, store offline.Store, failPath string) *worker.ReleaseJob {
	t.Helper()
	return worker.NewReleaseJob(worker.ReleaseJobConfig{
		Logger: zerolog.Nop(),
		Store:  store,
		Origin: newOrigin(t, failPath),
	})
}

func TestReleaseJob_InstallsAndActivates(t *testing.T) {
	ctx := context.Background()
	store := offline.NewMemoryStore()
	job := newJob(t, store, "")

	result, err := job.Run(ctx, "dawa-v2", []string{"/", "/static/app.js"})
	require.NoError(t, err)

	assert.Equal(t, "dawa-v2", result.Version)
	assert.Equal(t, 2, result.Precached)
	assert.Empty(t, result.Superseded)

	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dawa-v2", current)

	entry, err := store.Get(ctx, "dawa-v2", "/static/app.js")
	require.NoError(t, err)
	assert.Equal(t, []byte("asset:/static/app.js"), entry.Body)
}

func TestReleaseJob_DeletesSupersededGenerations(t *testing.T) {
	ctx := context.Background()
	store := offline.NewMemoryStore()
	job := newJob(t, store, "")

	_, err := job.Run(ctx, "dawa-v1", []string{"/"})
	require.NoError(t, err)

	result, err := job.Run(ctx, "dawa-v2", []string{"/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dawa-v1"}, result.Superseded)

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dawa-v2"}, names)

	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dawa-v2", current)
}

func TestReleaseJob_FailedInstallLeavesCurrentGeneration(t *testing.T) {
	ctx := context.Background()
	store := offline.NewMemoryStore()

	_, err := newJob(t, store, "").Run(ctx, "dawa-v1", []string{"/"})
	require.NoError(t, err)

	// The new release can't fetch one of its assets.
	failing := newJob(t, store, "/static/app.js")
	_, err = failing.Run(ctx, "dawa-v2", []string{"/", "/static/app.js"})
	require.Error(t, err)

	// The failed generation was rolled back and v1 is still current.
	current, err := store.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dawa-v1", current)

	names, err := store.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dawa-v1"}, names)
}

func TestReleaseJob_MetricsTrackOutcomes(t *testing.T) {
	ctx := context.Background()
	store := offline.NewMemoryStore()

	job := newJob(t, store, "")
	_, err := job.Run(ctx, "dawa-v1", []string{"/"})
	require.NoError(t, err)

	metrics := job.Metrics()
	assert.Equal(t, int64(1), metrics.TotalReleases)
	assert.Equal(t, int64(1), metrics.SuccessfulReleases)
	assert.Equal(t, int64(0), metrics.FailedReleases)
	assert.Equal(t, "dawa-v1", metrics.LastReleaseVersion)
}

func TestReleaseJob_VerifyChecksAppShell(t *testing.T) {
	store := offline.NewMemoryStore()

	healthy := newJob(t, store, "")
	assert.NoError(t, healthy.Verify(context.Background()))

	broken := newJob(t, store, "/")
	assert.Error(t, broken.Verify(context.Background()))
}
