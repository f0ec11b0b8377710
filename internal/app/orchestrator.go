package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dawapahchan/dawapahchan/internal/analysis"
	"github.com/dawapahchan/dawapahchan/internal/profile"
	"github.com/dawapahchan/dawapahchan/internal/urdu"
)

// MaxImageBytes is the upload size limit. A file of exactly this size is
// accepted; one byte more is rejected before any network activity.
const MaxImageBytes = 20 << 20

// Image is a user-selected file to analyze.
type Image struct {
	Name      string
	MediaType string
	Size      int64
	Reader    io.Reader
}

// Analyzer submits a scan to the analysis backend.
type Analyzer interface {
	Analyze(ctx context.Context, sub analysis.Submission) (*analysis.Result, error)
}

// Config holds dependencies for the orchestrator.
type Config struct {
	Store        profile.Store
	Analyzer     Analyzer
	Connectivity Connectivity
	Notifier     Notifier
	Logger       zerolog.Logger
}

// Orchestrator advances the UIState in response to explicit commands. It
// is long-lived: there is no terminal screen.
type Orchestrator struct {
	store        profile.Store
	analyzer     Analyzer
	connectivity Connectivity
	notifier     Notifier
	logger       zerolog.Logger

	mu       sync.Mutex
	state    UIState
	inFlight bool
}

// New creates an orchestrator. The initial screen is Home when a complete
// profile is already stored, otherwise Profile.
func New(ctx context.Context, cfg Config) *Orchestrator {
	connectivity := cfg.Connectivity
	if connectivity == nil {
		connectivity = AlwaysOnline{}
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}

	o := &Orchestrator{
		store:        cfg.Store,
		analyzer:     cfg.Analyzer,
		connectivity: connectivity,
		notifier:     notifier,
		logger:       cfg.Logger,
		state: UIState{
			Screen:   ScreenProfile,
			Expanded: make(map[string]bool),
		},
	}

	if p, err := o.store.Load(ctx); err == nil && p.Complete() {
		o.state.Screen = ScreenHome
	}
	return o
}

// State returns a snapshot of the current UI state.
func (o *Orchestrator) State() UIState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// SaveProfile validates and persists the profile wholesale. On validation
// failure the offending field is refocused via the toast and the screen
// does not change; on success a confirmation toast shows and the flow
// moves to the home screen.
func (o *Orchestrator) SaveProfile(ctx context.Context, in profile.Input) UIState {
	p, err := in.Normalize()
	if err != nil {
		o.notifier.Show(Toast{
			Message:    validationMessage(err),
			Duration:   DefaultToastDuration,
			FocusField: profile.Field(err),
		})
		return o.State()
	}

	if err := o.store.Save(ctx, p); err != nil {
		o.logger.Error().Err(err).Msg("profile save failed")
		return o.State()
	}

	o.notifier.Show(Toast{Message: urdu.T(urdu.ProfileSaved), Duration: DefaultToastDuration})

	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Screen = ScreenHome
	return o.state.clone()
}

// SubmitImage runs one scan: validate locally, show the loading screen,
// submit the image with every profile field, then land on results or back
// home with a toast. The call blocks until the flow settles; the single
// loading screen prevents concurrent submissions.
func (o *Orchestrator) SubmitImage(ctx context.Context, img Image) UIState {
	if !strings.HasPrefix(img.MediaType, "image/") {
		o.notifier.Show(Toast{Message: urdu.T(urdu.NotAnImage), Duration: DefaultToastDuration})
		return o.State()
	}
	if img.Size > MaxImageBytes {
		o.notifier.Show(Toast{Message: urdu.T(urdu.ImageTooLarge), Duration: DefaultToastDuration})
		return o.State()
	}

	o.mu.Lock()
	if o.inFlight {
		// A pending scan is not cancellable; refuse rather than abort.
		o.mu.Unlock()
		return o.State()
	}
	o.inFlight = true
	o.state.Screen = ScreenLoading
	o.state.PreviewRef = uuid.New().String()
	o.mu.Unlock()

	result, err := o.analyzer.Analyze(ctx, o.buildSubmission(ctx, img))

	o.mu.Lock()
	defer o.mu.Unlock()
	o.inFlight = false

	if err != nil {
		o.logger.Warn().Err(err).Msg("analysis failed")
		o.notifier.Show(o.failureToast())
		o.state.Screen = ScreenHome
		return o.state.clone()
	}

	// New results always open fully collapsed, whatever was expanded
	// on a previous view.
	o.state.Expanded = make(map[string]bool)
	o.state.Result = result
	o.state.Screen = ScreenResults
	return o.state.clone()
}

// Rescan is the scan-again action from the results screen.
func (o *Orchestrator) Rescan(ctx context.Context, img Image) UIState {
	return o.SubmitImage(ctx, img)
}

// ShowProfileEditor opens the profile entry screen.
func (o *Orchestrator) ShowProfileEditor() UIState {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Screen = ScreenProfile
	return o.state.clone()
}

// GoHome is the explicit back action from the results screen.
func (o *Orchestrator) GoHome() UIState {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Screen = ScreenHome
	return o.state.clone()
}

// ToggleDetails flips one details disclosure on the results screen.
func (o *Orchestrator) ToggleDetails(section string) UIState {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state.Expanded[section] = !o.state.Expanded[section]
	return o.state.clone()
}

// ConnectivityChanged surfaces online/offline transitions as toasts.
func (o *Orchestrator) ConnectivityChanged(online bool) {
	if online {
		o.notifier.Show(Toast{Message: urdu.T(urdu.BackOnline), Duration: DefaultToastDuration})
		return
	}
	o.notifier.Show(Toast{Message: urdu.T(urdu.ConnectionLost), Duration: FailureToastDuration})
}

// buildSubmission attaches every profile field to the scan. A missing
// profile degrades to the backend's documented defaults.
func (o *Orchestrator) buildSubmission(ctx context.Context, img Image) analysis.Submission {
	sub := analysis.Submission{
		Image:     img.Reader,
		ImageName: img.Name,
		ImageType: img.MediaType,
	}

	p, err := o.store.Load(ctx)
	if err != nil {
		return sub
	}

	sub.Age = p.Age
	sub.Gender = p.Gender
	sub.Weight = p.Weight
	sub.Pregnant = p.Pregnant
	sub.Allergies = p.Allergies
	return sub
}

// failureToast distinguishes connectivity loss from a generic analysis
// failure; the two must read differently.
func (o *Orchestrator) failureToast() Toast {
	if !o.connectivity.Online() {
		return Toast{Message: urdu.T(urdu.OfflineRetry), Duration: FailureToastDuration}
	}
	return Toast{Message: urdu.T(urdu.AnalysisFailed), Duration: FailureToastDuration}
}

// validationMessage maps a profile validation error to its Urdu message.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, profile.ErrAgeRequired):
		return urdu.T(urdu.AgeRequired)
	case errors.Is(err, profile.ErrGenderRequired):
		return urdu.T(urdu.GenderRequired)
	default:
		return err.Error()
	}
}
