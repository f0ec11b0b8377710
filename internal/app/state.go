// Package app owns the screen-flow state machine: a single UIState value,
// advanced only by explicit orchestrator commands, rendered by whatever
// front end binds to it.
package app

import (
	"time"

	"github.com/dawapahchan/dawapahchan/internal/analysis"
)

// Screen identifies the single visible screen.
type Screen string

const (
	ScreenProfile Screen = "profile"
	ScreenHome    Screen = "home"
	ScreenLoading Screen = "loading"
	ScreenResults Screen = "results"
)

// Toast is a transient user-visible notice. Error is a sub-state of the
// home screen reached through a toast, not a screen of its own.
type Toast struct {
	Message string

	// Duration after which the toast auto-dismisses.
	Duration time.Duration

	// FocusField names the form field to refocus, for validation toasts.
	FocusField string
}

// Toast durations.
const (
	DefaultToastDuration = 3 * time.Second
	FailureToastDuration = 4 * time.Second
)

// Notifier receives toasts. The front end decides how to display them.
type Notifier interface {
	Show(t Toast)
}

// NopNotifier discards all toasts.
type NopNotifier struct{}

// Show implements Notifier.
func (NopNotifier) Show(Toast) {}

// Connectivity reports the platform's online/offline signal. It decides
// which failure message the user sees, never whether a request is sent.
type Connectivity interface {
	Online() bool
}

// AlwaysOnline is the Connectivity used when no platform signal exists.
type AlwaysOnline struct{}

// Online implements Connectivity.
func (AlwaysOnline) Online() bool { return true }

// UIState is the complete in-memory UI state. Exactly one screen is
// visible; transitions happen only through orchestrator commands.
type UIState struct {
	Screen Screen

	// PreviewRef is the local reference of the image being analyzed,
	// shown on the loading screen.
	PreviewRef string

	// Result is the last rendered analysis result, nil before any scan.
	Result *analysis.Result

	// Expanded tracks open details disclosures on the results screen.
	// Rendering a new result always resets it so results open fully
	// collapsed.
	Expanded map[string]bool
}

// clone returns a snapshot safe to hand to callers.
func (s UIState) clone() UIState {
	cp := s
	cp.Expanded = make(map[string]bool, len(s.Expanded))
	for k, v := range s.Expanded {
		cp.Expanded[k] = v
	}
	return cp
}
