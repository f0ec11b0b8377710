package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dawapahchan/dawapahchan/internal/analysis"
)

func TestSeverityFromStatus(t *testing.T) {
	tests := []struct {
		status string
		want   analysis.Severity
	}{
		{"authentic", analysis.SeveritySafe},
		{"safe", analysis.SeveritySafe},
		{"suspicious", analysis.SeverityWarning},
		{"warning", analysis.SeverityWarning},
		{"counterfeit", analysis.SeverityDanger},
		{"danger", analysis.SeverityDanger},
		// Anything the backend invents later must never render as safe.
		{"", analysis.SeverityWarning},
		{"verified", analysis.SeverityWarning},
		{"SAFE", analysis.SeverityWarning},
	}

	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, analysis.SeverityFromStatus(tt.status))
		})
	}
}

func TestSectionSeverity_NilSection(t *testing.T) {
	var s *analysis.Section
	assert.Equal(t, analysis.SeverityWarning, s.Severity())
}

func TestResultSeverities_AbsentSections(t *testing.T) {
	r := &analysis.Result{MedicineName: "Panadol"}

	assert.Equal(t, analysis.SeverityWarning, r.AuthenticitySeverity())
	assert.Equal(t, analysis.SeverityWarning, r.SafetySeverity())
}

func TestResultIsError(t *testing.T) {
	tests := []struct {
		name   string
		result analysis.Result
		want   bool
	}{
		{"not medicine flag", analysis.Result{NotMedicine: true}, true},
		{"urdu error message", analysis.Result{ErrorMessageUrdu: "تصویر واضح نہیں"}, true},
		{"full report", analysis.Result{MedicineName: "Panadol"}, false},
		{"empty result", analysis.Result{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.result.IsError())
		})
	}
}
