// Package analysis defines the medicine analysis result model and the
// client for the remote analysis backend.
package analysis

import "errors"

// Analysis errors.
var (
	ErrBackendUnavailable = errors.New("analysis backend unavailable")
	ErrMalformedResponse  = errors.New("malformed analysis response")
)

// Severity is the tri-level severity derived from a section status.
type Severity string

const (
	SeveritySafe    Severity = "safe"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// SeverityFromStatus maps a backend status string onto a Severity.
// Unknown or missing statuses fall back to SeverityWarning so that an
// unrecognized answer is never presented as safe.
func SeverityFromStatus(status string) Severity {
	switch status {
	case "authentic", "safe":
		return SeveritySafe
	case "suspicious", "warning":
		return SeverityWarning
	case "counterfeit", "danger":
		return SeverityDanger
	default:
		return SeverityWarning
	}
}

// Section is a status-bearing part of the report (authenticity or safety).
type Section struct {
	Status       string   `json:"status,omitempty"`
	LabelUrdu    string   `json:"label_urdu,omitempty"`
	ReasonsUrdu  []string `json:"reasons_urdu,omitempty"`
	WarningsUrdu []string `json:"warnings_urdu,omitempty"`
	Details      string   `json:"details,omitempty"`
}

// Severity returns the derived severity for the section. A nil section
// carries the same fail-safe default as an unknown status.
func (s *Section) Severity() Severity {
	if s == nil {
		return SeverityWarning
	}
	return SeverityFromStatus(s.Status)
}

// Dosage is the dosage guidance part of the report.
type Dosage struct {
	RecommendationUrdu string `json:"recommendation_urdu,omitempty"`
	Details            string `json:"details,omitempty"`
}

// Result is the backend's answer to a scan. Exactly one of the two shapes
// is active: the error shape (NotMedicine flag or an Urdu error message) or
// the full report.
type Result struct {
	NotMedicine      bool   `json:"not_medicine,omitempty"`
	ErrorMessageUrdu string `json:"error_message_urdu,omitempty"`

	MedicineName    string   `json:"medicine_name,omitempty"`
	ExtractedText   string   `json:"extracted_text,omitempty"`
	ExplanationUrdu string   `json:"explanation_urdu,omitempty"`
	Authenticity    *Section `json:"authenticity,omitempty"`
	Safety          *Section `json:"safety,omitempty"`
	Dosage          *Dosage  `json:"dosage,omitempty"`
}

// IsError reports whether the result carries the error shape and must be
// rendered as the error view rather than the report view.
func (r *Result) IsError() bool {
	return r.NotMedicine || r.ErrorMessageUrdu != ""
}

// AuthenticitySeverity returns the derived severity of the authenticity
// section, defaulting to warning when the section is absent.
func (r *Result) AuthenticitySeverity() Severity {
	return r.Authenticity.Severity()
}

// SafetySeverity returns the derived severity of the safety section,
// defaulting to warning when the section is absent.
func (r *Result) SafetySeverity() Severity {
	return r.Safety.Severity()
}
