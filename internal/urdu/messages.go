// Package urdu holds every user-facing Urdu string in one catalog so the
// rest of the codebase deals in message keys only.
package urdu

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Key identifies a catalog message.
type Key string

// Catalog keys.
const (
	AgeRequired      Key = "profile.age_required"
	GenderRequired   Key = "profile.gender_required"
	ProfileSaved     Key = "profile.saved"
	NotAnImage       Key = "scan.not_an_image"
	ImageTooLarge    Key = "scan.image_too_large"
	OfflineRetry     Key = "scan.offline_retry"
	AnalysisFailed   Key = "scan.analysis_failed"
	OfflineAPIBody   Key = "offline.api_body"
	NotIdentified    Key = "result.not_identified"
	UnknownMedicine  Key = "result.unknown_medicine"
	NoInformation    Key = "result.no_information"
	ConsultDoctor    Key = "result.consult_doctor"
	BackOnline       Key = "net.back_online"
	ConnectionLost   Key = "net.connection_lost"
	DetailsCollapsed Key = "result.details_collapsed"
	DetailsExpanded  Key = "result.details_expanded"
)

var strings = map[Key]string{
	AgeRequired:      "براہ کرم اپنی عمر بتائیں",
	GenderRequired:   "براہ کرم جنس منتخب کریں",
	ProfileSaved:     "✅ معلومات محفوظ ہو گئیں",
	NotAnImage:       "براہ کرم صرف تصویر منتخب کریں",
	ImageTooLarge:    "تصویر بہت بڑی ہے۔ چھوٹی تصویر لیں۔",
	OfflineRetry:     "انٹرنیٹ کنکشن نہیں ہے۔ بعد میں کوشش کریں۔",
	AnalysisFailed:   "تجزیہ میں مسئلہ ہوا۔ دوبارہ کوشش کریں۔",
	OfflineAPIBody:   "انٹرنیٹ کنکشن نہیں ہے۔ انٹرنیٹ آنے کے بعد دوبارہ کوشش کریں۔",
	NotIdentified:    "تصویر سے دوا کی شناخت نہیں ہو سکی",
	UnknownMedicine:  "نامعلوم دوا",
	NoInformation:    "معلومات دستیاب نہیں ہیں۔",
	ConsultDoctor:    "ڈاکٹر سے مشورہ کریں۔",
	BackOnline:       "✅ انٹرنیٹ واپس آ گیا",
	ConnectionLost:   "⚠️ انٹرنیٹ کنکشن نہیں ہے",
	DetailsCollapsed: "تفصیلات ▼",
	DetailsExpanded:  "تفصیلات ▲",
}

var printer *message.Printer

func init() {
	for key, value := range strings {
		_ = message.SetString(language.Urdu, string(key), value)
	}
	printer = message.NewPrinter(language.Urdu)
}

// T resolves a catalog key to its Urdu string.
func T(key Key) string {
	return printer.Sprintf(string(key))
}
