package offline_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dawapahchan/dawapahchan/internal/offline"
)

func TestClassify(t *testing.T) {
	classifier := offline.DefaultClassifier()

	tests := []struct {
		name string
		url  string
		want offline.Class
	}{
		{"analysis endpoint", "http://app.local/api/analyze", offline.ClassAPI},
		{"profile endpoint", "http://app.local/api/profile", offline.ClassAPI},
		{"font stylesheet", "https://fonts.googleapis.com/css2?family=Noto+Nastaliq+Urdu", offline.ClassFont},
		{"font binary", "https://fonts.gstatic.com/s/notonastaliqurdu/v1/font.woff2", offline.ClassFont},
		{"font host with port", "https://fonts.gstatic.com:443/s/font.woff2", offline.ClassFont},
		{"app shell", "http://app.local/", offline.ClassStatic},
		{"stylesheet", "http://app.local/static/style.css", offline.ClassStatic},
		{"manifest", "http://app.local/manifest.json", offline.ClassStatic},
		{"unknown third party", "https://cdn.example.com/lib.js", offline.ClassStatic},
		{"api path on font host", "https://fonts.googleapis.com/api/x", offline.ClassAPI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, http.NoBody)
			assert.Equal(t, tt.want, classifier.Classify(req))
		})
	}
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "api", offline.ClassAPI.String())
	assert.Equal(t, "font", offline.ClassFont.String())
	assert.Equal(t, "static", offline.ClassStatic.String())
}
