package analysis_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dawapahchan/dawapahchan/internal/analysis"
)

func newClient(baseURL string) *analysis.Client {
	return analysis.NewClient(analysis.ClientConfig{
		BaseURL:    baseURL,
		HTTPClient: http.DefaultClient,
		Logger:     zerolog.Nop(),
	})
}

func TestAnalyze_EncodesEveryProfileField(t *testing.T) {
	var gotPath string
	var gotFields map[string]string
	var gotImage string
	var gotImageName string

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, r.ParseMultipartForm(1<<20))

		gotFields = map[string]string{}
		for _, field := range []string{"age", "gender", "weight", "pregnant", "allergies"} {
			gotFields[field] = r.FormValue(field)
		}

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		gotImageName = header.Filename
		raw, err := io.ReadAll(file)
		require.NoError(t, err)
		gotImage = string(raw)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"medicine_name":"Panadol","authenticity":{"status":"authentic"}}`))
	}))
	defer backend.Close()

	result, err := newClient(backend.URL).Analyze(context.Background(), analysis.Submission{
		Image:     strings.NewReader("jpeg bytes"),
		ImageName: "package.jpg",
		ImageType: "image/jpeg",
		Age:       34,
		Gender:    "female",
		Weight:    61.5,
		Pregnant:  true,
		Allergies: "penicillin",
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/analyze", gotPath)
	assert.Equal(t, "package.jpg", gotImageName)
	assert.Equal(t, "jpeg bytes", gotImage)
	assert.Equal(t, map[string]string{
		"age":       "34",
		"gender":    "female",
		"weight":    "61.5",
		"pregnant":  "true",
		"allergies": "penicillin",
	}, gotFields)

	assert.Equal(t, "Panadol", result.MedicineName)
	assert.Equal(t, analysis.SeveritySafe, result.AuthenticitySeverity())
}

func TestAnalyze_ZeroSubmissionUsesDefaults(t *testing.T) {
	var gotFields map[string]string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{
			"age":      r.FormValue("age"),
			"weight":   r.FormValue("weight"),
			"pregnant": r.FormValue("pregnant"),
		}
		w.Write([]byte(`{}`))
	}))
	defer backend.Close()

	_, err := newClient(backend.URL).Analyze(context.Background(), analysis.Submission{
		Image:     strings.NewReader("x"),
		ImageType: "image/png",
	})
	require.NoError(t, err)

	assert.Equal(t, "0", gotFields["age"])
	assert.Equal(t, "0", gotFields["weight"])
	assert.Equal(t, "false", gotFields["pregnant"])
}

func TestAnalyze_Non2xxIsBackendUnavailable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer backend.Close()

	_, err := newClient(backend.URL).Analyze(context.Background(), analysis.Submission{
		Image:     strings.NewReader("x"),
		ImageType: "image/jpeg",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrBackendUnavailable)
}

func TestAnalyze_TransportFailureIsBackendUnavailable(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	backend.Close()

	_, err := newClient(backend.URL).Analyze(context.Background(), analysis.Submission{
		Image:     strings.NewReader("x"),
		ImageType: "image/jpeg",
	})

	assert.ErrorIs(t, err, analysis.ErrBackendUnavailable)
}

func TestAnalyze_UndecodableBodyIsMalformed(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer backend.Close()

	_, err := newClient(backend.URL).Analyze(context.Background(), analysis.Submission{
		Image:     strings.NewReader("x"),
		ImageType: "image/jpeg",
	})

	assert.ErrorIs(t, err, analysis.ErrMalformedResponse)
}

func TestAnalyze_ErrorShapedAnswerDecodes(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not_medicine":true,"error_message_urdu":"یہ دوا کی تصویر نہیں لگتی"}`))
	}))
	defer backend.Close()

	result, err := newClient(backend.URL).Analyze(context.Background(), analysis.Submission{
		Image:     strings.NewReader("x"),
		ImageType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.True(t, result.IsError())
	assert.True(t, result.NotMedicine)
	assert.NotEmpty(t, result.ErrorMessageUrdu)
}
