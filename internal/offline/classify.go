package offline

import (
	"net/http"
	"strings"
)

// Class is the routing bucket a request falls into. Every request belongs
// to exactly one class, evaluated API first, then fonts, then static.
type Class int

const (
	// ClassAPI: analysis endpoint traffic. Network only, never cached.
	ClassAPI Class = iota

	// ClassFont: allow-listed third-party font hosts. Cache-first, cached
	// indefinitely once fetched.
	ClassFont

	// ClassStatic: everything else, same-origin assets and navigations.
	// Cache-first with network fallback and opportunistic population.
	ClassStatic
)

// String returns the class name for logging.
func (c Class) String() string {
	switch c {
	case ClassAPI:
		return "api"
	case ClassFont:
		return "font"
	default:
		return "static"
	}
}

// Classifier assigns requests to classes.
type Classifier struct {
	// APIPrefix is the path namespace of the analysis endpoint.
	APIPrefix string

	// FontHosts is the hostname allow-list for the font bucket.
	FontHosts []string
}

// DefaultClassifier returns the classifier for the production asset layout.
func DefaultClassifier() Classifier {
	return Classifier{
		APIPrefix: "/api/",
		FontHosts: []string{"fonts.googleapis.com", "fonts.gstatic.com"},
	}
}

// Classify returns the request's class.
func (c Classifier) Classify(r *http.Request) Class {
	if strings.HasPrefix(r.URL.Path, c.APIPrefix) {
		return ClassAPI
	}

	host := r.URL.Hostname()
	if host == "" {
		host = hostOnly(r.Host)
	}
	for _, allowed := range c.FontHosts {
		if host == allowed {
			return ClassFont
		}
	}

	return ClassStatic
}

func hostOnly(hostport string) string {
	if i := strings.LastIndex(hostport, ":"); i >= 0 && !strings.Contains(hostport[i:], "]") {
		return hostport[:i]
	}
	return hostport
}
