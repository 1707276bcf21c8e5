package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/HerbHall/qualitywatch/pkg/models"
)

const problemBase = "https://qualitywatch.dev/problems/"

// Problem is the RFC 7807 document every server-level error is written as.
type Problem = models.APIProblem

// problemSlugs names the problem type for statuses the server emits itself.
// Anything else falls back to a slug of the status text.
var problemSlugs = map[int]string{
	http.StatusBadRequest:          "bad-request",
	http.StatusUnauthorized:        "auth-error",
	http.StatusNotFound:            "not-found",
	http.StatusTooManyRequests:     "rate-limited",
	http.StatusInternalServerError: "internal-error",
	http.StatusServiceUnavailable:  "unavailable",
}

// ProblemType returns the problem type URI for status.
func ProblemType(status int) string {
	slug, ok := problemSlugs[status]
	if !ok {
		slug = strings.ReplaceAll(strings.ToLower(http.StatusText(status)), " ", "-")
	}
	return problemBase + slug
}

// NewProblem builds the problem document for status.
func NewProblem(status int, detail, instance string) Problem {
	return Problem{
		Type:     ProblemType(status),
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
}

// WriteProblem writes an RFC 7807 Problem Details JSON response.
func WriteProblem(w http.ResponseWriter, p Problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// InternalError writes a 500 problem response.
func InternalError(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusInternalServerError, detail, instance))
}

// RateLimited writes a 429 problem response.
func RateLimited(w http.ResponseWriter, detail, instance string) {
	WriteProblem(w, NewProblem(http.StatusTooManyRequests, detail, instance))
}

// handleAPINotFound answers API paths no module claimed, so API clients
// always get a problem document instead of the mux's plain-text 404.
func handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblem(http.StatusNotFound, "no such endpoint: "+r.Method+" "+r.URL.Path, r.URL.Path))
}
