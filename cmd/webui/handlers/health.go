package handlers

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/23skdu/miniviva/cmd/webui/templates"
	"github.com/23skdu/miniviva/internal/grading"
)

const Version = "0.1.0"

type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    string            `json:"uptime"`
	Checks    map[string]Status `json:"checks"`
}

type Status struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version"`
}

var (
	startTime = time.Now()

	// Commit is set at build time with -ldflags "-X ...handlers.Commit=<sha>".
	Commit = ""
)

func HealthHandler(e *grading.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sem := e.Semantic()
		status := HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    formatDuration(time.Since(startTime)),
			Checks: map[string]Status{
				"server":     {Status: "healthy"},
				"comparator": {Status: "healthy", Message: sem.Backend()},
				"cache":      {Status: "healthy", Message: strconv.Itoa(sem.CacheLen()) + " entries"},
			},
		}
		writeJSON(w, http.StatusOK, status)
	}
}

func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK\n"))
	}
}

// ReadyzHandler reports ready once the templates parse and the semantic
// comparator can serve calls.
func ReadyzHandler(e *grading.Evaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]Status{
			"comparator": checkComparator(e.Semantic()),
			"templates":  checkTemplates(),
		}
		for _, check := range checks {
			if check.Status != "healthy" {
				writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
					"status": "not ready",
					"checks": checks,
				})
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready\n"))
	}
}

func VersionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionInfo{
			Version:   Version,
			Commit:    Commit,
			GoVersion: runtime.Version(),
		})
	}
}

func checkComparator(s *grading.SemanticScorer) Status {
	if err := s.Ready(); err != nil {
		return Status{Status: "unavailable", Message: s.Backend() + ": " + err.Error()}
	}
	return Status{Status: "healthy", Message: s.Backend()}
}

func checkTemplates() Status {
	if err := templates.InitTemplates(); err != nil {
		return Status{Status: "unavailable", Message: err.Error()}
	}
	return Status{Status: "healthy"}
}

// formatDuration renders d as e.g. "1d 2h 3m 4s", omitting zero units.
func formatDuration(d time.Duration) string {
	parts := []struct {
		n    int
		unit string
	}{
		{int(d.Hours()) / 24, "d"},
		{int(d.Hours()) % 24, "h"},
		{int(d.Minutes()) % 60, "m"},
		{int(d.Seconds()) % 60, "s"},
	}
	result := ""
	for _, p := range parts {
		if p.n == 0 {
			continue
		}
		if result != "" {
			result += " "
		}
		result += strconv.Itoa(p.n) + p.unit
	}
	if result == "" {
		return "0s"
	}
	return result
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
