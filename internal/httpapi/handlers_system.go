package httpapi

import (
	"net/http"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

func (a *api) welcome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Welcome to the tech-care API server!"))
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "OK",
		"time":   a.now().UTC().Format(isoMillis),
	})
}

func (a *api) notFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"title":   "Not Found",
		"message": "Route not found: " + r.Method + " " + r.URL.RequestURI(),
	})
}
