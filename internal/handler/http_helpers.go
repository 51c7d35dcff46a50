package handler

import (
	"net/http"
)

// writeStatus writes a response with an empty body.
func writeStatus(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
}

// writeText writes a plain-text response
func writeText(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write([]byte(message))
}

// writeJSON writes an already encoded JSON document
func writeJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
