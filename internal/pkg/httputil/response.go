package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Text writes a plain-text response with the given status code.
func Text(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(body)); err != nil {
		log.Printf("[httputil] write error: %v", err)
	}
}

// OK writes a 200 response with the body "ok". Webhook callers only look
// at the status code, so the body stays deliberately short.
func OK(w http.ResponseWriter) {
	Text(w, http.StatusOK, "ok")
}

// BadRequest writes a 400 plain-text error.
func BadRequest(w http.ResponseWriter, message string) {
	Text(w, http.StatusBadRequest, message)
}

// NotFound writes a 404 plain-text error.
func NotFound(w http.ResponseWriter, message string) {
	Text(w, http.StatusNotFound, message)
}

// MethodNotAllowed writes a 405 plain-text error.
func MethodNotAllowed(w http.ResponseWriter) {
	Text(w, http.StatusMethodNotAllowed, "method not allowed")
}

// JSON writes a JSON response with the given status code. Used by
// operational endpoints (health); the webhook itself answers plain text.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}
