package api

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every JSON response. Data is set on success, Errors on failure.
type Envelope struct {
	Status    string      `json:"status"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Errors    interface{} `json:"errors,omitempty"`
	Code      int         `json:"code"`
	Timestamp string      `json:"timestamp"`
}

var now = func() time.Time { return time.Now().UTC() }

func Success(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{
		Status:    StatusSuccess,
		Message:   message,
		Data:      data,
		Code:      status,
		Timestamp: now().Format(time.RFC3339),
	})
}

func Error(w http.ResponseWriter, status int, message string, errs interface{}) {
	writeJSON(w, status, Envelope{
		Status:    StatusError,
		Message:   message,
		Errors:    errs,
		Code:      status,
		Timestamp: now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
