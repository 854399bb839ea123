package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorCode int    `json:"error_code,omitempty"`
}

// CredentialsEnvelope carries a freshly issued credential. The password is
// returned here once and is not retrievable afterwards.
type CredentialsEnvelope struct {
	Status   string `json:"status"`
	ID       string `json:"id,omitempty"`
	Password string `json:"password,omitempty"`
	Type     string `json:"type,omitempty"`
	Message  string `json:"message,omitempty"`
}

// ValidationData is the payload of a successful validation.
type ValidationData struct {
	UserID         string     `json:"userId"`
	UserType       string     `json:"userType"`
	RemainingTime  int64      `json:"remainingTime"`
	AccessToken    string     `json:"accessToken,omitempty"`
	TokenExpiresAt *time.Time `json:"tokenExpiresAt,omitempty"`
}

// ValidationEnvelope wraps validate-credentials responses.
type ValidationEnvelope struct {
	Status  string          `json:"status"`
	Valid   bool            `json:"valid"`
	Message string          `json:"message,omitempty"`
	Data    *ValidationData `json:"data,omitempty"`
}

// SessionEnvelope describes the bearer of an access token.
type SessionEnvelope struct {
	SubjectID string    `json:"userId"`
	Role      string    `json:"userType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Status: statusError, Error: msg, ErrorCode: status})
}
