package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/credential-relay/internal/application/credential"
	"github.com/credential-relay/internal/domain"
	"github.com/credential-relay/internal/transport/http/middleware"
)

const maxBodyBytes = 64 << 10

// TokenSigner mints an access token once a credential validates.
type TokenSigner interface {
	Sign(subjectID, role string, ttl time.Duration) (string, time.Time, error)
}

// CredentialHandler serves OTP delivery, account credential issuance and validation.
type CredentialHandler struct {
	svc    credential.Service
	tokens TokenSigner // nil disables access tokens
}

func NewCredentialHandler(svc credential.Service, tokens TokenSigner) *CredentialHandler {
	return &CredentialHandler{svc: svc, tokens: tokens}
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (h *CredentialHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.IssueOTP(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res.Suppressed {
		writeJSON(w, http.StatusOK, MessageEnvelope{Status: statusSuccess, Message: "Email already sent recently"})
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Status: statusSuccess})
}

func (h *CredentialHandler) SendCredentials(w http.ResponseWriter, r *http.Request) {
	var req domain.AccountRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.IssueAccountCredentials(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if res.Suppressed {
		writeJSON(w, http.StatusOK, CredentialsEnvelope{Status: statusSuccess, Message: "Email already sent recently"})
		return
	}
	writeJSON(w, http.StatusOK, CredentialsEnvelope{
		Status:   statusSuccess,
		ID:       res.SubjectID,
		Password: res.Secret,
		Type:     string(res.SubjectType),
	})
}

func (h *CredentialHandler) ValidateCredentials(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateRequest
	if !decode(w, r, &req) {
		return
	}
	if t, ok := domain.ParseSubjectType(req.UserType); ok && !strings.HasPrefix(req.UserID, t.Prefix()) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s ids must start with %s", t, t.Prefix()))
		return
	}

	res, err := h.svc.ValidateCredentials(r.Context(), req)
	if err != nil {
		status, msg := httpError(err)
		if status != http.StatusUnauthorized {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, status, ValidationEnvelope{Status: statusError, Message: msg})
		return
	}

	data := &ValidationData{
		UserID:        res.SubjectID,
		UserType:      string(res.SubjectType),
		RemainingTime: int64(res.Remaining / time.Second),
	}
	if h.tokens != nil {
		tok, exp, err := h.tokens.Sign(res.SubjectID, string(res.SubjectType), res.Remaining)
		if err != nil {
			slog.Error("sign access token", "subject_id", res.SubjectID, "err", err)
		} else {
			data.AccessToken = tok
			data.TokenExpiresAt = &exp
		}
	}
	writeJSON(w, http.StatusOK, ValidationEnvelope{Status: statusSuccess, Valid: true, Message: "Credentials are valid", Data: data})
}

// Session reports the subject behind the bearer token.
func (h *CredentialHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	env := SessionEnvelope{SubjectID: claims.SubjectID, Role: claims.Role}
	if claims.ExpiresAt != nil {
		env.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	writeJSON(w, http.StatusOK, env)
}
