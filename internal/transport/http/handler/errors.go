package handler

import (
	"log/slog"
	"net/http"

	"github.com/credential-relay/internal/domain"
)

// httpError maps a service error onto a status code and a client-safe message.
// Validation failures share one message so callers cannot tell which part was wrong.
func httpError(err error) (int, string) {
	switch domain.KindOf(err) {
	case domain.KindValidationInput:
		return http.StatusBadRequest, domain.PublicMessage(err)
	case domain.KindConflict:
		return http.StatusConflict, "identifier already in use"
	case domain.KindNotFound, domain.KindTypeMismatch, domain.KindBadSecret:
		return http.StatusUnauthorized, "invalid credentials"
	case domain.KindRateLimited:
		return http.StatusTooManyRequests, "too many requests"
	case domain.KindDeliveryTransient, domain.KindDeliveryPermanent, domain.KindDeliveryFailed:
		return http.StatusBadGateway, "failed to deliver message"
	case domain.KindIdentifierExhausted:
		return http.StatusServiceUnavailable, "no identifier available, retry later"
	case domain.KindTemplateMissing, domain.KindPlaceholderMissing:
		return http.StatusInternalServerError, "message template misconfigured"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := httpError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", r.URL.Path, "kind", domain.KindOf(err).String(), "err", err)
	}
	writeError(w, status, msg)
}
