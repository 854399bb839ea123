package http

import (
	"net/http"

	"github.com/credential-relay/internal/config"
	"github.com/credential-relay/internal/domain"
	"github.com/credential-relay/internal/transport/http/handler"
	appmiddleware "github.com/credential-relay/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds the application router. The returned close func stops
// background work owned by the router's middleware.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, func()) {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(appmiddleware.WithMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, applied to issuance and validation.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	var signer handler.TokenSigner
	if deps.JWTProvider != nil {
		signer = deps.JWTProvider
	}
	healthH := handler.NewHealthHandler()
	credH := handler.NewCredentialHandler(deps.CredentialSvc, signer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)

		r.Group(func(r chi.Router) {
			r.Use(sensitiveRL.Limit)
			r.Post("/send-email", credH.SendOTP)
			r.Post("/send-credentials", credH.SendCredentials)
			r.Post("/validate-credentials", credH.ValidateCredentials)
		})

		if deps.JWTProvider != nil {
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.Auth(deps.JWTProvider))
				r.Use(appmiddleware.RequireRole(subjectRoles()...))
				r.Get("/credentials/session", credH.Session)
			})
		}
	})

	return r, sensitiveRL.Close
}

func subjectRoles() []string {
	roles := make([]string, len(domain.SubjectTypes))
	for i, t := range domain.SubjectTypes {
		roles[i] = string(t)
	}
	return roles
}
