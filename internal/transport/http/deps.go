package http

import (
	"github.com/credential-relay/internal/application/credential"
	jwtinfra "github.com/credential-relay/internal/infrastructure/jwt"
)

// Deps holds everything the router needs beyond config.
type Deps struct {
	CredentialSvc credential.Service
	JWTProvider   *jwtinfra.Provider // optional; enables access tokens and /credentials/session
}
