package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"peerchat/contract"
	"peerchat/domain"
	"peerchat/errors"
)

const authorizationHeader = "Authorization"

// Authenticator intercepts the connection-establishment handshake.
// It inspects the upgrade request headers for a bearer credential and
// resolves it to an identity; any failure refuses the handshake before
// a subscription is possible, leaving no state behind.
type Authenticator struct {
	validator contract.TokenValidator
	log       *slog.Logger
}

func NewAuthenticator(validator contract.TokenValidator, log *slog.Logger) Authenticator {
	return Authenticator{validator: validator, log: log}
}

// Authenticate checks the Authorization header of the handshake
// request. Returns ErrMissingCredential when the header is absent or
// not in "Bearer <token>" form, ErrInvalidCredential when the token
// does not verify.
func (a Authenticator) Authenticate(header http.Header) (domain.Identity, error) {
	raw := header.Get(authorizationHeader)
	if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
		a.log.Warn("handshake refused: no bearer credential")
		return "", errors.ErrMissingCredential
	}

	identity, err := a.validator.Validate(strings.TrimPrefix(raw, "Bearer "))
	if err != nil {
		a.log.Warn("handshake refused: credential rejected", "error", err)
		return "", err
	}
	return identity, nil
}
