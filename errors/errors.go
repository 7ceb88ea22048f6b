package errors

import "fmt"

var (
	// Handshake failures. Both are terminal: the connection is refused
	// before any subscription exists.
	ErrMissingCredential = fmt.Errorf("missing bearer credential")
	ErrInvalidCredential = fmt.Errorf("invalid bearer credential")

	ErrMessageNotFound = fmt.Errorf("message not found")

	// ErrUnboundIdentity is a defensive fallback for operations reaching
	// the service without an authenticated session. The websocket layer
	// binds an identity before any frame is processed, so this is only
	// reachable through direct misuse of the service API.
	ErrUnboundIdentity = fmt.Errorf("no identity bound to session")

	ErrInvalidContent = fmt.Errorf("message content is empty or too long")
)
