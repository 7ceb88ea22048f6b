package domain

import "github.com/google/uuid"

// Session binds a live connection to its authenticated identity.
// It is created after a successful handshake and discarded on
// disconnect, never persisted. Every handler receives the session
// explicitly, so there is no "identity may be missing" lookup path
// once a connection is admitted.
type Session struct {
	ID       string
	Identity Identity
}

func NewSession(identity Identity) Session {
	return Session{ID: uuid.NewString(), Identity: identity}
}

// Bound reports whether the session carries an authenticated identity.
func (s Session) Bound() bool {
	return s.Identity != ""
}
