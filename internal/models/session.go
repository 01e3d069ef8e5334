package models

// Session is the client's identity state. The stored identity is two scalar
// fields; a non-empty user id is treated as proof of authentication for the
// rest of the browsing session (no token or expiry is modeled).
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Authenticated reports whether a user id is present.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}
