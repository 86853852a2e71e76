package domain

import "errors"

// ErrInvalidSession is returned when a session's signature is invalid or it has expired.
var ErrInvalidSession = errors.New("invalid session")

// Session identifies the signed-in user of a request.
type Session struct {
	UserID    UserID `json:"uid"`      // Authenticated user
	Username  string `json:"username"` // Username at issue time
	IssuedAt  int64  `json:"iat"`      // Unix timestamp when the session was created
	ExpiresAt int64  `json:"exp"`      // Unix timestamp when the session expires
}
