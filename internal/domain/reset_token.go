package domain

import "errors"

// ErrTokenNotFound is returned when no user holds the given reset token.
var ErrTokenNotFound = errors.New("reset token not found")

// ResetToken is the optional single-use password reset credential of a user.
// The zero value is the absent state.
type ResetToken struct {
	value  string
	issued bool
}

// NoResetToken returns the absent state.
func NoResetToken() ResetToken {
	return ResetToken{}
}

// IssuedResetToken returns a token in the issued state.
// An empty value yields the absent state.
func IssuedResetToken(value string) ResetToken {
	if value == "" {
		return ResetToken{}
	}

	return ResetToken{value: value, issued: true}
}

// Issued reports whether a token is pending.
func (t ResetToken) Issued() bool {
	return t.issued
}

// Value returns the token and whether it is issued.
func (t ResetToken) Value() (string, bool) {
	return t.value, t.issued
}

// String never reveals the token.
func (t ResetToken) String() string {
	if t.issued {
		return "issued"
	}

	return "absent"
}

// ResetLink is the URL handed to the requester of a password reset.
type ResetLink struct {
	URL   string `json:"reset_link"`
	Token string `json:"-"`
}
