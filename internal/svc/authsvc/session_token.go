package authsvc

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mkrupp/chirp/internal/domain"
)

// sessionClaims are the JWT claims of a session cookie.
// The subject holds the user ID.
type sessionClaims struct {
	jwt.RegisteredClaims

	Username string `json:"username"`
}

// NewSessionToken signs a session with HS256.
func NewSessionToken(session domain.Session, key []byte) (string, error) {
	//nolint:exhaustruct
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(int64(session.UserID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Unix(session.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(session.ExpiresAt, 0)),
		},
		Username: session.Username,
	})

	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseSessionToken verifies the signature and expiry of a session token.
// Returns domain.ErrInvalidSession for any validation failure.
func ParseSessionToken(tokenString string, key []byte, now time.Time) (domain.Session, error) {
	//nolint:exhaustruct
	claims := &sessionClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil {
		return domain.Session{}, errors.Join(domain.ErrInvalidSession, fmt.Errorf("parse token: %w", err))
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return domain.Session{}, fmt.Errorf("%w: bad subject %q", domain.ErrInvalidSession, claims.Subject)
	}

	session := domain.Session{
		UserID:    domain.UserID(userID),
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Unix(),
	}

	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Unix()
	}

	return session, nil
}
