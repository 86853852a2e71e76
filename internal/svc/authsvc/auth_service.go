package authsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mkrupp/chirp/internal/domain"
	"github.com/mkrupp/chirp/internal/infra/logging"
	"github.com/mkrupp/chirp/internal/repo/user"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// SecretKey signs session cookies. An empty key is replaced by a random one.
	SecretKey string `env:"SECRET_KEY" default:"dev-secret-key-here"`

	// SessionDuration is the validity of a session cookie
	SessionDuration time.Duration `env:"AUTH_SESSION_DURATION" default:"24h"`

	// ResetBaseURL is prepended to /reset_password/<token> in reset links
	ResetBaseURL string `env:"AUTH_RESET_BASE_URL" default:"http://localhost:5000"`

	// BcryptCost is the work factor of password hashes
	BcryptCost int `env:"AUTH_BCRYPT_COST" default:"10"`
}

// AuthService provides account management and authentication.
// It handles registration, login, password resets and session tokens.
type AuthService struct {
	cfg        AuthConfig
	users      user.Repository
	signingKey []byte
	log        logging.Logger
	now        func() time.Time
}

// Option configures an AuthService.
type Option func(*AuthService)

// WithClock replaces the clock used for session timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *AuthService) {
		s.now = now
	}
}

// NewAuthService creates a new AuthService with the given user repository and configuration.
// Returns an error if the signing key cannot be created.
func NewAuthService(ctx context.Context, users user.Repository, cfg AuthConfig, opts ...Option) (*AuthService, error) {
	log := logging.GetLogger("svc.authsvc.auth_service")

	signingKey, generated, err := GetSigningKey(cfg.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("get signing key: %w", err)
	}

	if generated {
		log.WarnContext(ctx, "no secret key configured, sessions will not survive a restart")
	}

	s := &AuthService{
		cfg:        cfg,
		users:      users,
		signingKey: signingKey,
		log:        log,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// RegisterUser creates a new account with the given username, email and password.
// The password is hashed with bcrypt before storage.
// Returns domain.ErrDuplicateUsername or domain.ErrDuplicateEmail if either is taken.
func (s *AuthService) RegisterUser(ctx context.Context, username, email, password string) (_ *domain.User, err error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	log := s.log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.InfoContext(ctx, "user registered")
		}
	}()

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", domain.ErrMissingField)
	}

	if err := s.ensureAvailable(ctx, username, email); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	created, err := s.users.CreateUser(ctx, username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	return created, nil
}

// ensureAvailable reports a taken username or email before hashing.
// The unique constraints still decide on concurrent registrations.
func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("get user by username: %w", err)
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return fmt.Errorf("get user by email: %w", err)
	}

	return nil
}

// Authenticate checks a username and password.
// Returns domain.ErrInvalidCredentials if the user does not exist or the password is wrong.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (_ *domain.User, err error) {
	log := s.log.With(logging.Group("user", "username", username))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "authentication failed", "error", err)
		} else {
			log.DebugContext(ctx, "authentication successful")
		}
	}()

	found, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errors.Join(domain.ErrInvalidCredentials, err)
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := checkPassword(found.PasswordHash, password); err != nil {
		return nil, err
	}

	return found, nil
}

// RequestPasswordReset issues a new reset token for the account with the given email.
// Any earlier token of that account stops working.
// Returns domain.ErrEmailNotFound if no account uses the email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (_ domain.ResetLink, err error) {
	log := s.log.With(logging.Group("reset", "email", email))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "password reset request failed", "error", err)
		} else {
			log.InfoContext(ctx, "password reset requested")
		}
	}()

	found, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ResetLink{}, errors.Join(domain.ErrEmailNotFound, err)
		}

		return domain.ResetLink{}, fmt.Errorf("get user: %w", err)
	}

	token, err := generateResetToken()
	if err != nil {
		return domain.ResetLink{}, err
	}

	if err := s.users.SetResetToken(ctx, found.ID, domain.IssuedResetToken(token)); err != nil {
		return domain.ResetLink{}, fmt.Errorf("set reset token: %w", err)
	}

	return domain.ResetLink{
		URL:   strings.TrimRight(s.cfg.ResetBaseURL, "/") + "/reset_password/" + token,
		Token: token,
	}, nil
}

// CheckResetToken returns domain.ErrTokenNotFound unless some user holds the token.
func (s *AuthService) CheckResetToken(ctx context.Context, token string) error {
	_, err := s.userByResetToken(ctx, token)

	return err
}

func (s *AuthService) userByResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrTokenNotFound
	}

	found, err := s.users.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, errors.Join(domain.ErrTokenNotFound, err)
		}

		return nil, fmt.Errorf("get user: %w", err)
	}

	return found, nil
}

// ResetPassword sets a new password for the holder of the reset token and
// clears the token. A mismatching confirmation leaves the token usable.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirmPassword string) (err error) {
	defer func() {
		if err != nil {
			s.log.WarnContext(ctx, "password reset failed", "error", err)
		} else {
			s.log.InfoContext(ctx, "password reset")
		}
	}()

	found, err := s.userByResetToken(ctx, token)
	if err != nil {
		return err
	}

	if password != confirmPassword {
		return domain.ErrPasswordMismatch
	}

	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrMissingField)
	}

	passwordHash, err := hashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return err
	}

	if err := s.users.ResetPassword(ctx, found.ID, passwordHash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	return nil
}

// IssueSession creates a signed session token for an authenticated user.
func (s *AuthService) IssueSession(ctx context.Context, u *domain.User) (string, domain.Session, error) {
	now := s.now()
	session := domain.Session{
		UserID:    u.ID,
		Username:  u.Username,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.cfg.SessionDuration).Unix(),
	}

	token, err := NewSessionToken(session, s.signingKey)
	if err != nil {
		s.log.ErrorContext(ctx, "issue session failed", "error", err)

		return "", domain.Session{}, err
	}

	s.log.DebugContext(ctx, "session issued", logging.Group("session",
		"uid", session.UserID,
		"exp", time.Unix(session.ExpiresAt, 0).UTC().Format(time.RFC3339),
	))

	return token, session, nil
}

// ValidateSession verifies a session token.
// Returns domain.ErrInvalidSession if it is forged, malformed or expired.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (domain.Session, error) {
	session, err := ParseSessionToken(token, s.signingKey, s.now())
	if err != nil {
		s.log.DebugContext(ctx, "validate session failed", "error", err)

		return domain.Session{}, err
	}

	return session, nil
}
