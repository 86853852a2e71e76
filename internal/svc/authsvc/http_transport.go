package authsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mkrupp/chirp/internal/domain"
	context_ "github.com/mkrupp/chirp/internal/infra/context"
	"github.com/mkrupp/chirp/internal/infra/logging"
	http_ "github.com/mkrupp/chirp/internal/infra/transport/http"
)

// FormResponse describes the inputs a form route accepts.
type FormResponse struct {
	Form   string   `json:"form"`
	Fields []string `json:"fields"`
}

// SessionResponse is returned on successful registration and login.
type SessionResponse struct {
	Message string            `json:"message"`
	User    domain.PublicUser `json:"user"`
}

// HTTPTransport handles HTTP requests for the authentication service.
// It provides endpoints for registration, login, logout and password resets.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	return &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
	}
}

// RegisterRoutes implements http_.HTTPTransport:
//   - GET /: redirect to /feed or /login
//   - GET, POST /register: register a new user (guests only)
//   - GET, POST /login: log in and set the session cookie (guests only)
//   - GET /logout: clear the session cookie
//   - GET, POST /forgot_password: request a reset link
//   - GET, POST /reset_password/{token}: check a reset token / set a new password
func (ht *HTTPTransport) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", ht.HandleIndex).Methods(http.MethodGet)
	router.HandleFunc("/logout", ht.HandleLogout).Methods(http.MethodGet)
	router.HandleFunc("/forgot_password", ht.formHandler("forgot_password", "email")).Methods(http.MethodGet)
	router.HandleFunc("/forgot_password", ht.HandleForgotPassword).Methods(http.MethodPost)
	router.HandleFunc("/reset_password/{token}", ht.HandleCheckResetToken).Methods(http.MethodGet)
	router.HandleFunc("/reset_password/{token}", ht.HandleResetPassword).Methods(http.MethodPost)

	guest := router.NewRoute().Subrouter()
	guest.Use(http_.RequireGuest)
	guest.HandleFunc("/register", ht.formHandler("register", "username", "email", "password")).Methods(http.MethodGet)
	guest.HandleFunc("/register", ht.HandleRegister).Methods(http.MethodPost)
	guest.HandleFunc("/login", ht.formHandler("login", "username", "password")).Methods(http.MethodGet)
	guest.HandleFunc("/login", ht.HandleLogin).Methods(http.MethodPost)
}

// statusFor maps service errors to a status code and a user facing notice.
func statusFor(err error) (int, string) {
	switch {
	case http_.IsRequestTooLarge(err):
		return http.StatusRequestEntityTooLarge, "Request too large."
	case errors.Is(err, domain.ErrMissingField):
		return http.StatusBadRequest, "Please fill in all fields."
	case errors.Is(err, domain.ErrDuplicateUsername):
		return http.StatusConflict, "Username already exists."
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "Email already registered."
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password."
	case errors.Is(err, domain.ErrEmailNotFound):
		return http.StatusNotFound, "Email not found."
	case errors.Is(err, domain.ErrTokenNotFound):
		return http.StatusNotFound, "Invalid or expired token."
	case errors.Is(err, domain.ErrPasswordMismatch):
		return http.StatusBadRequest, "Passwords do not match."
	case errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, "Password must be at most 72 bytes."
	default:
		return http.StatusInternalServerError, "Something went wrong."
	}
}

func (ht *HTTPTransport) writeError(w http.ResponseWriter, err error) {
	status, notice := statusFor(err)
	_ = http_.WriteError(w, status, notice)
}

func (ht *HTTPTransport) formHandler(form string, fields ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_ = http_.WriteJSON(w, http.StatusOK, FormResponse{Form: form, Fields: fields})
	}
}

// HandleIndex redirects signed-in users to the feed and everyone else to the login page.
func (ht *HTTPTransport) HandleIndex(w http.ResponseWriter, r *http.Request) {
	if _, ok := context_.SessionFromContext(r.Context()); ok {
		http.Redirect(w, r, "/feed", http.StatusFound)

		return
	}

	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleRegister processes user registration requests.
// Expects form parameters: username, email, password.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user register failed", "error", err)
			ht.writeError(w, err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	registered, err := ht.authSvc.RegisterUser(
		r.Context(),
		r.PostFormValue("username"),
		r.PostFormValue("email"),
		r.PostFormValue("password"),
	)
	if err != nil {
		return fmt.Errorf("register user: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, SessionResponse{
		Message: "Registration successful! Please log in.",
		User:    registered.Public(),
	})
}

// HandleLogin processes user login requests.
// Expects form parameters: username, password.
// Sets the session cookie on success.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "user login failed", "error", err)
			ht.writeError(w, err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	authenticated, err := ht.authSvc.Authenticate(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	token, session, err := ht.authSvc.IssueSession(r.Context(), authenticated)
	if err != nil {
		return fmt.Errorf("issue session: %w", err)
	}

	http_.SetSessionCookie(w, token, time.Unix(session.ExpiresAt, 0))

	return http_.WriteJSON(w, http.StatusOK, SessionResponse{
		Message: "Logged in successfully.",
		User:    authenticated.Public(),
	})
}

// HandleLogout clears the session cookie and redirects to the login page.
func (ht *HTTPTransport) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http_.ClearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

// HandleForgotPassword issues a password reset link.
// Expects form parameter: email.
func (ht *HTTPTransport) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleForgotPassword(w, r)
}

func (ht *HTTPTransport) handleForgotPassword(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "password reset request failed", "error", err)
			ht.writeError(w, err)
		}
	}(r.Context())

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	email := r.PostFormValue("email")
	if email == "" {
		return fmt.Errorf("%w: email", domain.ErrMissingField)
	}

	link, err := ht.authSvc.RequestPasswordReset(r.Context(), email)
	if err != nil {
		return fmt.Errorf("request password reset: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, link)
}

// HandleCheckResetToken answers 404 for unknown tokens and the reset form otherwise.
func (ht *HTTPTransport) HandleCheckResetToken(w http.ResponseWriter, r *http.Request) {
	if err := ht.authSvc.CheckResetToken(r.Context(), mux.Vars(r)["token"]); err != nil {
		ht.writeError(w, err)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, FormResponse{
		Form:   "reset_password",
		Fields: []string{"password", "confirm_password"},
	})
}

// HandleResetPassword sets a new password.
// Expects form parameters: password, confirm_password.
func (ht *HTTPTransport) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleResetPassword(w, r)
}

func (ht *HTTPTransport) handleResetPassword(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "password reset failed", "error", err)
			ht.writeError(w, err)
		}
	}(r.Context())

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	if err := ht.authSvc.ResetPassword(
		r.Context(),
		mux.Vars(r)["token"],
		r.PostFormValue("password"),
		r.PostFormValue("confirm_password"),
	); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	return http_.WriteJSON(w, http.StatusOK, http_.MessageResponse{
		Message: "Your password has been updated! You can now log in.",
	})
}
