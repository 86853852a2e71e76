package mediasvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mkrupp/chirp/internal/domain"
	context_ "github.com/mkrupp/chirp/internal/infra/context"
	"github.com/mkrupp/chirp/internal/infra/logging"
	http_ "github.com/mkrupp/chirp/internal/infra/transport/http"
)

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// AvatarFieldName is the multipart field holding an avatar upload.
	AvatarFieldName string `env:"AVATAR_FIELD_NAME" default:"avatar"`

	// ContentDispositionDownload controls whether files are served with download headers.
	// Default is false.
	ContentDispositionDownload bool `env:"CONTENT_DISPOSITION_DOWNLOAD" default:"false"`
}

// UploadResponse reports a stored image.
type UploadResponse struct {
	Message  string `json:"message"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Warning  string `json:"warning,omitempty"`
}

// HTTPTransport handles HTTP requests for the media service.
// It provides endpoints for uploading avatars and serving stored images.
type HTTPTransport struct {
	mediaSvc MediaService
	log      logging.Logger
	cfg      HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(mediaSvc MediaService, cfg HTTPTransportConfig) *HTTPTransport {
	return &HTTPTransport{
		mediaSvc: mediaSvc,
		log:      logging.GetLogger("svc.mediasvc.http_transport"),
		cfg:      cfg,
	}
}

// RegisterRoutes implements http_.HTTPTransport:
//   - POST /upload_avatar: replace the avatar of the signed-in user
//   - GET /uploads/{category}/{filename}: serve a stored image
//
// Both routes require a session.
func (ht *HTTPTransport) RegisterRoutes(router *mux.Router) {
	private := router.NewRoute().Subrouter()
	private.Use(http_.RequireSession)
	private.HandleFunc("/upload_avatar", ht.HandleUploadAvatar).Methods(http.MethodPost)
	private.HandleFunc("/uploads/{category}/{filename}", ht.HandleDownload).Methods(http.MethodGet, http.MethodHead)
}

// URL returns the path under which a stored image is served.
func URL(image domain.StoredImage) string {
	return "/uploads/" + image.Category.String() + "/" + image.Filename
}

// ReadUploadFile reads a file field of a parsed multipart form.
// Returns domain.ErrNoImage if the field is absent or has no file name.
func ReadUploadFile(r *http.Request, field string) (*domain.UploadFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, domain.ErrNoImage
		}

		return nil, fmt.Errorf("form file: %w", err)
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, domain.ErrNoImage
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", header.Filename, err)
	}

	return &domain.UploadFile{Filename: header.Filename, Data: data}, nil
}

// StatusFor maps media errors to a status code and a user facing notice.
func StatusFor(err error) (int, string) {
	switch {
	case http_.IsRequestTooLarge(err), errors.Is(err, domain.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large."
	case errors.Is(err, domain.ErrNoImage):
		return http.StatusBadRequest, "No file selected."
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return http.StatusBadRequest, "Invalid file type. Allowed: png, jpg, jpeg, gif, webp."
	case errors.Is(err, domain.ErrImageNotFound), errors.Is(err, domain.ErrUnknownCategory):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	default:
		return http.StatusInternalServerError, "Something went wrong."
	}
}

// HandleUploadAvatar processes avatar upload requests.
// Expects a multipart form with a file field matching AvatarFieldName config.
func (ht *HTTPTransport) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUploadAvatar(w, r)
}

func (ht *HTTPTransport) handleUploadAvatar(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "avatar upload failed", "error", err)

			status, notice := StatusFor(err)
			_ = http_.WriteError(w, status, notice)
		}
	}(r.Context())

	session, _ := context_.SessionFromContext(r.Context())

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	upload, err := ReadUploadFile(r, ht.cfg.AvatarFieldName)
	if err != nil {
		return err
	}

	result, err := ht.mediaSvc.ReplaceAvatar(r.Context(), session.UserID, upload.Filename, upload.Data)
	if err != nil {
		return fmt.Errorf("replace avatar: %w", err)
	}

	resp := UploadResponse{
		Message:  "Avatar updated!",
		Filename: result.Image.Filename,
		URL:      URL(result.Image),
	}

	if result.Degraded() {
		resp.Warning = "Image could not be optimized and was stored as uploaded."
	}

	return http_.WriteJSON(w, http.StatusOK, resp)
}

// HandleDownload serves a stored image.
// Expects the category and file name as URL parameters.
func (ht *HTTPTransport) HandleDownload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDownload(w, r)
}

func (ht *HTTPTransport) handleDownload(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "media download failed", "error", err)
		} else {
			log.DebugContext(ctx, "media downloaded")
		}
	}(r.Context())

	vars := mux.Vars(r)

	upload, err := ht.mediaSvc.Open(r.Context(), domain.Category(vars["category"]), vars["filename"])
	if err != nil {
		status, notice := StatusFor(err)
		_ = http_.WriteError(w, status, notice)

		return fmt.Errorf("open: %w", err)
	}
	defer upload.Close()

	if ht.cfg.ContentDispositionDownload {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", upload.Filename))
	}

	w.Header().Set("Content-Type", upload.MIMEType)
	w.Header().Set("X-Content-Type-Options", "nosniff")

	http.ServeContent(w, r, upload.Filename, upload.ModTime, upload)

	return nil
}
