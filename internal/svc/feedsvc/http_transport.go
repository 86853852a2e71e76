package feedsvc

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mkrupp/chirp/internal/domain"
	context_ "github.com/mkrupp/chirp/internal/infra/context"
	"github.com/mkrupp/chirp/internal/infra/logging"
	http_ "github.com/mkrupp/chirp/internal/infra/transport/http"
	"github.com/mkrupp/chirp/internal/svc/mediasvc"
)

var ErrInvalidPostID = errors.New("invalid post id")

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	// ImageFieldName is the multipart field holding a post image.
	ImageFieldName string `env:"IMAGE_FIELD_NAME" default:"image"`
}

// FeedResponse is the body of GET /feed.
type FeedResponse struct {
	Posts []domain.FeedItem `json:"posts"`
}

// LikeResponse is the body of GET /like/{post_id}.
type LikeResponse struct {
	PostID domain.PostID `json:"post_id"`
	Liked  bool          `json:"liked"`
	Likes  int           `json:"likes"`
}

// PostResponse is the body of a successful POST /create_post.
type PostResponse struct {
	Message string       `json:"message"`
	Post    *domain.Post `json:"post"`
}

// HTTPTransport handles HTTP requests for the feed service.
type HTTPTransport struct {
	feedSvc *FeedService
	log     logging.Logger
	cfg     HTTPTransportConfig
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport instance with the given configuration.
func NewHTTPTransport(feedSvc *FeedService, cfg HTTPTransportConfig) *HTTPTransport {
	return &HTTPTransport{
		feedSvc: feedSvc,
		log:     logging.GetLogger("svc.feedsvc.http_transport"),
		cfg:     cfg,
	}
}

// RegisterRoutes implements http_.HTTPTransport:
//   - GET /feed: all posts, newest first
//   - GET, POST /create_post: publish a post with optional image
//   - GET /like/{post_id}: toggle a like
//   - GET /profile/{username}: a user and their posts
//   - POST /comment/{post_id}: comment on a post
//
// All routes require a session.
func (ht *HTTPTransport) RegisterRoutes(router *mux.Router) {
	private := router.NewRoute().Subrouter()
	private.Use(http_.RequireSession)
	private.HandleFunc("/feed", ht.HandleFeed).Methods(http.MethodGet)
	private.HandleFunc("/create_post", ht.HandleCreatePostForm).Methods(http.MethodGet)
	private.HandleFunc("/create_post", ht.HandleCreatePost).Methods(http.MethodPost)
	private.HandleFunc("/like/{post_id:[0-9]+}", ht.HandleLike).Methods(http.MethodGet)
	private.HandleFunc("/profile/{username}", ht.HandleProfile).Methods(http.MethodGet)
	private.HandleFunc("/comment/{post_id:[0-9]+}", ht.HandleComment).Methods(http.MethodPost)
}

// statusFor maps feed errors to a status code and a user facing notice.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyPost):
		return http.StatusBadRequest, "Post cannot be empty."
	case errors.Is(err, domain.ErrEmptyComment):
		return http.StatusBadRequest, "Comment cannot be empty."
	case errors.Is(err, ErrInvalidPostID), errors.Is(err, domain.ErrPostNotFound):
		return http.StatusNotFound, "Post not found."
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	default:
		return mediasvc.StatusFor(err)
	}
}

func (ht *HTTPTransport) writeError(w http.ResponseWriter, err error) {
	status, notice := statusFor(err)
	_ = http_.WriteError(w, status, notice)
}

func viewer(r *http.Request) domain.UserID {
	session, _ := context_.SessionFromContext(r.Context())

	return session.UserID
}

func postID(r *http.Request) (domain.PostID, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["post_id"], 10, 64)
	if err != nil {
		return 0, errors.Join(ErrInvalidPostID, err)
	}

	return domain.PostID(id), nil
}

// HandleFeed lists all posts.
func (ht *HTTPTransport) HandleFeed(w http.ResponseWriter, r *http.Request) {
	items, err := ht.feedSvc.Feed(r.Context(), viewer(r))
	if err != nil {
		ht.log.ErrorContext(r.Context(), "feed failed", "error", err)
		ht.writeError(w, err)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, FeedResponse{Posts: items})
}

// HandleCreatePostForm describes the post form.
func (ht *HTTPTransport) HandleCreatePostForm(w http.ResponseWriter, _ *http.Request) {
	_ = http_.WriteJSON(w, http.StatusOK, map[string]any{
		"form":   "create_post",
		"fields": []string{"content", ht.cfg.ImageFieldName},
	})
}

// HandleCreatePost publishes a post.
// Expects a form with a content field and an optional image file.
func (ht *HTTPTransport) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleCreatePost(w, r)
}

func (ht *HTTPTransport) handleCreatePost(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.DebugContext(ctx, "create post failed", "error", err)
			ht.writeError(w, err)
		}
	}(r.Context())

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	image, err := mediasvc.ReadUploadFile(r, ht.cfg.ImageFieldName)
	if err != nil && !errors.Is(err, domain.ErrNoImage) {
		return err
	}

	created, err := ht.feedSvc.CreatePost(r.Context(), viewer(r), r.PostFormValue("content"), image)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, PostResponse{Message: "Post created!", Post: created})
}

// HandleLike toggles the like of the signed-in user on a post.
func (ht *HTTPTransport) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, err := postID(r)
	if err != nil {
		ht.writeError(w, err)

		return
	}

	liked, likes, err := ht.feedSvc.ToggleLike(r.Context(), viewer(r), id)
	if err != nil {
		ht.writeError(w, err)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, LikeResponse{PostID: id, Liked: liked, Likes: likes})
}

// HandleProfile shows a user and their posts.
func (ht *HTTPTransport) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := ht.feedSvc.Profile(r.Context(), viewer(r), mux.Vars(r)["username"])
	if err != nil {
		ht.writeError(w, err)

		return
	}

	_ = http_.WriteJSON(w, http.StatusOK, profile)
}

// HandleComment adds a comment to a post.
// Expects form parameter: content.
func (ht *HTTPTransport) HandleComment(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleComment(w, r)
}

func (ht *HTTPTransport) handleComment(w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if err != nil {
			ht.log.DebugContext(r.Context(), "comment failed", "error", err)
			ht.writeError(w, err)
		}
	}()

	id, err := postID(r)
	if err != nil {
		return err
	}

	if err := http_.ParseForm(r); err != nil {
		return err
	}

	comment, err := ht.feedSvc.AddComment(r.Context(), viewer(r), id, r.PostFormValue("content"))
	if err != nil {
		return fmt.Errorf("add comment: %w", err)
	}

	return http_.WriteJSON(w, http.StatusCreated, comment)
}
