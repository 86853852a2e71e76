package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/chirp/internal/infra/config"
	"github.com/mkrupp/chirp/internal/infra/database"
	"github.com/mkrupp/chirp/internal/infra/logging"
	"github.com/mkrupp/chirp/internal/infra/transport/http"
	"github.com/mkrupp/chirp/internal/repo/post"
	"github.com/mkrupp/chirp/internal/repo/upload"
	"github.com/mkrupp/chirp/internal/repo/user"
	"github.com/mkrupp/chirp/internal/svc/authsvc"
	"github.com/mkrupp/chirp/internal/svc/feedsvc"
	"github.com/mkrupp/chirp/internal/svc/imagesvc"
	"github.com/mkrupp/chirp/internal/svc/mediasvc"
)

const appName = "chirp"

type Config struct {
	config.EnvConfig

	Log       logging.LoggerConfig                    `envPrefix:"LOG_"`
	Database  database.Config
	HTTP      http.HTTPTransportConfig
	Auth      authsvc.AuthConfig
	Image     imagesvc.ImageConfig                    `envPrefix:"IMAGE_"`
	Media     mediasvc.MediaConfig                    `envPrefix:"MEDIA_"`
	MediaHTTP mediasvc.HTTPTransportConfig            `envPrefix:"MEDIA_"`
	FeedHTTP  feedsvc.HTTPTransportConfig             `envPrefix:"FEED_"`
	Upload    upload.FileSystemUploadRepositoryConfig `envPrefix:"UPLOAD_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		configPrefix = strings.ToUpper(appName)
	)

	if err := config.LoadDotEnv(".env"); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, appName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.chirp")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	users := user.NewSQLUserRepository(db)
	posts := post.NewSQLPostRepository(db)

	uploads, err := upload.NewFileSystemUploadRepository(ctx, cfg.Upload)
	if err != nil {
		return fmt.Errorf("new upload repository: %w", err)
	}

	normalizer, err := imagesvc.NewDrawNormalizer(cfg.Image)
	if err != nil {
		return fmt.Errorf("new normalizer: %w", err)
	}

	mediaSvc := mediasvc.NewLocalMediaService(uploads, users, normalizer, cfg.Media)

	authSvc, err := authsvc.NewAuthService(ctx, users, cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	feedSvc := feedsvc.NewFeedService(posts, users, mediaSvc)

	router := http.NewRouter(
		authsvc.NewHTTPTransport(authSvc),
		mediasvc.NewHTTPTransport(mediaSvc, cfg.MediaHTTP),
		feedsvc.NewHTTPTransport(feedSvc, cfg.FeedHTTP),
	)

	if err := http.ListenAndServe(ctx, http.NewHandler(router, authSvc, cfg.HTTP), cfg.HTTP); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
