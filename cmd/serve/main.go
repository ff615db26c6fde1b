package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/evently-app/evently/internal/handler"
	applog "github.com/evently-app/evently/internal/log"
	"github.com/evently-app/evently/internal/middleware"
	"github.com/evently-app/evently/internal/server"
	"github.com/evently-app/evently/internal/tracing"
	"github.com/evently-app/evently/pkg/config"
	"github.com/evently-app/evently/pkg/event"
	"github.com/evently-app/evently/pkg/image"
	"github.com/evently-app/evently/pkg/storage"
	"github.com/evently-app/evently/pkg/user"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}

	logger := applog.NewLogger(os.Stdout, cfg.Logging.Level, cfg.Logging.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(logger, "evently", cfg.Environment, cfg.JaegerEndpoint)
	if err != nil {
		return err
	}

	db, err := storage.NewDatabase(logger, cfg.Postgresql, cfg.Logging.SQL)
	if err != nil {
		return err
	}

	store, err := newImageStore(ctx, logger, cfg.Images)
	if err != nil {
		return err
	}

	if err := handler.RegisterValidation(); err != nil {
		return err
	}

	imageService := image.NewService(logger, store, cfg.Images.MaxUploadSize)
	userService := user.NewService(user.NewRepository(db))
	eventService := event.NewService(logger, event.NewRepository(db), imageService)

	authentication := middleware.NewAuthentication(logger, userService)

	r, err := server.GetEngine(logger, cfg.Session, authentication.Authenticate)
	if err != nil {
		return err
	}
	user.Routes(r, user.NewHandler(userService))
	image.Routes(r, image.NewHandler(imageService), server.CORS(cfg.CORSAllowedOrigins))
	event.Routes(r, middleware.RequireUser, event.NewHandler(cfg.BaseURL, eventService))

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Listening", "address", cfg.HTTPAddr, "environment", cfg.Environment, "imageStorage", cfg.Images.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		return errors.Join(srv.Shutdown(shutdownCtx), shutdownTracing(shutdownCtx))
	})

	return g.Wait()
}

func newImageStore(ctx context.Context, logger *slog.Logger, c config.Images) (storage.Store, error) {
	if c.Storage != config.ImageStorageS3 {
		return storage.NewFileSystem(c.UploadDir)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if c.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(c.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	uploader := manager.NewUploader(client)

	return storage.NewS3Store(storage.NewS3Client(logger, client, uploader), c.S3Bucket), nil
}
