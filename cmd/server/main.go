package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/File-Sharing-BondBridg/Photo-Service/internal/api"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/auth"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/configuration"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/logger"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/services"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/sessions"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Photo-Service/internal/views"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gintrace "gopkg.in/DataDog/dd-trace-go.v1/contrib/gin-gonic/gin"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := configuration.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *configuration.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tracer.Start(tracer.WithService(cfg.Tracing.Service))
		defer tracer.Stop()
	}

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	router  *gin.Engine
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// newApp connects every backend named by cfg and builds the router. Optional
// backends (NATS, clamd) that cannot be reached are logged and skipped.
func newApp(ctx context.Context, cfg *configuration.Config, log *logger.Logger) (*app, error) {
	a := &app{}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher = services.NopPublisher{}
	if cfg.NATSURL != "" {
		p, err := services.ConnectNATS(cfg.NATSURL, log)
		if err != nil {
			log.Warn("NATS unavailable, events disabled", zap.Error(err))
		} else {
			publisher = p
			a.closers = append(a.closers, p.Close)
		}
	}

	var scanner services.Scanner
	if cfg.CLAMAVURL != "" {
		s := services.NewClamdScanner(cfg.CLAMAVURL)
		if err := s.Ping(); err != nil {
			log.Warn("clamd did not answer, uploads are kept unscanned until it does", zap.Error(err))
		}
		scanner = s
	}

	tmpl, err := views.Load()
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(logger.GinRecovery(log), logger.GinLogger(log))
	if cfg.Tracing.Enabled {
		r.Use(gintrace.Middleware(cfg.Tracing.Service))
	}
	r.SetHTMLTemplate(tmpl)
	r.MaxMultipartMemory = 8 << 20

	deps := api.Deps{
		Photos: handlers.New(store, publisher, scanner, log.Named("photos"), handlers.Options{
			MaxFiles:    cfg.Storage.MaxFiles,
			MaxFileSize: cfg.Storage.MaxFileSize,
		}),
		Log: log,
	}

	if cfg.OAuth.Enabled() {
		authDeps, closeSessions, err := newAuth(ctx, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, closeSessions)
		deps.Auth = authDeps
	}

	api.RegisterRoutes(r, deps)
	a.router = r
	return a, nil
}

func openStorage(ctx context.Context, cfg *configuration.Config, log *logger.Logger) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "minio":
		m := cfg.MinIO
		return storage.NewMinioStorage(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.BucketName, m.UseSSL, log.Named("minio"))
	default:
		return storage.NewLocalStorage(cfg.Storage.Root)
	}
}

func newAuth(ctx context.Context, cfg *configuration.Config, log *logger.Logger) (*api.AuthDeps, func(), error) {
	provider, err := auth.NewOIDCProvider(ctx, auth.Config{
		Issuer:       cfg.OAuth.Issuer,
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		RedirectURL:  cfg.OAuth.RedirectURL,
	})
	if err != nil {
		return nil, nil, err
	}

	var store sessions.Store = sessions.NewMemoryStore()
	closeStore := func() {}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		store = sessions.NewRedisStore(client)
		closeStore = func() { _ = client.Close() }
	}

	cookie := sessions.NewCookie(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.CookieSecure)
	return &api.AuthDeps{
		Handler:  handlers.NewAuthHandler(provider, store, cookie, log.Named("auth")),
		Provider: provider,
		Store:    store,
		Cookie:   cookie,
	}, closeStore, nil
}
