package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/spf13/cobra"
	"github.com/vedran77/parley/internal/access"
	"github.com/vedran77/parley/internal/live"
	"github.com/vedran77/parley/internal/logger"
	"github.com/vedran77/parley/internal/service"
	"github.com/vedran77/parley/internal/transport/http/handlers"
	"github.com/vedran77/parley/internal/transport/http/middleware"
	"github.com/vedran77/parley/internal/transport/ws"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the live query websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(ctx context.Context) error {
	cfg, err := setup()
	if err != nil {
		return err
	}
	log := logger.L

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Backends
	store, pool, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.Close()
	}

	engine, _, closeEngine, err := openEngine(cfg, pool)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeEngine(); err != nil {
			log.Error("closing search index", slog.Any("error", err))
		}
	}()

	blobs, local, closeBlobs, err := openBlobs(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBlobs(); err != nil {
			log.Error("closing blob store", slog.Any("error", err))
		}
	}()

	// Live tracking wraps every backend a query can read
	tracker := live.NewTracker(log)
	trackedStore := live.NewStore(store, tracker)
	trackedEngine := live.NewEngine(engine, tracker)
	trackedBlobs := live.NewBlobs(blobs)
	attachments := service.NewAttachmentResolver(trackedBlobs)

	// Services
	gate := access.NewGate(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(trackedStore, gate, log)
	channelService := service.NewChannelService(trackedStore, log)
	messageService := service.NewMessageService(trackedStore, trackedEngine, attachments, log)
	searchService := service.NewSearchService(trackedStore, trackedEngine, attachments, log)
	profileService := service.NewProfileService(trackedStore, trackedBlobs, attachments, log)

	// Handlers
	api := handlers.Handlers{
		Auth:     handlers.NewAuthHandler(authService),
		Channels: handlers.NewChannelHandler(channelService),
		Messages: handlers.NewMessageHandler(messageService, searchService),
		Profiles: handlers.NewProfileHandler(profileService),
	}
	if local != nil {
		api.Storage = handlers.NewStorageHandler(local, func(ref string) {
			tracker.Invalidate(live.BlobKey(ref))
		})
	}

	hub := ws.NewHub(tracker, &ws.Queries{
		Channels: channelService,
		Messages: messageService,
		Search:   searchService,
		Profiles: profileService,
	}, ws.Limits{
		EventsPerSecond: cfg.WSEventsPerSecond,
		EventBurst:      cfg.WSEventBurst,
	}, log)

	// Routes
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/ws", ws.ServeWS(hub, gate))
	api.Mount(r, middleware.Auth(gate))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting server", slog.String("addr", srv.Addr),
			slog.String("store", cfg.StoreDriver),
			slog.String("search", cfg.SearchEngine),
			slog.String("blobs", cfg.BlobDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped cleanly")
	return nil
}
