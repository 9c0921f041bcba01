package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Office/internal/adapters/http"
	signaladapter "github.com/dkeye/Office/internal/adapters/signal"
	"github.com/dkeye/Office/internal/app"
	"github.com/dkeye/Office/internal/app/orch"
	"github.com/dkeye/Office/internal/config"
	"github.com/dkeye/Office/internal/domain"
	"github.com/dkeye/Office/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		// Everything below dereferences cfg; there is no sane fallback.
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Storage is best-effort: the office runs memory-only when the
	// database is unreachable, dropping writes with a warning.
	var st store.Store
	if mongoStore, err := store.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB); err != nil {
		log.Warn().Err(err).Msg("mongo unavailable, running memory-only")
		st = store.Disabled{}
	} else {
		st = mongoStore
	}

	defaults := make([]domain.RoomName, 0, len(cfg.DefaultRooms))
	for _, name := range cfg.DefaultRooms {
		defaults = append(defaults, domain.RoomName(name))
	}

	o := &orch.Orchestrator{
		Registry:      app.NewRegistry(cfg.StateTTL),
		Rooms:         app.NewRoomManager(defaults...),
		Store:         st,
		SingleRoom:    cfg.SingleRoom,
		CanonicalRoom: domain.RoomName(cfg.CanonicalRoom),
	}
	ctl := signaladapter.NewController(o, cfg.ReadLimit, cfg.ChatRateLimit, cfg.ChatRateInterval)

	r := router.SetupRouter(ctx, cfg, o, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Office server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := st.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("store close")
	}
	log.Info().Msg("Server exited gracefully")
}
