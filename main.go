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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberduel/apps/go-server/internal/config"
	"github.com/robalobadob/numberduel/apps/go-server/internal/httpserver"
	"github.com/robalobadob/numberduel/apps/go-server/internal/store"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("go-server exited")
		os.Exit(1)
	}
}

// run wires the server and blocks until it shuts down.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg)

	limiter := httpserver.NewRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.GuessRateLimit, cfg.GuessRateWindow)
	defer func() {
		if err := limiter.Close(); err != nil {
			log.Warn().Err(err).Msg("close rate limiter")
		}
	}()

	mem := store.NewMemoryStore()
	srv := httpserver.New(mem, cfg, httpserver.WithRateLimiter(limiter))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sweep(ctx, mem, cfg.MatchIdleTime)

	hs := &http.Server{Addr: ":" + cfg.Port, Handler: srv.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdownCtx)
	}()

	log.Info().Str("port", cfg.Port).Dur("thinkDelay", cfg.ThinkDelay).Msg("starting go-server")
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func setupLogging(cfg *config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// sweep evicts idle matches until ctx is done.
func sweep(ctx context.Context, st store.Store, idle time.Duration) {
	t := time.NewTicker(idle / 2)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := st.Sweep(ctx, now.Add(-idle)); n > 0 {
				log.Info().Int("evicted", n).Msg("idle matches swept")
			}
		}
	}
}
