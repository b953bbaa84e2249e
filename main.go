// apps/party-server/main.go
//
// Entry point for the multiplayer Wordle party server.
// Wires config -> word lists -> dictionary -> room service <-> gateway -> HTTP,
// then serves until SIGINT/SIGTERM and shuts down in reverse order.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/party-server/internal/config"
	"github.com/robalobadob/wordle/apps/party-server/internal/dictionary"
	"github.com/robalobadob/wordle/apps/party-server/internal/gateway"
	"github.com/robalobadob/wordle/apps/party-server/internal/httpserver"
	"github.com/robalobadob/wordle/apps/party-server/internal/ledger"
	"github.com/robalobadob/wordle/apps/party-server/internal/ratelimit"
	"github.com/robalobadob/wordle/apps/party-server/internal/room"
	"github.com/robalobadob/wordle/apps/party-server/internal/words"
)

const shutdownMessage = "Server is shutting down"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	setupLogging(cfg)

	if err := words.Init(cfg.Words.AnswersFile, cfg.Words.AllowedFile); err != nil {
		log.Fatal().Err(err).Msg("failed to load word lists")
	}

	src := words.NewSource(dictionary.New(dictionary.Config{
		RandomWordURL: cfg.Dictionary.RandomWordURL,
		LookupURL:     cfg.Dictionary.LookupURL,
		APIKey:        cfg.Dictionary.APIKey,
		Timeout:       cfg.Dictionary.Timeout,
	}))

	// Match history is optional.
	var (
		history *ledger.Ledger
		opts    []room.Option
		results httpserver.Results
	)
	if cfg.DBPath != "" {
		history, err = ledger.Open(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open ledger")
		}
		opts = append(opts, room.WithRecorder(history))
		results = history
	}

	httpLimiter := ratelimit.New(ratelimit.Config{
		Window:   cfg.RateLimit.Window,
		Max:      cfg.RateLimit.Max,
		EntryTTL: cfg.RateLimit.EntryTTL,
	})
	wsLimiter := ratelimit.New(ratelimit.Config{
		Window:   cfg.RateLimit.WSWindow,
		Max:      cfg.RateLimit.WSMax,
		EntryTTL: cfg.RateLimit.EntryTTL,
	})

	gw := gateway.New(gateway.Config{
		PingPeriod:     cfg.WS.PingPeriod,
		PongWait:       cfg.WS.PongWait,
		WriteTimeout:   cfg.WS.WriteTimeout,
		MaxMessageSize: cfg.WS.MaxMessageSize,
		SendBuffer:     cfg.WS.SendBuffer,
		AllowedOrigins: []string{cfg.ClientOrigin},
	}, wsLimiter)

	svc := room.NewService(room.Config{
		MaxPlayers:       cfg.Rooms.MaxPlayers,
		WordsPerGame:     cfg.Rooms.WordsPerGame,
		GameDuration:     cfg.Rooms.GameDuration,
		InitialTimeout:   cfg.Rooms.InitialTimeout,
		ActiveTimeout:    cfg.Rooms.ActiveTimeout,
		SweepInterval:    cfg.Rooms.SweepInterval,
		TickInterval:     cfg.Rooms.TickInterval,
		WordFetchTimeout: cfg.Rooms.WordFetchTimeout,
	}, src, gw, opts...)
	gw.Bind(svc)

	svcCtx, stopService := context.WithCancel(context.Background())
	go svc.Run(svcCtx)

	api := httpserver.New(svc, src, httpserver.Options{
		ClientOrigin: cfg.ClientOrigin,
		Limiter:      httpLimiter,
		Results:      results,
		WS:           gw,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting party-server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	<-sigCtx.Done()
	log.Info().Msg("shutdown signal received")

	// Hard stop if graceful shutdown hangs.
	go func() {
		time.Sleep(cfg.ShutdownTimeout + time.Second)
		log.Error().Msg("forced shutdown")
		os.Exit(1)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}

	stopService()
	select {
	case <-svc.Done():
	case <-ctx.Done():
		log.Warn().Msg("room service did not stop in time")
	}

	if err := gw.Shutdown(ctx, shutdownMessage); err != nil {
		log.Warn().Err(err).Msg("gateway shutdown")
	}

	httpLimiter.Stop()
	wsLimiter.Stop()
	if history != nil {
		if err := history.Close(); err != nil {
			log.Warn().Err(err).Msg("close ledger")
		}
	}
	log.Info().Msg("party-server stopped")
}

func setupLogging(cfg config.Config) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
