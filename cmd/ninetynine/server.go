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

	"github.com/lox/ninetynine/internal/randutil"
	"github.com/lox/ninetynine/internal/server"
)

// ServerCmd runs the WebSocket server. Flags override the config file.
type ServerCmd struct {
	Config   string `short:"c" default:"ninetynine.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" help:"Server address to bind to (overrides config)"`
	Port     int    `short:"p" help:"Port to listen on (overrides config)"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	MaxRooms int    `help:"Maximum concurrent rooms (overrides config)"`
	Seed     *int64 `help:"Deterministic RNG seed for room codes, deals and bots"`
}

func (c *ServerCmd) Run() error {
	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.LogLevel != "" {
		cfg.Server.LogLevel = c.LogLevel
	}
	if c.MaxRooms != 0 {
		cfg.Server.MaxRooms = c.MaxRooms
	}
	if c.Seed != nil {
		cfg.Server.Seed = *c.Seed
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(os.Stderr, cfg.Server.LogLevel)

	seed := cfg.Server.Seed
	if seed == 0 {
		seed = randutil.EntropySeed()
		logger.Info("Using random seed", "seed", seed)
	} else {
		logger.Info("Using deterministic seed", "seed", seed)
	}

	store := server.NewRoomStore(
		server.WithStoreRand(randutil.New(seed)),
		server.WithMaxRooms(cfg.Server.MaxRooms),
		server.WithIdleTTL(cfg.IdleTTL()),
		server.WithBotTiming(cfg.ThinkTime(), cfg.PlayPause()),
		server.WithBotTuning(cfg.BotTuning()),
		server.WithStoreLogger(logger),
	)
	srv := server.NewServer(cfg.GetServerAddress(), store, logger)

	logger.Info("Starting 99 server",
		"address", cfg.GetServerAddress(),
		"max_rooms", cfg.Server.MaxRooms,
		"idle_room_ttl", cfg.IdleTTL(),
		"play_pause", cfg.PlayPause())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Shutdown failed", "error", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}
