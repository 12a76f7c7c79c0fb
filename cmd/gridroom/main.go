// Package main provides the gridroom server binary: a WebSocket
// coordinator for room-based tic-tac-toe matches.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/parlorgames/gridroom/internal/config"
	"github.com/parlorgames/gridroom/internal/game"
	"github.com/parlorgames/gridroom/internal/observability"
	"github.com/parlorgames/gridroom/internal/router"
	"github.com/parlorgames/gridroom/internal/server"
	"github.com/parlorgames/gridroom/internal/transport/ws"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty = built-in defaults")
	flag.Parse()

	var cfg config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	} else {
		cfg = config.Default()
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting gridroom server",
		zap.String("addr", cfg.Server.Addr()),
		zap.Duration("idle_room_ttl", cfg.Game.IdleRoomTTL),
	)

	store := game.NewStore()
	registry := game.NewRegistry()
	coord := game.NewCoordinator(store, registry, logger)

	r := router.New(coord, logger)
	wsServer := ws.NewServer(cfg.Server, r, logger)
	r.SetSender(wsServer)

	lc := server.NewLifecycle(logger)
	lc.Add("websocket", wsServer)

	if cfg.Game.IdleRoomTTL > 0 {
		reaper := game.NewReaper(coord, cfg.Game.IdleRoomTTL, cfg.Game.SweepInterval, r.Deliver, logger)
		lc.Add("reaper", reaper)
	}

	logger.Info("components wired", zap.Duration("elapsed", time.Since(start)))

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
