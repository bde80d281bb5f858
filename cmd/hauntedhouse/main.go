// Package main runs the haunted house, either as a Telnet server for many
// explorers or as a single explorer in the local terminal.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/cory-johannsen/hauntedhouse/content"
	"github.com/cory-johannsen/hauntedhouse/internal/config"
	"github.com/cory-johannsen/hauntedhouse/internal/frontend/console"
	"github.com/cory-johannsen/hauntedhouse/internal/frontend/handlers"
	"github.com/cory-johannsen/hauntedhouse/internal/frontend/telnet"
	"github.com/cory-johannsen/hauntedhouse/internal/game/house"
	"github.com/cory-johannsen/hauntedhouse/internal/game/session"
	"github.com/cory-johannsen/hauntedhouse/internal/observability"
	"github.com/cory-johannsen/hauntedhouse/internal/server"
	"github.com/cory-johannsen/hauntedhouse/internal/storage/visits"
)

const (
	consoleLogFile      = "hauntedhouse.log"
	storeHealthInterval = 30 * time.Second
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "", "path to configuration file; empty uses defaults and HAUNT_ environment variables")
	mode := flag.String("mode", "", "override server.mode: telnet or console")
	houseFile := flag.String("house", "", "override game.house_file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *mode != "" {
		cfg.Server.Mode = *mode
	}
	if *houseFile != "" {
		cfg.Game.HouseFile = *houseFile
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	// The console presenter owns the terminal.
	if cfg.Server.Mode == "console" && cfg.Logging.File == "" {
		cfg.Logging.File = consoleLogFile
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting haunted house",
		zap.String("mode", cfg.Server.Mode),
		zap.String("house_file", cfg.Game.HouseFile),
	)

	houseStart := time.Now()
	h, err := loadHouse(cfg.Game.HouseFile)
	if err != nil {
		logger.Fatal("loading house", zap.Error(err))
	}
	logger.Info("house loaded",
		zap.String("name", h.Name),
		zap.Int("rooms", h.Catalog.Len()),
		zap.Int("haunted", h.Catalog.HauntedCount()),
		zap.Duration("elapsed", time.Since(houseStart)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := visits.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("opening visit store", zap.Error(err))
	}

	lifecycle := server.NewLifecycle(logger)
	lifecycle.OnShutdown("visits", store.Close)
	if rs, ok := store.(*visits.RedisStore); ok {
		lifecycle.Add("visits", healthService(ctx, rs, logger))
	}

	switch cfg.Server.Mode {
	case "console":
		model, err := console.New(h, cfg.Game.StartRoom, store, cfg, logger)
		if err != nil {
			logger.Fatal("creating console", zap.Error(err))
		}
		program := tea.NewProgram(model, tea.WithAltScreen())
		lifecycle.Add("console", &server.FuncService{
			StartFn: func() error {
				// Leaving the house ends the process.
				defer cancel()
				_, err := program.Run()
				return err
			},
			StopFn: program.Quit,
		})
	default:
		sessions := session.NewManager(cfg.Telnet.MaxSessions)
		handler, err := handlers.NewGameHandler(h, cfg.Game.StartRoom, sessions, store, cfg, logger)
		if err != nil {
			logger.Fatal("creating game handler", zap.Error(err))
		}
		acceptor := telnet.NewAcceptor(cfg.Telnet, handler, logger)
		lifecycle.Add("telnet", &server.FuncService{
			StartFn: acceptor.ListenAndServe,
			StopFn:  acceptor.Stop,
		})
	}

	logger.Info("haunted house initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("telnet_addr", cfg.Telnet.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// loadHouse reads path, or the embedded house when path is empty.
func loadHouse(path string) (*house.House, error) {
	if path == "" {
		return house.LoadHouseFromBytes(content.House)
	}
	return house.LoadHouseFromFile(path)
}

// healthService pings Redis until stopped so a lost connection shows in the logs.
func healthService(ctx context.Context, store *visits.RedisStore, logger *zap.Logger) *server.FuncService {
	done := make(chan struct{})
	return &server.FuncService{
		StartFn: func() error {
			ticker := time.NewTicker(storeHealthInterval)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return nil
				case <-ticker.C:
					if err := store.Health(ctx); err != nil {
						logger.Warn("visit store health check failed", zap.Error(err))
					}
				}
			}
		},
		StopFn: func() { close(done) },
	}
}
