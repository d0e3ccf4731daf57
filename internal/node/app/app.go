package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/anthanhphan/gosdk/logger"
	"github.com/chunkvault/chunkvault/internal/coordinator/membership"
	httpHandler "github.com/chunkvault/chunkvault/internal/node/adapter/inbound/http"
	"github.com/chunkvault/chunkvault/internal/node/adapter/outbound/disk"
	"github.com/chunkvault/chunkvault/internal/node/config"
	"github.com/chunkvault/chunkvault/internal/node/service"
)

type App struct {
	cfg    *config.Config
	server *httpHandler.Server
	gossip *membership.GossipAdapter
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	// If NodeID is empty, derive it from hostname and port
	nodeID := cfg.Server.NodeID
	if nodeID == "" {
		host, _ := os.Hostname()
		nodeID = fmt.Sprintf("%s-%d", host, cfg.Server.Port)
	}

	// 3. Disk store and chunk service
	store, err := disk.NewStore(cfg.Disk)
	if err != nil {
		return nil, fmt.Errorf("failed to init disk store: %w", err)
	}
	svc := service.NewChunkService(store, nodeID)

	// 4. HTTP Server
	server := httpHandler.NewServer(cfg, svc)

	// 5. Gossip membership: advertise the chunk endpoint so the
	// coordinator registers this node for placement.
	var gossip *membership.GossipAdapter
	if cfg.Gossip.Enabled {
		gossip, err = membership.NewGossipAdapter(
			nodeID,
			cfg.Gossip.BindAddr,
			cfg.Gossip.Port,
			membership.NodeMeta{
				Host:      cfg.Server.Hostname,
				ChunkPort: cfg.Server.Port,
				Priority:  cfg.Server.Priority,
			},
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init gossip: %w", err)
		}
	}

	return &App{
		cfg:    cfg,
		server: server,
		gossip: gossip,
	}, nil
}

func (a *App) Run() error {
	if a.gossip != nil {
		if err := a.gossip.Join(a.cfg.Gossip.Seeds); err != nil {
			logger.Warnw("Gossip join failed, node will serve without cluster membership", "error", err.Error())
		}
	}

	logger.Infow("Storage node starting", "addr", a.cfg.Server.Addr())
	serverErrCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			serverErrCh <- err
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		runErr = fmt.Errorf("http server failed: %w", err)
		logger.Errorw("Node server exited unexpectedly", "error", err.Error())
	}

	logger.Info("Shutting down storage node")
	if a.gossip != nil {
		if err := a.gossip.Leave(); err != nil {
			logger.Warnw("Gossip leave error", "error", err.Error())
		}
	}
	if err := a.server.Stop(context.Background()); err != nil {
		logger.Errorw("Node shutdown error", "error", err.Error())
		if runErr == nil {
			runErr = err
		}
	}

	return runErr
}
