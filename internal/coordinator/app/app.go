package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthanhphan/gosdk/logger"
	httpHandler "github.com/chunkvault/chunkvault/internal/coordinator/adapter/inbound/http"
	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/access"
	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/metadata"
	"github.com/chunkvault/chunkvault/internal/coordinator/adapter/outbound/nodeclient"
	"github.com/chunkvault/chunkvault/internal/coordinator/config"
	"github.com/chunkvault/chunkvault/internal/coordinator/membership"
	"github.com/chunkvault/chunkvault/internal/coordinator/port"
	"github.com/chunkvault/chunkvault/internal/coordinator/registry"
	"github.com/chunkvault/chunkvault/internal/coordinator/service"
	"github.com/chunkvault/chunkvault/pkg/idgen"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    *config.Config
	server *httpHandler.Server
	meta   *metadata.BoltStore
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

	// 3. Metadata store
	meta, err := metadata.Open(cfg.Metadata.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	// 4. Redis: access tracking plus the snowflake clock source. Both
	// degrade to local equivalents when Redis is disabled.
	var clock idgen.Clock = &idgen.SystemClock{}
	var tracker port.AccessTracker = access.NopTracker{}
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		clock = idgen.NewRedisClock(redisClient)
		tracker = access.NewTracker(redisClient)
	}

	idGen, err := idgen.New(cfg.Engine.NodeID, clock)
	if err != nil {
		return nil, fmt.Errorf("failed to init snowflake: %w", err)
	}

	// 5. Registry, hydrated from persisted node records
	reg, err := registry.New(context.Background(), meta)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate node registry: %w", err)
	}

	// 6. Node client and engine facade
	blobs := nodeclient.New(time.Duration(cfg.Engine.NodeCallTimeoutMS) * time.Millisecond)
	svc := service.NewCoreService(cfg, meta, blobs, tracker, reg, idGen)

	// 7. HTTP Server
	httpServer := httpHandler.NewServer(cfg, svc)

	// 8. Gossip membership. The coordinator advertises no chunk endpoint
	// so storage daemons never register it as a peer.
	var gossip *membership.GossipAdapter
	if cfg.Gossip.Enabled {
		gossip, err = membership.NewGossipAdapter(
			fmt.Sprintf("coordinator-%d", cfg.Engine.NodeID),
			cfg.Gossip.BindAddr,
			cfg.Gossip.BindPort,
			membership.NodeMeta{},
			reg,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to init gossip: %w", err)
		}
	}

	return &App{
		cfg:    cfg,
		server: httpServer,
		meta:   meta,
		gossip: gossip,
	}, nil
}

func (a *App) Run() error {
	if a.gossip != nil {
		if err := a.gossip.Join(a.cfg.Gossip.Seeds); err != nil {
			logger.Warnw("Gossip join failed, continuing with persisted registry", "error", err.Error())
		}
	}

	logger.Infow("Coordinator starting", "addr", a.cfg.Server.Addr)
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
		logger.Errorw("Coordinator server exited unexpectedly", "error", err.Error())
	}

	logger.Info("Shutting down coordinator")
	if a.gossip != nil {
		if err := a.gossip.Leave(); err != nil {
			logger.Warnw("Gossip leave error", "error", err.Error())
		}
	}
	if err := a.server.Stop(context.Background()); err != nil {
		logger.Errorw("Coordinator shutdown error", "error", err.Error())
		if runErr == nil {
			runErr = err
		}
	}
	if err := a.meta.Close(); err != nil {
		logger.Errorw("Metadata store close error", "error", err.Error())
	}

	return runErr
}
