package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"

	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/grpcapi"
	grpcHandler "github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/inbound/grpc"
	httpHandler "github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/inbound/http"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/outbound/directory"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/adapter/outbound/routing_client"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/config"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/metrics"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/port"
	"github.com/anthanhphan/go-distributed-command-router/internal/router/service"
	"github.com/anthanhphan/go-distributed-command-router/pkg/gossip"
	"github.com/anthanhphan/go-distributed-command-router/pkg/resilience"
	"github.com/anthanhphan/go-distributed-command-router/pkg/shard"
	"github.com/anthanhphan/gosdk/logger"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	cfg        *config.Config
	router     *service.CommandRouterImpl
	httpServer *httpHandler.Server
	grpcServer *grpc.Server

	// gossip mode
	transport *gossip.Transport

	// directory mode
	redis     redis.UniversalClient
	announcer *service.DirectoryAnnouncer
	sync      *service.DirectorySync
	fetcher   *routing_client.GRPCFetcher

	backgroundStop context.CancelFunc
}

func New(configPath string) (*App, error) {
	// 1. Load Config
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 2. Initialize Logger
	logger.InitLogger(&cfg.Logger)

	strategy, err := cfg.RoutingStrategy()
	if err != nil {
		return nil, err
	}

	// 3. Membership registry
	m := metrics.NewRouterMetrics()
	registry := service.NewMembershipRegistry(m)
	local := &service.LocalRoutingInfo{}
	member := shard.NewMember(cfg.Server.NodeID, cfg.Endpoints())

	a := &App{cfg: cfg}

	// 4. Membership mode
	var (
		announcer service.Announcer
		opts      = []service.RouterOption{service.WithRouterMetrics(m)}
	)
	switch cfg.Membership.Mode {
	case config.ModeGossip:
		transport, err := gossip.NewTransport(gossip.Config{
			NodeID:         member.ID,
			BindAddr:       cfg.Server.Hostname,
			BindPort:       cfg.Gossip.Port,
			Endpoints:      member.Endpoints,
			Workers:        cfg.Gossip.Workers,
			QueueSize:      cfg.Gossip.QueueSize,
			RetransmitMult: cfg.Gossip.RetransmitMult,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init gossip: %w", err)
		}
		join := service.NewJoinProtocol(transport, registry, local, m)
		transport.OnReceive(join)

		a.transport = transport
		announcer = join
		opts = append(opts, service.WithJoinProtocol(join))

	case config.ModeDirectory:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Directory.RedisAddr,
			Password: cfg.Directory.RedisPassword,
			DB:       cfg.Directory.RedisDB,
		})
		dir := directory.NewRedisDirectory(a.redis, cfg.Directory.KeyPrefix, cfg.Directory.InstanceTTL())

		a.fetcher = routing_client.NewGRPCFetcher()
		fetchers := []port.RoutingInfoFetcher{
			routing_client.NewHTTPFetcher(cfg.Resolver.Timeout()),
			a.fetcher,
		}
		breakers := resilience.NewEndpointBreakers(resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.Resolver.FailureThreshold,
			OpenTimeout:      cfg.Resolver.OpenTimeout(),
		})
		resolver := service.NewRoutingInfoResolver(member.ID, local, fetchers,
			service.WithResolveTimeout(cfg.Resolver.Timeout()),
			service.WithEndpointBreakers(breakers),
			service.WithResolverMetrics(m),
		)
		source, err := service.NewRoutingInfoSource(cfg.Directory.RoutingInfoSource, resolver, m)
		if err != nil {
			return nil, err
		}

		a.sync = service.NewDirectorySync(dir, source, registry, member.ID, cfg.Directory.PollInterval(), m)
		a.announcer = service.NewDirectoryAnnouncer(dir, member, nil, cfg.Directory.EmbedMetadata,
			cfg.Directory.HeartbeatInterval(), registry, local, m)
		announcer = a.announcer
		opts = append(opts, service.WithDirectorySync(a.sync))

	default:
		return nil, fmt.Errorf("unsupported membership mode %q", cfg.Membership.Mode)
	}

	// 5. Command router
	a.router = service.NewCommandRouter(registry, announcer, strategy, local, opts...)

	// 6. Inbound servers
	a.httpServer = httpHandler.NewServer(cfg.HTTPAddr(), a.router, prometheus.DefaultGatherer)
	if cfg.Server.GRPCPort > 0 {
		a.grpcServer = grpc.NewServer()
		grpcapi.RegisterRoutingInformationServer(a.grpcServer, grpcHandler.NewServer(a.router))
	}

	return a, nil
}

// Router exposes the command router to code embedding the node.
func (a *App) Router() port.CommandRouter {
	return a.router
}

func (a *App) Run() error {
	bgCtx, cancel := context.WithCancel(context.Background())
	a.backgroundStop = cancel
	defer cancel()

	serverErrCh := make(chan error, 2)

	// Start gRPC first so peers can fetch routing information as soon as we announce
	if a.grpcServer != nil {
		listener, err := net.Listen("tcp", a.cfg.GRPCAddr())
		if err != nil {
			return fmt.Errorf("failed to listen on port %d: %w", a.cfg.Server.GRPCPort, err)
		}
		go func() {
			if err := a.grpcServer.Serve(listener); err != nil {
				serverErrCh <- fmt.Errorf("gRPC server failed: %w", err)
			}
		}()
	}

	go func() {
		if err := a.httpServer.Start(); err != nil {
			serverErrCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	switch {
	case a.transport != nil:
		a.joinCluster()
	case a.sync != nil:
		go a.sync.Start(bgCtx)
		go a.announcer.Start(bgCtx)
	}

	if a.cfg.Membership.Announce {
		if err := a.router.UpdateMembership(bgCtx, a.cfg.Membership.LoadFactor, a.cfg.Membership.CommandFilter); err != nil {
			// directory registration is retried by the heartbeat
			logger.Errorw("Initial membership announcement failed", "error", err.Error())
		}
	}

	logger.Infow("Command router node starting",
		"id", a.cfg.Server.NodeID,
		"mode", a.cfg.Membership.Mode,
		"http", a.cfg.Server.HTTPPort,
		"grpc", a.cfg.Server.GRPCPort,
		"gossip", a.cfg.Gossip.Port)

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case sig := <-stop:
		logger.Infow("Shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		// Ignore expected stop errors.
		if !strings.Contains(err.Error(), "use of closed network connection") && !errors.Is(err, grpc.ErrServerStopped) {
			runErr = err
			logger.Errorw("Command router server exited unexpectedly", "error", err.Error())
		}
	}

	a.shutdown()
	return runErr
}

func (a *App) joinCluster() {
	seeds := make([]string, 0, len(a.cfg.Gossip.Seeds))
	self := net.JoinHostPort(a.cfg.Server.Hostname, strconv.Itoa(a.cfg.Gossip.Port))
	for _, seed := range a.cfg.Gossip.Seeds {
		if seed == "" || seed == self {
			continue
		}
		seeds = append(seeds, seed)
	}
	if len(seeds) == 0 {
		return
	}

	var joinErr error
	for i := 0; i < 5; i++ {
		joinErr = a.transport.Join(seeds)
		if joinErr == nil {
			return
		}
		logger.Warnw("Failed to join cluster, retrying...", "attempt", i+1, "error", joinErr.Error())
		time.Sleep(2 * time.Second)
	}
	logger.Errorw("Failed to join cluster after retries", "error", joinErr.Error())
}

func (a *App) shutdown() {
	logger.Info("Shutting down command router")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if a.backgroundStop != nil {
		a.backgroundStop()
	}
	if a.announcer != nil {
		if err := a.announcer.Close(ctx); err != nil {
			logger.Warnw("Directory deregistration failed", "error", err.Error())
		}
	}
	if a.sync != nil {
		a.sync.Stop()
	}
	if a.transport != nil {
		if err := a.transport.Leave(shutdownTimeout); err != nil {
			logger.Warnw("Gossip leave failed", "error", err.Error())
		}
	}
	if err := a.httpServer.Stop(ctx); err != nil {
		logger.Warnw("HTTP server stop failed", "error", err.Error())
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}
	if a.fetcher != nil {
		if err := a.fetcher.Close(); err != nil {
			logger.Warnw("Routing information client close failed", "error", err.Error())
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			logger.Warnw("Redis client close failed", "error", err.Error())
		}
	}
}
