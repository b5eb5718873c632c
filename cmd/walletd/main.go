package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"nanowallet/config"
	"nanowallet/gateway/middleware"
	"nanowallet/gateway/routes"
	"nanowallet/observability"
	"nanowallet/observability/logging"
	telemetry "nanowallet/observability/otel"
	"nanowallet/orchestrator"
	"nanowallet/peer"
	"nanowallet/storage"
	"nanowallet/storage/journal"
	"nanowallet/store"
)

var version = "dev"

func main() {
	var (
		cfgPath     string
		networkFlag string
		testFlag    bool
	)
	flag.StringVar(&cfgPath, "config", "", "path to walletd configuration")
	flag.StringVar(&networkFlag, "network", "", "override the network profile (mainnet|testnet|customNode)")
	flag.BoolVar(&testFlag, "test", false, "run against the test network profile")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("WALLETD_ENV"))
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logging.Setup("walletd", env).Error("load config", "error", err)
		os.Exit(1)
	}
	if networkFlag != "" {
		cfg.Network = networkFlag
	}
	if testFlag {
		cfg.Test = true
	}

	logOpts := []logging.Option{logging.WithLevel(logging.ParseLevel(os.Getenv("WALLETD_LOG_LEVEL")))}
	if cfg.Log.File != "" {
		logOpts = append(logOpts, logging.WithFile(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays))
	}
	logger := logging.Setup(cfg.Observability.ServiceName, env, logOpts...)

	if err := run(cfg, env, logger); err != nil {
		logger.Error("walletd stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, env string, logger *slog.Logger) error {
	otelCfg := telemetry.ConfigFromEnv(cfg.Observability.ServiceName, env)
	otelCfg.ServiceVersion = version
	otelCfg.Metrics = cfg.Observability.Metrics && otelCfg.Endpoint != ""
	otelCfg.Traces = cfg.Observability.Tracing
	shutdownTelemetry, err := telemetry.Init(context.Background(), otelCfg)
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		if shutdownTelemetry != nil {
			_ = shutdownTelemetry(context.Background())
		}
	}()

	networks, err := config.LoadNetworks(cfg.NetworksFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	prefsDB, err := storage.Open(cfg.Prefs.Backend, cfg.PrefsPath())
	if err != nil {
		return fmt.Errorf("open preferences: %w", err)
	}
	prefs := storage.NewPreferences(prefsDB)
	defer prefs.Close()

	networkKey := strings.TrimSpace(cfg.Network)
	if networkKey == "" {
		preferred, err := prefs.DefaultNetwork()
		if err != nil {
			return fmt.Errorf("read network preference: %w", err)
		}
		networkKey = config.ResolveDefaultNetwork(preferred, config.BuildDefaultNetwork, cfg.Test, config.TestNetwork)
	}
	network, err := networks.Lookup(networkKey)
	if err != nil {
		return err
	}
	node, err := peer.NewNode(networkKey, network)
	if err != nil {
		return err
	}

	metrics := observability.Wallet()
	client := peer.NewClient(
		peer.WithTimeout(cfg.Peer.Timeout),
		peer.WithRateLimit(cfg.Peer.RatePerSecond, cfg.Peer.Burst),
		peer.WithMetrics(metrics),
		peer.WithUserAgent("walletd/"+version),
	)

	s := store.New(store.WithMetrics(metrics))
	s.Dispatch(store.PeerSetAction(node))
	logger.Info("peer selected", "network", networkKey, "url", node.BaseURL)

	db, err := journal.Open(cfg.Journal.Driver, cfg.Journal.DSN)
	if err != nil {
		return err
	}
	pending, err := journal.New(db, logger.With("component", "journal"))
	if err != nil {
		return err
	}
	defer pending.Close()
	s.Use(pending.Hook(s))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := orchestrator.New(client, s,
		orchestrator.WithLogger(logger.With("component", "orchestrator")),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithContext(ctx),
	)
	defer func() {
		stop()
		orch.Wait()
	}()
	s.Use(orch.Hook())

	if last, err := prefs.LastAddress(); err != nil {
		logger.Warn("read last address failed", "error", err.Error())
	} else if last != "" {
		s.Dispatch(store.TransactionsRequestInitAction(last))
	}

	go func() {
		if err := orchestrator.NewPoller(s, cfg.PollInterval).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("poller stopped", "error", err.Error())
		}
	}()

	rateLimits := make(map[string]middleware.RateLimit, len(cfg.RateLimits))
	for _, entry := range cfg.RateLimits {
		if entry.ID == "" {
			continue
		}
		rateLimits[entry.ID] = middleware.RateLimit{RatePerSecond: entry.RatePerSecond, Burst: entry.Burst}
	}
	rateLimitKey := ""
	if _, ok := rateLimits["api"]; ok {
		rateLimitKey = "api"
	}

	router, err := routes.New(routes.Config{
		Store:       s,
		Session:     orch,
		Networks:    networks,
		Preferences: prefs,
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.HMACSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ScopeClaim: cfg.Auth.ScopeClaim,
			ClockSkew:  cfg.Auth.ClockSkew,
		}, logger),
		RateLimiter:  middleware.NewRateLimiter(rateLimits, logger),
		RateLimitKey: rateLimitKey,
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName:   cfg.Observability.ServiceName,
			MetricsPrefix: cfg.Observability.MetricsPrefix,
			LogRequests:   cfg.Observability.LogRequests,
			Enabled:       cfg.Observability.Metrics || cfg.Observability.Tracing,
		}, logger),
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("configure routes: %w", err)
	}

	handler := http.Handler(router)
	if cfg.Observability.Tracing {
		handler = otelhttp.NewHandler(router, "walletd")
	}
	server := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	listener, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err.Error())
	}
	logger.Info("walletd stopped")
	return nil
}
