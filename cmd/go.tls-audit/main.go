package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/config"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/credential"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/entities"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/environment"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory/f5"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory/file"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/inventory/postgres"
	ll "gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/logger"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/network"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/report"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/server/http"
	"gitlab.lucky-team.pro/luckyads/go.tls-audit/internal/service/audit"
)

//nolint:gochecknoglobals
var (
	version   = "unknown"
	buildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	appConfig, err := config.New()
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return 0
		}
		log.Printf("failed to read app config: %v", err)
		return 1
	}

	logger, err := ll.New(version, appConfig.Env, appConfig.Logger.Level)
	if err != nil {
		log.Printf("failed to init logger: %v", err)
		return 1
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	ctx = environment.CtxWithEnv(ctx, appConfig.Env)
	ctx = environment.CtxWithVersion(ctx, version)
	ctx = environment.CtxWithBuildTime(ctx, buildTime)

	source, closeSource, err := newSource(ctx, logger, appConfig)
	if err != nil {
		logger.Error("failed to set up inventory source", zap.Error(err))
		return 1
	}
	defer closeSource() //nolint:errcheck

	resolver, err := newResolver(appConfig)
	if err != nil {
		logger.Error("failed to set up resolver", zap.Error(err))
		return 1
	}

	opts := []audit.Option{
		audit.WithWorkers(appConfig.Audit.Workers),
		audit.WithSkipWildcards(appConfig.Audit.SkipWildcards),
	}
	var bar *report.ProgressBar
	if appConfig.Output.Progress {
		bar = report.NewProgressBar(os.Stderr)
		opts = append(opts, audit.WithProgress(bar))
	}

	auditService := audit.New(
		resolver,
		network.NewTCPProber(appConfig.Audit.Port, appConfig.Audit.ProbeTimeout),
		newInspector(appConfig),
		logger,
		opts...,
	)
	policy := entities.NewPolicy(appConfig.Policy.Deadline.Time, appConfig.Policy.Flagged, appConfig.Policy.Exclude)

	start := time.Now()
	auditReport, err := auditService.Audit(ctx, source, policy)
	if bar != nil {
		bar.Wait(err == nil)
	}
	if err != nil {
		logger.Error("audit failed", zap.Error(err))
		return 1
	}
	logger.Info("audit - successful", zap.Duration("duration", time.Since(start)))

	if err := render(os.Stdout, appConfig, auditReport); err != nil {
		logger.Error("failed to render report", zap.Error(err))
		return 1
	}

	if !appConfig.HTTP.Serve {
		return 0
	}

	httpServer, err := http.NewServer(logger, appConfig, auditReport)
	if err != nil {
		logger.Error("failed to create http server", zap.Error(err))
		return 1
	}

	gr, appctx := errgroup.WithContext(ctx)
	gr.Go(func() error {
		return httpServer.Serve(appctx)
	})

	if err := gr.Wait(); err != nil {
		logger.Error("application exited with error", zap.Error(err))
		return 1
	}

	return 0
}

// newSource returns the configured inventory source and a function
// releasing its resources. The F5 credential is acquired here, before
// any network activity, and handed to the client only.
func newSource(ctx context.Context, logger *zap.Logger, appConfig *config.AppConfig) (inventory.Source, func() error, error) {
	noop := func() error { return nil }

	switch appConfig.Inventory.Source {
	case config.SourcePostgres:
		pgStorage, err := postgres.New(ctx, logger, &appConfig.Postgres)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return &pgStorage, pgStorage.Close, nil
	case config.SourceFile:
		return file.New(appConfig.Inventory.File), noop, nil
	default:
		cred, err := credential.Acquire(appConfig.F5.User, os.LookupEnv, credential.NewTerminalPrompter())
		if err != nil {
			return nil, noop, err
		}
		return f5.New(logger, &appConfig.F5, cred), noop, nil
	}
}

func newResolver(appConfig *config.AppConfig) (audit.Resolver, error) {
	var next network.Resolver = network.NewSystemResolver()
	if appConfig.Resolver.Nameserver != "" {
		next = network.NewDNSResolver(appConfig.Resolver.Nameserver, appConfig.Resolver.Timeout)
	}

	cached, err := network.NewCachedResolver(next, appConfig.Resolver.CacheSize)
	if err != nil {
		return nil, err
	}

	return cached, nil
}

func newInspector(appConfig *config.AppConfig) audit.Inspector {
	if appConfig.Audit.Inspector == config.InspectorCurl {
		return network.NewCurlInspector(appConfig.Audit.Port, appConfig.Audit.InspectTimeout)
	}
	return network.NewTLSInspector(appConfig.Audit.Port, appConfig.Audit.InspectTimeout)
}

func render(w io.Writer, appConfig *config.AppConfig, auditReport entities.Report) error {
	var renderer report.Renderer = report.NewText(appConfig.Output.NoColor)
	if appConfig.Output.Format == config.FormatJSON {
		renderer = report.JSON{}
	}

	return renderer.Render(w, auditReport)
}
