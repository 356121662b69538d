package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"chimeraevo/internal/logging"
	"chimeraevo/internal/metrics"
	"chimeraevo/internal/storage"
	chimeraapi "chimeraevo/pkg/chimeraevo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	root, a := newRootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close(ctx))
}

type globalOptions struct {
	storeKind     string
	dbPath        string
	redisAddr     string
	redisPassword string
	redisDB       int
	redisPrefix   string
	artifactsDir  string
	exportsDir    string
	logLevel      string
	metricsAddr   string
}

// app carries the per-invocation client built from the global flags.
type app struct {
	opts          globalOptions
	logger        *slog.Logger
	client        *chimeraapi.Client
	metricsServer *http.Server
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:           "chimeraevoctl",
		Short:         "Evolutionary minor-embedding search on Chimera hardware graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.opts.storeKind, "store", storage.KindMemory, "store backend: memory|sqlite|redis")
	flags.StringVar(&a.opts.dbPath, "db-path", "chimeraevo.db", "sqlite database path")
	flags.StringVar(&a.opts.redisAddr, "redis-addr", "", "redis address for the redis store")
	flags.StringVar(&a.opts.redisPassword, "redis-password", "", "redis password")
	flags.IntVar(&a.opts.redisDB, "redis-db", 0, "redis database number")
	flags.StringVar(&a.opts.redisPrefix, "redis-prefix", "", "redis key prefix")
	flags.StringVar(&a.opts.artifactsDir, "artifacts-dir", "artifacts", "directory for run artifacts")
	flags.StringVar(&a.opts.exportsDir, "exports-dir", "exports", "default export directory")
	flags.StringVar(&a.opts.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flags.StringVar(&a.opts.metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while the command runs")

	root.AddCommand(
		newRunCmd(a),
		newSweepCmd(a),
		newRunsCmd(a),
		newDiagnosticsCmd(a),
		newExportCmd(a),
	)
	return root, a
}

func (a *app) open(cmd *cobra.Command) error {
	level, err := logging.ParseLevel(a.opts.logLevel)
	if err != nil {
		return err
	}
	a.logger = logging.NewWithWriter(cmd.ErrOrStderr(), level)

	var collector *metrics.Collector
	if a.opts.metricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		collector = metrics.NewCollector(reg)
		a.serveMetrics(reg)
	}

	client, err := chimeraapi.New(chimeraapi.Options{
		StoreKind:     a.opts.storeKind,
		DBPath:        a.opts.dbPath,
		RedisAddr:     a.opts.redisAddr,
		RedisPassword: a.opts.redisPassword,
		RedisDB:       a.opts.redisDB,
		RedisPrefix:   a.opts.redisPrefix,
		ArtifactsDir:  a.opts.artifactsDir,
		ExportsDir:    a.opts.exportsDir,
		Logger:        a.logger,
		Metrics:       collector,
	})
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) serveMetrics(reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	a.metricsServer = &http.Server{
		Addr:              a.opts.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		a.logger.Info("metrics server listening", "addr", a.opts.metricsAddr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", "error", err)
		}
	}()
}

func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		errs = append(errs, a.metricsServer.Shutdown(shutdownCtx))
	}
	if a.client != nil {
		errs = append(errs, a.client.Close())
	}
	return errors.Join(errs...)
}
