package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"identhub/internal/app"
	"identhub/internal/audit"
	auditkafka "identhub/internal/audit/kafka"
	"identhub/internal/hub"
	"identhub/internal/modules"
	"identhub/internal/platform/httpserver"
	"identhub/internal/platform/mainloop"
	"identhub/internal/platform/metrics"
	"identhub/internal/storage"
	httptransport "identhub/internal/transport/http"
	"identhub/internal/verification"
)

const auditBuffer = 1024

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session API for remote renderers",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides IDENTHUB_ADDR")
	return cmd
}

func serve(ctx context.Context) error {
	backend, err := storage.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	if c, ok := backend.(storage.Closer); ok {
		defer c.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sink, closeSink, err := auditSink()
	if err != nil {
		return err
	}
	defer closeSink()
	publisher := audit.NewPublisher(auditBuffer, audit.WithLogger(log))
	worker := audit.NewWorker(sink, publisher.Inbox(), log)

	loop := mainloop.New(log)
	opts := []hub.Option{
		hub.WithBackend(backend),
		hub.WithMetrics(m),
		hub.WithAudit(publisher),
		hub.WithSettings(app.SettingsFrom(cfg.Flow)),
		hub.WithModules(modules.ParseSet(cfg.Modules)),
		hub.WithClientOptions(verification.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout})),
	}
	if cfg.Backend.BaseURL != "" {
		opts = append(opts, hub.WithBaseURL(cfg.Backend.BaseURL))
	}
	handler := httptransport.NewSessionHandler(ctx, loop, hub.DefaultRegistry, log, opts...)
	srv := httpserver.New(cfg.Server.Addr, httptransport.NewRouter(handler, reg, log))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(loop.Run(gctx)) })
	g.Go(func() error { return ignoreCanceled(worker.Run(gctx)) })
	g.Go(func() error {
		defer publisher.Close()
		return httpserver.Serve(gctx, srv, log)
	})
	return g.Wait()
}

// auditSink publishes to Kafka when brokers are configured and keeps events in
// memory otherwise.
func auditSink() (audit.Sink, func(), error) {
	if len(cfg.Audit.KafkaBrokers) == 0 {
		log.Info("audit events kept in memory")
		return audit.NewMemorySink(), func() {}, nil
	}
	sink, err := auditkafka.New(cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
	if err != nil {
		return nil, nil, err
	}
	log.Info("audit events published to kafka", "topic", cfg.Audit.KafkaTopic)
	return sink, sink.Close, nil
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
