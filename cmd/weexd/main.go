// Command weexd is the weex ingestion daemon: it runs a station driver,
// rolls its packets up into fixed-length archive intervals, serves a
// small HTTP API (health, metrics, current/history reads, vendor station
// uploads), and persists both raw packets and archive records to the
// configured sinks. Grounded on
// original_source/crates/weex-daemon/src/main.rs's bootstrap sequence.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ask-23/weex/internal/archive"
	"github.com/ask-23/weex/internal/config"
	"github.com/ask-23/weex/internal/httpapi"
	"github.com/ask-23/weex/internal/ingest"
	"github.com/ask-23/weex/internal/livestate"
	"github.com/ask-23/weex/internal/packet"
	"github.com/ask-23/weex/internal/scheduler"
	"github.com/ask-23/weex/internal/sinks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("weexd: load config: %w", err)
	}

	log := newLogger(cfg.LogLevel)
	log.Infof("starting weex daemon, driver=%s archive_interval=%ds unit_system=%d",
		cfg.StationDriver, cfg.ArchiveInterval, cfg.UnitSystem)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := buildSinks(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("weexd: build sinks: %w", err)
	}
	defer sink.Close()

	state := livestate.New(prometheus.DefaultRegisterer)

	now := func() int64 { return time.Now().Unix() }
	agg := archive.New(cfg.ArchiveInterval, cfg.UnitSystem, sink, now, log)

	registry := ingest.NewRegistry()
	registry.Register("simulator", func() ingest.StationDriver {
		return ingest.NewSimulator(cfg.File.Station.ID, cfg.ArchiveInterval, cfg.PollInterval, cfg.UnitSystem)
	})
	registry.Register("interceptor", func() ingest.StationDriver {
		return ingest.NewUDPDriver(cfg.UDPListenAddr, log)
	})

	driver, err := registry.Create(cfg.StationDriver)
	if err != nil {
		return fmt.Errorf("weexd: unknown driver %q: %w", cfg.StationDriver, err)
	}

	sched := scheduler.New(driver, agg, state, sink, log)

	ingestor := &liveIngestor{state: state, agg: agg, sink: sink, log: log}
	server := httpapi.New(state, ingestor, log)
	httpServer := &http.Server{
		Addr:    cfg.File.HTTPBind(),
		Handler: server.Handler(),
	}

	group, gctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Infof("http: listening on %s", httpServer.Addr)
		state.SetReady(true)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return sched.Run(gctx)
	})

	group.Go(func() error {
		<-gctx.Done()
		state.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warnf("weexd: http shutdown: %v", err)
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("weexd: %w", err)
	}
	log.Infof("weex daemon stopped")
	return nil
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// liveIngestor adapts vendor HTTP uploads onto the same two destinations
// the driver-sourced pull loop feeds: live state and the archive
// aggregator, plus any configured packet sinks.
type liveIngestor struct {
	state *livestate.State
	agg   *archive.Aggregator
	sink  *sinks.Fanout
	log   httpapi.Logger
}

func (i *liveIngestor) IngestPacket(pkt packet.WeatherPacket) error {
	i.state.Inject(pkt)
	ctx := context.Background()
	if err := i.agg.AddPacket(ctx, pkt); err != nil {
		i.log.Errorf("weexd: aggregator error: %v", err)
	}
	if err := i.sink.EmitPacket(ctx, pkt); err != nil {
		i.log.Warnf("weexd: packet sink error: %v", err)
	}
	return nil
}

func buildSinks(ctx context.Context, cfg config.Config, log *logrus.Logger) (*sinks.Fanout, error) {
	var packetSinks []sinks.PacketSink
	var archiveSinks []sinks.ArchiveSink

	if path := cfg.File.Sinks.Filesystem.Path; path != "" {
		fsSink, err := sinks.NewFilesystemSink(path)
		if err != nil {
			return nil, err
		}
		packetSinks = append(packetSinks, fsSink)
	}

	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = cfg.File.Sinks.Postgres.DSN
	}
	if dsn != "" {
		pgSink, err := sinks.NewPostgresSink(ctx, dsn)
		if err != nil {
			return nil, err
		}
		archiveSinks = append(archiveSinks, pgSink)
	}

	if path := cfg.File.Sinks.SQLite.Path; path != "" {
		sqliteSink, err := sinks.NewSQLiteSink(path)
		if err != nil {
			return nil, err
		}
		archiveSinks = append(archiveSinks, sqliteSink)
	}

	if ic := cfg.File.Sinks.Influx; ic.URL != "" {
		influxSink, err := sinks.NewLineProtocolSink(ic.URL, ic.Org, ic.Bucket, ic.Token)
		if err != nil {
			return nil, err
		}
		packetSinks = append(packetSinks, influxSink)
	}

	if len(packetSinks) == 0 && len(archiveSinks) == 0 {
		log.Warnf("weexd: no sinks configured; packets and archive records will be discarded")
	}

	return sinks.NewFanout(packetSinks, archiveSinks, log), nil
}
