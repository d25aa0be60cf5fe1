// Package main runs the canonical pub/sub walkthrough: a publisher actor
// emits a series of integers and a terminate sentinel, a subscriber actor
// consumes until it sees the sentinel. Both actors live in this process and
// exchange events over the in-memory transport by default, or over ZeroMQ
// with -transport zmq.
//
// With -config the topology is loaded from a YAML file onto a single actor
// instead, which is then booted and kept alive until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ilpomo/open-core/actor"
	"github.com/ilpomo/open-core/config"
	"github.com/ilpomo/open-core/metric"
	"github.com/ilpomo/open-core/runner"
	"github.com/ilpomo/open-core/transport"
	"github.com/ilpomo/open-core/transport/mem"
	"github.com/ilpomo/open-core/transport/zeromq"
)

const appName = "pubsub"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("application failed", "app", appName, "error", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    = flag.String("config", "", "YAML topology file; runs a single declared actor instead of the demo")
		transportName = flag.String("transport", "mem", "transport to exchange events over: mem or zmq")
		count         = flag.Int("count", 10, "number of events the demo publisher emits")
		throttle      = flag.Duration("throttle", 50*time.Millisecond, "delay between demo emissions")
		metricsAddr   = flag.String("metrics", "", "address to serve Prometheus metrics on, e.g. :9102")
		logLevel      = flag.String("log-level", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	logger, err := newLogger(*logLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	metrics := metric.NewMetricsRegistry()
	if *metricsAddr != "" {
		go serveMetrics(*metricsAddr, metrics, logger)
	}

	factory, err := selectFactory(*transportName)
	if err != nil {
		return err
	}

	if *configPath != "" {
		return runDeclared(*configPath, factory, logger, metrics.CoreMetrics())
	}
	return runDemo(factory, logger, metrics.CoreMetrics(), *count, *throttle)
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func serveMetrics(addr string, metrics *metric.MetricsRegistry, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.PrometheusRegistry(), promhttp.HandlerOpts{}))
	logger.Info("serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server failed", "error", err)
	}
}

func selectFactory(name string) (transport.Factory, error) {
	switch name {
	case "mem":
		// One shared context so both demo actors see the same endpoints.
		shared := mem.NewContext()
		return func() (transport.Context, error) { return shared, nil }, nil
	case "zmq":
		return zeromq.Factory, nil
	}
	return nil, fmt.Errorf("unknown transport %q", name)
}

// runDeclared builds the topology from the YAML file on one actor and keeps
// it booted until the process is interrupted.
func runDeclared(path string, factory transport.Factory, logger *slog.Logger, metrics *metric.Metrics) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	a, err := cfg.NewActor(
		actor.WithFactory(factory),
		actor.WithLogger(logger),
		actor.WithMetrics(metrics))
	if err != nil {
		return err
	}

	logger.Info("topology applied", "actor", a.Name(), "managers", a.Managers())

	return runner.Run(context.Background(), a, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
}

// runDemo wires a publisher and a subscriber actor and runs them side by
// side until the terminate sentinel has made the round trip.
func runDemo(factory transport.Factory, logger *slog.Logger, metrics *metric.Metrics, count int, throttle time.Duration) error {
	publisher := actor.New(
		actor.WithName("publisher"),
		actor.WithFactory(factory),
		actor.WithLogger(logger),
		actor.WithMetrics(metrics))
	subscriber := actor.New(
		actor.WithName("subscriber"),
		actor.WithFactory(factory),
		actor.WithLogger(logger),
		actor.WithMetrics(metrics))

	pub, err := publisher.CreatePub("pub")
	if err != nil {
		return err
	}
	if err := pub.BindIPC("pubsub-demo"); err != nil {
		return err
	}

	sub, err := subscriber.CreateSub("sub")
	if err != nil {
		return err
	}
	if err := sub.Subscribe([]byte{}); err != nil {
		return err
	}
	if err := sub.ConnectIPC("pubsub-demo"); err != nil {
		return err
	}

	topic := []byte{}

	var group runner.Group
	group.Add(publisher, func(ctx context.Context) error {
		// Give the subscriber a moment to establish the connection, or the
		// first events can be lost to the pub/sub slow-joiner window.
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}

		for i := 0; i < count; i++ {
			logger.Info("emitting event", "actor", publisher.Name(), "message", i)
			if err := publisher.EmitMsgpack("pub", topic, i); err != nil {
				return err
			}
			select {
			case <-time.After(throttle):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		logger.Info("emitting termination event", "actor", publisher.Name())
		return publisher.EmitMsgpack("pub", topic, "terminate")
	})
	group.Add(subscriber, func(ctx context.Context) error {
		for {
			msg, err := subscriber.RecvMsgpack(ctx, "sub")
			if err != nil {
				return err
			}
			if msg == "terminate" {
				logger.Info("received termination event", "actor", subscriber.Name())
				return nil
			}
			logger.Info("received event", "actor", subscriber.Name(), "message", msg)
		}
	})

	return group.Run(context.Background())
}
