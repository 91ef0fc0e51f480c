// Package app wires the configuration into a running service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apidispatch "github.com/mucollege/dispatchtrack/api/dispatch"
	"github.com/mucollege/dispatchtrack/config"
	"github.com/mucollege/dispatchtrack/core/events"
	"github.com/mucollege/dispatchtrack/core/ingest"
	coremetrics "github.com/mucollege/dispatchtrack/core/metrics"
	"github.com/mucollege/dispatchtrack/core/reconcile"
	"github.com/mucollege/dispatchtrack/core/view"
	"github.com/mucollege/dispatchtrack/core/workflow"
	"github.com/mucollege/dispatchtrack/infra/logger"
	"github.com/mucollege/dispatchtrack/infra/metrics"
	"github.com/mucollege/dispatchtrack/infra/mqtt"
	"github.com/mucollege/dispatchtrack/infra/refstore"
	"github.com/mucollege/dispatchtrack/internal/eventbus"
)

// Service orchestrates the tracking engine, the API server and the outbound
// connectors.
type Service struct {
	Engine   *view.Engine
	Pipeline *ingest.Pipeline

	handler   *apidispatch.Handler
	bus       eventbus.EventBus
	publisher mqtt.Publisher
	log       logger.Logger
	cfg       *config.Config
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	client := refstore.New(cfg.Store, logger.New("refstore"))
	bus := eventbus.New()
	fetcher := reconcile.NewFetcher(client, client, logger.New("reconcile"))
	engine := view.NewEngine(fetcher, sink, logger.New("view"))
	pipeline := ingest.New(client, client, sink, bus, logger.New("ingest"))
	factory := func() *workflow.Session {
		return workflow.NewSession(client, sink, bus, logger.New("workflow"))
	}
	handler := apidispatch.NewHandler(engine, pipeline, factory, cfg.API.Token, logger.New("api"))

	svc := &Service{
		Engine:   engine,
		Pipeline: pipeline,
		handler:  handler,
		bus:      bus,
		log:      logg,
		cfg:      cfg,
	}
	if cfg.MQTT.Enabled {
		pub, err := mqtt.NewPahoPublisher(cfg.MQTT)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
		svc.publisher = pub
	}
	return svc, nil
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.publisher != nil {
		go s.forwardCompletions(ctx)
	}

	srv := &http.Server{Addr: s.cfg.API.Addr, Handler: s.handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.API.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// forwardCompletions relays completion events from the bus to MQTT.
func (s *Service) forwardCompletions(ctx context.Context) {
	sub := s.bus.Subscribe()
	defer s.bus.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub:
			if !ok {
				return
			}
			if completed, isCompletion := ev.(events.DispatchCompleted); isCompletion {
				if err := s.publisher.PublishCompletion(completed); err != nil {
					s.log.Errorf("publish completion: %v", err)
				}
			}
		}
	}
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.bus.Close()
	if s.publisher != nil {
		s.publisher.Close()
	}
	return nil
}
