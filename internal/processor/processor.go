// Package processor wires the age filter into a running pipeline:
// limit refresher, HTTP ingest, worker pool, and Kafka output.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agegate/internal/config"
	"agegate/internal/event"
	"agegate/internal/filter"
	"agegate/internal/handlers"
	"agegate/internal/jsonpath"
	"agegate/internal/kafka"
	"agegate/internal/limit"
	"agegate/internal/logger"
	"agegate/internal/metrics"
	"agegate/internal/middleware"
	"agegate/internal/worker"
)

// Processor is the high-level coordinator for ingesting, annotating, and
// forwarding events.
type Processor struct {
	cfg        *config.Config
	refresher  *limit.Refresher
	producer   *kafka.Producer
	workerPool *worker.Pool
	httpServer *http.Server
	recordChan chan *event.Record
	wg         sync.WaitGroup
}

// New constructs a Processor with given config.
func New(cfg *config.Config) *Processor {
	return &Processor{
		cfg:        cfg,
		recordChan: make(chan *event.Record, cfg.QueueSize),
	}
}

// Run starts background goroutines and blocks until context cancelled.
func (p *Processor) Run(ctx context.Context) error {
	log := logger.WithComponent("processor")
	log.Info().Msg("processor starting")

	// The limit must be published before the first event is accepted.
	// Start performs the initial fetch synchronously.
	p.initRefresher()
	p.refresher.Start(ctx)

	if err := p.initProducer(); err != nil {
		log.Error().Err(err).Msg("failed to initialize producer")
		return fmt.Errorf("failed to initialize producer: %w", err)
	}

	p.initWorkerPool()
	p.workerPool.Start()

	p.initHTTPServer()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Info().Str("addr", p.cfg.ListenAddr).Msg("starting HTTP server")
		if err := p.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.reportStats(ctx)
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	return p.shutdown()
}

// initRefresher builds the limit refresher from config. An empty URL
// disables remote refresh and pins the static limit.
func (p *Processor) initRefresher() {
	log := logger.WithComponent("processor")

	var fetcher *limit.Fetcher
	if p.cfg.URL != "" {
		fetcher = limit.NewFetcher(limit.FetcherConfig{
			URL:      p.cfg.URL,
			Username: p.cfg.Username,
			Password: p.cfg.Password,
			Timeout:  p.cfg.RequestTimeout,
			Keys:     jsonpath.Split(p.cfg.LimitPath),
			Fallback: p.cfg.MaxAgeSecs,
		})
		log.Info().
			Str("url", p.cfg.URL).
			Str("limit_path", p.cfg.LimitPath).
			Dur("interval", p.cfg.Interval).
			Msg("remote limit refresh configured")
	}

	p.refresher = limit.NewRefresher(limit.RefresherConfig{
		Fetcher:  fetcher,
		Fallback: p.cfg.MaxAgeSecs,
		Interval: p.cfg.Interval,
	})
}

// initProducer initializes the Kafka producer
func (p *Processor) initProducer() error {
	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      p.cfg.KafkaBrokers,
		Topic:        p.cfg.KafkaTopic,
		BatchSize:    p.cfg.BatchSize,
		BatchTimeout: p.cfg.BatchTimeout,
		WriteTimeout: 10 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
	})
	if err != nil {
		return err
	}

	p.producer = producer
	log := logger.WithComponent("processor")
	log.Info().
		Strs("brokers", p.cfg.KafkaBrokers).
		Str("topic", p.cfg.KafkaTopic).
		Msg("kafka producer initialized")
	return nil
}

// initWorkerPool initializes the worker pool with the age filter
func (p *Processor) initWorkerPool() {
	ageFilter := filter.New(filter.Config{
		Limits:         p.refresher,
		Target:         p.cfg.Target,
		ExpiredTarget:  p.cfg.ExpiredTarget,
		AgeLimitTarget: p.cfg.AgeLimitTarget,
	})

	p.workerPool = worker.NewPool(worker.Config{
		Publisher:    p.producer,
		Annotator:    ageFilter,
		RecordChan:   p.recordChan,
		Workers:      p.cfg.Workers,
		BatchSize:    p.cfg.BatchSize,
		BatchTimeout: p.cfg.BatchTimeout,
	})
	log := logger.WithComponent("processor")
	log.Info().
		Int("workers", p.cfg.Workers).
		Msg("worker pool initialized")
}

// initHTTPServer initializes the HTTP server with handlers
func (p *Processor) initHTTPServer() {
	mux := http.NewServeMux()

	ingestHandler := handlers.NewIngestHandler(handlers.IngestConfig{
		RecordChan: p.recordChan,
	})
	mux.Handle("/events", middleware.Chain(
		ingestHandler,
		middleware.Recovery,
		middleware.Logging,
		middleware.Auth,
	))

	mux.HandleFunc("/health", p.healthHandler)
	mux.HandleFunc("/limit", p.limitHandler)
	mux.Handle("/metrics", promhttp.Handler())

	metrics.WorkerQueueCapacity.Set(float64(cap(p.recordChan)))

	p.httpServer = &http.Server{
		Addr:         p.cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// shutdown performs graceful shutdown
func (p *Processor) shutdown() error {
	log := logger.WithComponent("processor")
	log.Info().Msg("initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().Msg("stopping HTTP server")
	if err := p.httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// No more incoming records; let workers drain.
	log.Info().Msg("closing record channel")
	close(p.recordChan)

	done := make(chan struct{})
	go func() {
		p.workerPool.Stop()
		close(done)
	}()

	select {
	case <-done:
		log.Info().Msg("workers stopped gracefully")
	case <-time.After(15 * time.Second):
		log.Warn().Msg("worker shutdown timeout - forcing exit")
	}

	log.Info().Msg("closing kafka producer")
	if err := p.producer.Close(); err != nil {
		log.Error().Err(err).Msg("producer close error")
	}

	p.wg.Wait()

	log.Info().Msg("processor stopped gracefully")
	return nil
}

// reportStats periodically logs statistics
func (p *Processor) reportStats(ctx context.Context) {
	log := logger.WithComponent("processor")
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			workerStats := p.workerPool.Stats()
			producerStats := p.producer.Stats()

			metrics.WorkerQueueSize.Set(float64(len(p.recordChan)))

			log.Info().
				Uint64("worker_processed", workerStats.Processed).
				Uint64("worker_failed", workerStats.Failed).
				Uint64("producer_sent", producerStats.Sent).
				Uint64("producer_failed", producerStats.Failed).
				Float64("age_limit", p.refresher.Current()).
				Int("queue_size", len(p.recordChan)).
				Msg("stats")
		}
	}
}

// healthHandler handles health check requests
func (p *Processor) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":"%s"}`, time.Now().Format(time.RFC3339))
}

// limitHandler reports the published limit and the last refresh outcome
func (p *Processor) limitHandler(w http.ResponseWriter, r *http.Request) {
	last := p.refresher.LastOutcome()

	resp := map[string]any{
		"limit_secs":   p.refresher.Current(),
		"last_outcome": last.Kind.String(),
	}
	if last.Err != nil {
		resp["last_error"] = last.Err.Error()
	}
	if last.StatusCode != 0 {
		resp["last_status"] = last.StatusCode
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
