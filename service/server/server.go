package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/txplain/txplain/service/config"
	"github.com/txplain/txplain/service/explain"
	"github.com/txplain/txplain/service/metrics"
	"github.com/txplain/txplain/service/nats"
	"github.com/txplain/txplain/service/solana"
)

// Ledger is the slice of the Solana client the server needs.
type Ledger interface {
	GetTransaction(ctx context.Context, signature solanago.Signature) (*solana.TransactionRecord, error)
}

// Explainer turns a fetched transaction record into a full explanation.
type Explainer interface {
	Explain(ctx context.Context, record *solana.TransactionRecord) *explain.Result
}

// Server represents the HTTP server for the transaction explanation service.
type Server struct {
	addr      string
	cfg       *config.Config
	ledger    Ledger
	explainer Explainer
	publisher nats.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	server    *http.Server
}

// New creates a new HTTP server with the given dependencies.
// The publisher is optional - if nil, analysis events won't be published.
// The metrics is optional - if nil, the metrics endpoint won't be available.
func New(addr string, cfg *config.Config, ledger Ledger, explainer Explainer, publisher nats.Publisher, m *metrics.Metrics, logger *slog.Logger) *Server {
	return &Server{
		addr:      addr,
		cfg:       cfg,
		ledger:    ledger,
		explainer: explainer,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
	}
}

// routes builds the request mux. Split out from Start so tests can exercise
// the full routing and middleware stack with httptest.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	// Analysis routes
	withMetrics := metrics.HTTPMetricsMiddleware(s.metrics, "/api/v1/analyze")
	mux.Handle("POST /api/v1/analyze", withMetrics(handleAnalyze(s.cfg, s.ledger, s.explainer, s.publisher, s.logger)))
	mux.Handle("GET /api/v1/analyze", withMetrics(handleServiceInfo(s.cfg)))

	// Health check endpoint
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus metrics endpoint (if metrics collector is configured)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return corsMiddleware(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // analysis waits on RPC and generation calls
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting HTTP server", "addr", s.addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// corsMiddleware adds CORS headers to all responses and handles OPTIONS preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
