package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SignalDesk/internal/model"
)

// Metrics holds the Prometheus collectors for signal evaluation.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	EvaluationsTotal *prometheus.CounterVec // labels: interval, signal
	ADXFallbacks     prometheus.Counter
	FetchErrors      *prometheus.CounterVec // labels: source
	CacheLookups     *prometheus.CounterVec // labels: result=hit|miss|error
	AnalyzeDur       prometheus.Histogram
	LastConfidence   *prometheus.GaugeVec // labels: asset, interval
}

// NewMetrics creates and registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EvaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_evaluations_total",
			Help: "Signal evaluations by interval and resulting signal",
		}, []string{"interval", "signal"}),
		ADXFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signaldesk_adx_fallbacks_total",
			Help: "Enrichments where ADX failed and was defaulted to 0",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_fetch_errors_total",
			Help: "Bar fetch failures by data source",
		}, []string{"source"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signaldesk_cache_lookups_total",
			Help: "Bar cache lookups by result",
		}, []string{"result"}),
		AnalyzeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signaldesk_analyze_duration_seconds",
			Help:    "Fetch, enrich and score latency per asset",
			Buckets: prometheus.DefBuckets,
		}),
		LastConfidence: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "signaldesk_last_confidence",
			Help: "Confidence of the most recent signal per asset",
		}, []string{"asset", "interval"}),
	}

	reg.MustRegister(
		m.EvaluationsTotal,
		m.ADXFallbacks,
		m.FetchErrors,
		m.CacheLookups,
		m.AnalyzeDur,
		m.LastConfidence,
	)
	return m
}

// ObserveAnalysis records one completed evaluation.
func (m *Metrics) ObserveAnalysis(a *model.Analysis, took time.Duration) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(a.Interval, string(a.Result.Signal)).Inc()
	m.LastConfidence.WithLabelValues(a.Asset, a.Interval).Set(float64(a.Result.Confidence))
	m.AnalyzeDur.Observe(took.Seconds())
	if a.Series != nil && a.Series.ADXFallback {
		m.ADXFallbacks.Inc()
	}
}

// ObserveFetchError counts a failed fetch from source.
func (m *Metrics) ObserveFetchError(source string) {
	if m == nil {
		return
	}
	m.FetchErrors.WithLabelValues(source).Inc()
}

// ObserveCache counts a cache lookup outcome.
func (m *Metrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// HealthStatus tracks the last successful sweep for /healthz.
type HealthStatus struct {
	mu         sync.RWMutex
	StartedAt  time.Time
	LastSweep  time.Time
	LastErrors int
	Source     string
}

func NewHealthStatus(source string) *HealthStatus {
	return &HealthStatus{StartedAt: time.Now(), Source: source}
}

// MarkSweep records the end of an evaluation sweep.
func (h *HealthStatus) MarkSweep(at time.Time, failures int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastSweep = at
	h.LastErrors = failures
}

func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.LastErrors > 0 {
		status = "degraded"
	}

	lastSweep := ""
	if !h.LastSweep.IsZero() {
		lastSweep = h.LastSweep.Format(time.RFC3339)
	}

	body := struct {
		Status     string `json:"status"`
		Uptime     string `json:"uptime"`
		Source     string `json:"source"`
		LastSweep  string `json:"last_sweep"`
		LastErrors int    `json:"last_errors"`
	}{
		Status:     status,
		Uptime:     time.Since(h.StartedAt).Round(time.Second).String(),
		Source:     h.Source,
		LastSweep:  lastSweep,
		LastErrors: h.LastErrors,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(body)
}

// Server exposes /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server. gatherer is usually prometheus.DefaultGatherer.
func NewServer(addr string, gatherer prometheus.Gatherer, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

// Handler returns the server mux, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
