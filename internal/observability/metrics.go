// Package observability implements C11: structured health checks and an
// in-process Prometheus-style metrics registry for the completion gateway.
// There is no external metrics dependency here by design — this mirrors the
// hand-rolled counter/gauge/histogram primitives the rest of this codebase
// already used for its own metrics surface, rather than introducing a
// client library for a handful of series.
package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain"
	"github.com/yungbote/neurobridge-backend/internal/platform/logger"
)

// Metrics is the process-wide registry. A nil *Metrics is valid everywhere
// its methods are called (every method nil-checks itself), so components
// can be handed a nil registry in tests without special-casing it.
type Metrics struct {
	apiRequests   *CounterVec
	apiLatency    *HistogramVec
	apiInflight   *Gauge
	apiReqTotal   *Counter
	apiReqError   *Counter
	completionTotal *Counter
	completionBad   *Counter
	completions   *CounterVec
	completionDur *HistogramVec
	upstreamErr   *Counter
	cacheHits     *Counter
	cacheMisses   *Counter
	cacheEvicted  *Counter
	rateLimited   *CounterVec
	taskRuns      *CounterVec
	taskDur       *HistogramVec
	taskQueueLag  *GaugeVec
	pgStats       *GaugeVec
	redisUp       *Gauge
	redisPing     *Gauge

	sloCompliance *GaugeVec
	sloBudget     *GaugeVec
	sloBurn       *GaugeVec
}

func New() *Metrics {
	return &Metrics{
		apiRequests: NewCounterVec("gateway_api_requests_total", "HTTP requests by route and status.", []string{"method", "route", "status"}),
		apiLatency:  NewHistogramVec("gateway_api_request_duration_seconds", "HTTP request latency.", []string{"method", "route"}, nil),
		apiInflight: NewGauge("gateway_api_inflight", "In-flight HTTP requests."),
		apiReqTotal: NewCounter("gateway_api_requests_rolling_total", "Rolling total HTTP requests, read by the SLO evaluator."),
		apiReqError: NewCounter("gateway_api_requests_rolling_errors", "Rolling 5xx HTTP requests, read by the SLO evaluator."),

		completionTotal: NewCounter("gateway_completions_rolling_total", "Rolling total completions, read by the SLO evaluator."),
		completionBad:   NewCounter("gateway_completions_rolling_bad", "Rolling non-successful completions, read by the SLO evaluator."),

		completions:   NewCounterVec("gateway_completions_total", "Completions by terminal state.", []string{"state"}),
		completionDur: NewHistogramVec("gateway_completion_duration_seconds", "End-to-end completion duration.", nil, []float64{0.25, 0.5, 1, 2, 5, 10, 20, 45}),
		upstreamErr:   NewCounter("gateway_upstream_errors_total", "Upstream LLM stream errors."),

		cacheHits:    NewCounter("gateway_user_cache_hits_total", "User cache hits."),
		cacheMisses:  NewCounter("gateway_user_cache_misses_total", "User cache misses."),
		cacheEvicted: NewCounter("gateway_user_cache_evictions_total", "User cache TTL evictions."),

		rateLimited: NewCounterVec("gateway_rate_limited_total", "Completions rejected by the rate limiter.", []string{"scope"}),

		taskRuns:     NewCounterVec("gateway_task_runs_total", "Inferred task runs by terminal status.", []string{"task_type", "status"}),
		taskDur:      NewHistogramVec("gateway_task_run_duration_seconds", "Inferred task run duration.", nil, nil),
		taskQueueLag: NewGaugeVec("gateway_task_queue_depth", "Tasks by status.", []string{"status"}),

		pgStats:   NewGaugeVec("gateway_postgres_pool", "database/sql pool stats.", []string{"stat"}),
		redisUp:   NewGauge("gateway_redis_up", "1 if the last Redis ping succeeded."),
		redisPing: NewGauge("gateway_redis_ping_seconds", "Last Redis ping latency."),

		sloCompliance: NewGaugeVec("gateway_slo_compliance", "Rolling-window SLI for each tracked SLO.", []string{"slo", "window"}),
		sloBudget:     NewGaugeVec("gateway_slo_error_budget_remaining", "Remaining error budget fraction.", []string{"slo", "window"}),
		sloBurn:       NewGaugeVec("gateway_slo_burn_rate", "Error budget burn rate.", []string{"slo", "window"}),
	}
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.Inc(method, route, status)
	m.apiLatency.Observe(dur.Seconds(), method, route)
	m.apiReqTotal.Inc()
	if isServerErrorStatus(status) {
		m.apiReqError.Inc()
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

// ObserveCompletion records one finished Run call, keyed by its terminal
// completion.State.
func (m *Metrics) ObserveCompletion(state string, dur time.Duration) {
	if m == nil {
		return
	}
	m.completions.Inc(state)
	m.completionDur.Observe(dur.Seconds())
	m.completionTotal.Inc()
	if state != "done" {
		m.completionBad.Inc()
	}
}

func (m *Metrics) IncUpstreamError() {
	if m == nil {
		return
	}
	m.upstreamErr.Inc()
}

// ObserveCacheStats mirrors a cache.Stats snapshot into counters. Called
// periodically rather than per-access, since Stats() already accumulates.
func (m *Metrics) ObserveCacheStats(hits, misses, evicted int64) {
	if m == nil {
		return
	}
	m.cacheHits.Add(float64(hits) - m.cacheHits.Value())
	m.cacheMisses.Add(float64(misses) - m.cacheMisses.Value())
	m.cacheEvicted.Add(float64(evicted) - m.cacheEvicted.Value())
}

func (m *Metrics) IncRateLimited(scope string) {
	if m == nil {
		return
	}
	m.rateLimited.Inc(scope)
}

func (m *Metrics) ObserveTaskRun(taskType, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.taskRuns.Inc(taskType, status)
	m.taskDur.Observe(dur.Seconds())
}

// StartCacheCollector periodically snapshots a user cache's Stats() into
// the registry. statsFn is the cache's Stats method, passed as a func to
// avoid an import cycle between observability and cache.
func (m *Metrics) StartCacheCollector(ctx context.Context, statsFn func() (hits, misses, evicted int64)) {
	if m == nil || statsFn == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				hits, misses, evicted := statsFn()
				m.ObserveCacheStats(hits, misses, evicted)
			}
		}
	}()
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.Set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.Set(float64(stats.InUse), "in_use")
				m.pgStats.Set(float64(stats.Idle), "idle")
				m.pgStats.Set(float64(stats.WaitCount), "wait_count")
				m.pgStats.Set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr})
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = rdb.Close()
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}

// StartTaskQueueCollector polls the tasks table's status distribution.
func (m *Metrics) StartTaskQueueCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	statuses := []string{"queued", "processing", "completed", "failed"}
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range statuses {
					m.taskQueueLag.Set(0, s)
				}
				var rows []struct {
					Status string
					Count  int64
				}
				if err := db.WithContext(ctx).
					Model(&domain.Task{}).
					Select("status, count(*) as count").
					Group("status").
					Scan(&rows).Error; err != nil {
					if log != nil {
						log.Warn("metrics: task queue depth query failed", "error", err)
					}
					continue
				}
				for _, row := range rows {
					status := strings.TrimSpace(row.Status)
					if status == "" {
						status = "unknown"
					}
					m.taskQueueLag.Set(float64(row.Count), status)
				}
			}
		}
	}()
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           http.HandlerFunc(m.WriteHTTP),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	writers := []interface{ WritePrometheus(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.completions, m.completionDur, m.upstreamErr,
		m.cacheHits, m.cacheMisses, m.cacheEvicted,
		m.rateLimited, m.taskRuns, m.taskDur, m.taskQueueLag,
		m.pgStats, m.redisUp, m.redisPing,
		m.sloCompliance, m.sloBudget, m.sloBurn,
	}
	for _, wr := range writers {
		if err := wr.WritePrometheus(w); err != nil {
			return err
		}
	}
	return nil
}

// ---- lightweight metric primitives (Prometheus exposition) ----

type CounterVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewCounterVec(name, help string, labels []string) *CounterVec {
	return &CounterVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (c *CounterVec) Inc(values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl]++
	c.mu.Unlock()
}

func (c *CounterVec) Add(v float64, values ...string) {
	if c == nil {
		return
	}
	lbl := labelString(c.labelNames, values)
	c.mu.Lock()
	c.values[lbl] += v
	c.mu.Unlock()
}

func (c *CounterVec) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", c.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type Counter struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewCounter(name, help string) *Counter {
	return &Counter{name: name, help: help}
}

func (c *Counter) Inc() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val++
	c.mu.Unlock()
}

func (c *Counter) Add(v float64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.val += v
	c.mu.Unlock()
}

func (c *Counter) Value() float64 {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val
}

func (c *Counter) WritePrometheus(w io.Writer) error {
	if c == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", c.name, c.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s counter\n", c.name); err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", c.name, c.val)
	return err
}

type Gauge struct {
	name string
	help string
	mu   sync.RWMutex
	val  float64
}

func NewGauge(name, help string) *Gauge {
	return &Gauge{name: name, help: help}
}

func (g *Gauge) Set(v float64) {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val = v
	g.mu.Unlock()
}

func (g *Gauge) Inc() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val++
	g.mu.Unlock()
}

func (g *Gauge) Dec() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.val--
	g.mu.Unlock()
}

func (g *Gauge) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, err := fmt.Fprintf(w, "%s %f\n", g.name, g.val)
	return err
}

type GaugeVec struct {
	name       string
	help       string
	labelNames []string
	mu         sync.RWMutex
	values     map[string]float64
}

func NewGaugeVec(name, help string, labels []string) *GaugeVec {
	return &GaugeVec{name: name, help: help, labelNames: labels, values: map[string]float64{}}
}

func (g *GaugeVec) Set(v float64, values ...string) {
	if g == nil {
		return
	}
	lbl := labelString(g.labelNames, values)
	g.mu.Lock()
	g.values[lbl] = v
	g.mu.Unlock()
}

func (g *GaugeVec) WritePrometheus(w io.Writer) error {
	if g == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", g.name, g.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s gauge\n", g.name); err != nil {
		return err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	for k, v := range g.values {
		if _, err := fmt.Fprintf(w, "%s%s %f\n", g.name, k, v); err != nil {
			return err
		}
	}
	return nil
}

type HistogramVec struct {
	name       string
	help       string
	labelNames []string
	buckets    []float64
	mu         sync.RWMutex
	values     map[string]*histogram
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	total   uint64
}

func NewHistogramVec(name, help string, labels []string, buckets []float64) *HistogramVec {
	if len(buckets) == 0 {
		buckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5}
	}
	return &HistogramVec{name: name, help: help, labelNames: labels, buckets: buckets, values: map[string]*histogram{}}
}

func (h *HistogramVec) Observe(v float64, values ...string) {
	if h == nil {
		return
	}
	lbl := labelString(h.labelNames, values)
	h.mu.Lock()
	defer h.mu.Unlock()
	hist, ok := h.values[lbl]
	if !ok {
		hist = &histogram{
			buckets: h.buckets,
			counts:  make([]uint64, len(h.buckets)+1),
		}
		h.values[lbl] = hist
	}
	hist.sum += v
	hist.total++
	for i, b := range hist.buckets {
		if v <= b {
			hist.counts[i]++
		}
	}
	hist.counts[len(hist.counts)-1]++
}

func (h *HistogramVec) WritePrometheus(w io.Writer) error {
	if h == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n", h.name, h.help); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "# TYPE %s histogram\n", h.name); err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for k, v := range h.values {
		for i, b := range v.buckets {
			if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, fmt.Sprintf("%g", b)), v.counts[i]); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s_bucket%s %d\n", h.name, withLe(k, "+Inf"), v.counts[len(v.counts)-1]); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_sum%s %f\n", h.name, k, v.sum); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s_count%s %d\n", h.name, k, v.total); err != nil {
			return err
		}
	}
	return nil
}

func labelString(names []string, values []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	for i, name := range names {
		if i > 0 {
			b.WriteString(",")
		}
		val := "unknown"
		if i < len(values) {
			val = values[i]
		}
		b.WriteString(name)
		b.WriteString("=\"")
		b.WriteString(escapeLabel(val))
		b.WriteString("\"")
	}
	b.WriteString("}")
	return b.String()
}

func escapeLabel(v string) string {
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, "\\", "\\\\")
	v = strings.ReplaceAll(v, "\"", "\\\"")
	v = strings.ReplaceAll(v, "\n", "\\n")
	return v
}

func isServerErrorStatus(status string) bool {
	status = strings.TrimSpace(status)
	if len(status) < 3 {
		return false
	}
	return status[0] == '5'
}

func withLe(labels string, le string) string {
	le = escapeLabel(le)
	if labels == "" || labels == "{}" {
		return "{le=\"" + le + "\"}"
	}
	if strings.HasSuffix(labels, "}") {
		return strings.TrimSuffix(labels, "}") + ",le=\"" + le + "\"}"
	}
	return "{le=\"" + le + "\"}"
}
