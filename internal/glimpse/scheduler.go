package glimpse

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"
)

// shutdownGrace bounds how long Close waits for in-flight fetches before
// abandoning them.
const shutdownGrace = 5 * time.Second

// backoffStep is how many consecutive failures double the effective refresh
// interval.
const backoffStep = 3

// Manager owns all cache entries and runs one refresh loop per widget. It is
// the single writer of every entry; snapshot readers share the entries through
// the aggregator methods.
type Manager struct {
	widgets map[string]WidgetSpec
	pages   []PageSpec
	entries map[string]*cacheEntry

	store *payloadStore // nil when persistence is disabled
	stats *statsCollector

	staleMultiplier int
	backoffCap      int
	logStatsEvery   time.Duration

	// fetch and now are swappable for tests.
	fetch   func(ctx context.Context, spec WidgetSpec) (Payload, error)
	now     func() time.Time
	stagger func(max time.Duration) time.Duration

	skipLog *rateLimitedLogger

	// baseCtx stays live through the shutdown grace period so fetches that
	// finish in time can still land; cancel aborts the stragglers.
	baseCtx context.Context
	cancel  context.CancelFunc

	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewManager(cfg Config) (*Manager, error) {
	adapter := newSourceAdapter()
	ctx, cancel := context.WithCancel(context.Background())

	m := &Manager{
		widgets:         cfg.WidgetSpecs(),
		pages:           cfg.PageSpecs(),
		entries:         make(map[string]*cacheEntry, len(cfg.WidgetSpecs())),
		stats:           newStatsCollector(),
		staleMultiplier: cfg.Defaults.StaleMultiplier,
		backoffCap:      cfg.Defaults.BackoffCap,
		logStatsEvery:   cfg.Logging.logStatsEveryDur,
		fetch:           adapter.Fetch,
		now:             time.Now,
		stagger: func(max time.Duration) time.Duration {
			return time.Duration(rand.Int63n(int64(max)))
		},
		skipLog: newRateLimitedLogger(time.Minute),
		baseCtx: ctx,
		cancel:  cancel,
		stopCh:  make(chan struct{}),
	}

	for id := range m.widgets {
		m.entries[id] = &cacheEntry{}
	}

	if cfg.Storage.Path != "" {
		store, err := openPayloadStore(cfg.Storage.Path)
		if err != nil {
			cancel()
			return nil, err
		}
		m.store = store
		m.seedFromStore()
	}

	return m, nil
}

// seedFromStore warms entries with persisted payloads so a restart renders
// stale data instead of blank widgets. Payloads for widgets no longer in the
// config are ignored.
func (m *Manager) seedFromStore() {
	for id, rec := range m.store.LoadAll() {
		spec, ok := m.widgets[id]
		if !ok || rec.Payload.Shape != spec.Shape {
			continue
		}
		m.entries[id].seed(rec.Payload, time.Unix(0, rec.SuccessAt))
		slog.Info("warm-started widget from store", "widget", id, "saved_at", time.Unix(0, rec.SuccessAt))
	}
}

// Start launches one refresh loop per widget plus the optional stats loop.
func (m *Manager) Start() {
	for _, spec := range m.widgets {
		m.wg.Add(1)
		go m.refreshLoop(spec)
	}
	if m.logStatsEvery > 0 {
		m.wg.Add(1)
		go m.statsLoop()
	}
	slog.Info("scheduler started", "widgets", len(m.widgets), "pages", len(m.pages))
}

// Close stops all refresh loops, waits out the shutdown grace period for
// in-flight fetches, then abandons the rest.
func (m *Manager) Close() {
	close(m.stopCh)

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(shutdownGrace):
		slog.Warn("shutdown grace elapsed, abandoning in-flight fetches")
		m.cancel()
		<-done
	}
	m.cancel()

	if m.store != nil {
		m.store.close()
	}
}

func (m *Manager) refreshLoop(spec WidgetSpec) {
	defer m.wg.Done()
	entry := m.entries[spec.ID]

	// Staggered start so many widgets with the same interval do not all hit
	// their origins at once.
	select {
	case <-m.stopCh:
		return
	case <-time.After(m.stagger(spec.Interval)):
	}

	failures := 0
	for {
		success, skipped := m.refreshOnce(spec, entry)
		if !skipped {
			if success {
				failures = 0
			} else {
				failures++
			}
		}

		select {
		case <-m.stopCh:
			return
		case <-time.After(effectiveInterval(spec.Interval, failures, m.backoffCap)):
		}
	}
}

// refreshOnce runs a single fetch attempt for one widget. skipped is true when
// another fetch for the widget was already in flight.
func (m *Manager) refreshOnce(spec WidgetSpec, entry *cacheEntry) (success, skipped bool) {
	attemptAt := m.now()
	if !entry.beginAttempt(attemptAt) {
		m.skipLog.Warn("refresh tick skipped, previous fetch still in flight", "widget", spec.ID)
		return false, true
	}

	started := time.Now()
	payload, err := m.fetch(m.baseCtx, spec)
	m.stats.Observe(time.Since(started), err != nil)

	// A result arriving after shutdown grace has expired must not race a
	// restarted process's store, so it is dropped entirely.
	select {
	case <-m.baseCtx.Done():
		entry.abandon()
		return false, false
	default:
	}

	if err != nil {
		entry.completeFailure(err)
		slog.Warn("widget fetch failed", "widget", spec.ID, "error", err)
		return false, false
	}

	entry.completeSuccess(attemptAt, payload)
	if m.store != nil {
		m.store.PutAsync(spec.ID, payload, attemptAt)
	}
	return true, false
}

// effectiveInterval applies the failure backoff: every backoffStep consecutive
// failures double the interval, up to capMult times the base.
func effectiveInterval(base time.Duration, failures, capMult int) time.Duration {
	mult := 1
	for i := 0; i < failures/backoffStep && mult < capMult; i++ {
		mult *= 2
	}
	if mult > capMult {
		mult = capMult
	}
	return base * time.Duration(mult)
}

func (m *Manager) statsLoop() {
	defer m.wg.Done()
	t := time.NewTicker(m.logStatsEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			ss := m.stats.Snapshot()
			slog.Info("fetch stats",
				"fetches", ss.TotalFetches,
				"errors", ss.TotalErrors,
				"min", ss.MinFetch,
				"avg", ss.AvgFetch,
				"max", ss.MaxFetch,
			)
		}
	}
}
