package market

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/newsdailly/newsdailly/logger"
	"github.com/newsdailly/newsdailly/metrics"
)

// DefaultInterval is the time between polls.
const DefaultInterval = 20 * time.Second

// Snapshot is the last successful poll.
type Snapshot struct {
	Tickers   map[string]Ticker
	UpdatedAt time.Time
}

// Live reports whether the snapshot holds fetched data rather than fallback
// values.
func (s Snapshot) Live() bool {
	return !s.UpdatedAt.IsZero()
}

// PollerConfig configures a Poller.
type PollerConfig struct {
	Symbols  []string
	Interval time.Duration
}

// Poller fetches tickers on a fixed interval and keeps the last good result.
// A failed poll keeps the previous snapshot and records the error.
type Poller struct {
	client   *Client
	symbols  []string
	interval time.Duration
	log      logger.Logger
	metrics  *metrics.Metrics
	onPoll   func()

	mu       sync.RWMutex
	snapshot Snapshot
	err      error
	inFlight context.CancelFunc
	stopped  bool

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithLogger sets the logger used for failed polls.
func WithLogger(log logger.Logger) PollerOption {
	return func(p *Poller) { p.log = log }
}

// WithMetrics records polls on m.
func WithMetrics(m *metrics.Metrics) PollerOption {
	return func(p *Poller) { p.metrics = m }
}

// WithOnPoll calls fn after every completed poll, successful or not. It is
// not called for polls aborted by Stop.
func WithOnPoll(fn func()) PollerOption {
	return func(p *Poller) { p.onPoll = fn }
}

// NewPoller creates a poller. Empty config values take DefaultSymbols and
// DefaultInterval.
func NewPoller(client *Client, cfg PollerConfig, opts ...PollerOption) *Poller {
	if len(cfg.Symbols) == 0 {
		cfg.Symbols = DefaultSymbols
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	p := &Poller{
		client:   client,
		symbols:  append([]string(nil), cfg.Symbols...),
		interval: cfg.Interval,
		log:      logger.NewNop(),
		stopChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run polls immediately and then on every interval until ctx is cancelled
// or Stop is called. Run after Stop returns nil without polling.
func (p *Poller) Run(ctx context.Context) error {
	// Registering under mu orders Add before Stop's Wait.
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	p.log.Info("Starting price poller",
		logger.Strings("symbols", p.symbols),
		logger.Duration("interval", p.interval),
	)

	_ = p.Refresh(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("Price poller stopped by context")
			return ctx.Err()
		case <-p.stopChan:
			p.log.Info("Price poller stopped")
			return nil
		case <-ticker.C:
			_ = p.Refresh(ctx)
		}
	}
}

// Stop ends Run, aborts any request in flight and waits for Run to return.
// Results that arrive after Stop are discarded, and a Run that has not yet
// started never polls.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		if p.inFlight != nil {
			p.inFlight()
		}
		p.mu.Unlock()
		close(p.stopChan)
	})
	p.wg.Wait()
}

// Refresh performs one poll. It returns the fetch error, which is also
// available from Err until the next successful poll.
func (p *Poller) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	reqCtx, cancel := context.WithCancel(ctx)
	p.inFlight = cancel
	p.mu.Unlock()
	defer cancel()

	start := time.Now()
	tickers, err := p.client.Fetch(reqCtx, p.symbols)
	if p.metrics != nil {
		p.metrics.PricePollLatency.Observe(time.Since(start).Seconds())
	}

	completed, err := p.record(reqCtx, tickers, err)
	if completed && p.onPoll != nil {
		p.onPoll()
	}
	return err
}

// record stores the outcome of a fetch. It reports false when the result
// was discarded because the poller stopped or the request was aborted.
func (p *Poller) record(reqCtx context.Context, tickers map[string]Ticker, err error) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = nil

	if p.stopped {
		return false, nil
	}
	if err != nil {
		if reqCtx.Err() != nil && errors.Is(err, reqCtx.Err()) {
			// Aborted, not failed.
			return false, nil
		}
		p.err = err
		p.count(metrics.OutcomeError)
		p.log.Warn("Price poll failed", logger.Error(err))
		return true, err
	}

	p.snapshot = Snapshot{Tickers: tickers, UpdatedAt: time.Now()}
	p.err = nil
	p.count(metrics.OutcomeOK)
	p.log.Debug("Price poll succeeded", logger.Int("tickers", len(tickers)))
	return true, nil
}

func (p *Poller) count(outcome string) {
	if p.metrics != nil {
		p.metrics.PricePolls.WithLabelValues(outcome).Inc()
	}
}

// Snapshot returns a copy of the last successful poll.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := Snapshot{UpdatedAt: p.snapshot.UpdatedAt}
	if p.snapshot.Tickers != nil {
		out.Tickers = make(map[string]Ticker, len(p.snapshot.Tickers))
		for k, v := range p.snapshot.Tickers {
			out.Tickers[k] = v
		}
	}
	return out
}

// Err returns the error of the last poll, nil once a poll succeeds.
func (p *Poller) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Symbols returns the polled symbols in display order.
func (p *Poller) Symbols() []string {
	return append([]string(nil), p.symbols...)
}

// Board returns the chips for the current snapshot and the last error.
func (p *Poller) Board() Board {
	snap := p.Snapshot()
	err := p.Err()
	board := Board{
		Chips: Chips(p.symbols, snap.Tickers),
		Live:  snap.Live(),
	}
	if !snap.UpdatedAt.IsZero() {
		board.UpdatedAt = snap.UpdatedAt.UTC().Format(time.RFC3339)
	}
	if err != nil {
		board.Error = err.Error()
	}
	return board
}
