package clock

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// TickListener receives periodic tick events.
type TickListener interface {
	OnTick(now time.Time)
}

// Ticker drives background maintenance at a fixed interval. Listeners run
// sequentially on the ticker goroutine; Stop waits for the in-flight tick
// to finish so no listener is ever interrupted mid-update.
type Ticker struct {
	interval  time.Duration
	clock     Clock
	listeners []TickListener
	mu        sync.RWMutex
	cancel    context.CancelFunc
	done      chan struct{}
	logger    *zap.Logger
}

// NewTicker creates a ticker with the given interval.
func NewTicker(interval time.Duration, clk Clock, logger *zap.Logger) *Ticker {
	return &Ticker{
		interval: interval,
		clock:    clk,
		logger:   logger,
	}
}

// AddListener registers a tick listener.
func (t *Ticker) AddListener(l TickListener) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, l)
}

// Start begins the tick loop in a background goroutine.
func (t *Ticker) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	t.cancel = cancel
	t.done = make(chan struct{})
	go t.loop(ctx)
	t.logger.Info("ticker started", zap.Duration("interval", t.interval))
}

// Stop halts the tick loop and waits for the current tick to complete.
func (t *Ticker) Stop() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.logger.Info("ticker stopped")
}

func (t *Ticker) loop(ctx context.Context) {
	defer close(t.done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick()
		}
	}
}

func (t *Ticker) tick() {
	now := t.clock.Now()

	t.mu.RLock()
	listeners := make([]TickListener, len(t.listeners))
	copy(listeners, t.listeners)
	t.mu.RUnlock()

	for _, l := range listeners {
		t.safeTick(l, now)
	}
}

// safeTick isolates listener panics: a failing tick logs and retries on
// the next interval.
func (t *Ticker) safeTick(l TickListener, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("tick listener panicked", zap.Any("panic", r))
		}
	}()
	l.OnTick(now)
}
