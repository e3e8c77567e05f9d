package interview

import (
	"context"
	"time"
)

// DefaultTickInterval drives the countdown once per second
const DefaultTickInterval = time.Second

// Ticker calls Engine.TickTimer on a fixed interval until its context is cancelled
type Ticker struct {
	engine   *Engine
	interval time.Duration
	onTick   func(TickResult)
}

// NewTicker creates a ticker. onTick may be nil.
func NewTicker(engine *Engine, interval time.Duration, onTick func(TickResult)) *Ticker {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &Ticker{engine: engine, interval: interval, onTick: onTick}
}

// Run blocks until ctx is done. Tick errors are logged and do not stop the loop.
func (t *Ticker) Run(ctx context.Context) error {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := t.engine.TickTimer(ctx)
			if err != nil {
				t.engine.log.Warn("timer tick failed: %v", err)
				continue
			}
			if t.onTick != nil {
				t.onTick(result)
			}
		}
	}
}
