package store

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultInterval is how often dashboards refresh
const DefaultInterval = 30 * time.Second

// Poller reloads a store on a fixed interval. A tick is skipped while the
// previous reload is still running.
type Poller struct {
	Store    *Store
	Interval time.Duration
	OnReload func(count int)
	OnError  func(err error)
}

// Run reloads once immediately, then on every tick until ctx is done. It returns
// after in-flight reloads finish; callbacks are not invoked once ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	p.tick(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var ticks sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			ticks.Wait()
			return ctx.Err()
		case <-ticker.C:
			ticks.Add(1)
			go func() {
				defer ticks.Done()
				p.tick(ctx)
			}()
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	err := p.Store.TryReload(ctx)
	switch {
	case errors.Is(err, ErrReloadInProgress):
		return
	case err != nil:
		if p.OnError != nil && ctx.Err() == nil {
			p.OnError(err)
		}
	default:
		if p.OnReload != nil && ctx.Err() == nil {
			p.OnReload(len(p.Store.Records()))
		}
	}
}
