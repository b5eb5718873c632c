package orchestrator

import (
	"context"
	"time"

	"nanowallet/store"
)

// Dispatcher accepts actions.
type Dispatcher interface {
	Dispatch(action store.Action)
}

// Poller periodically signals that transactions may have changed so pending
// entries get reconciled.
type Poller struct {
	store    Dispatcher
	interval time.Duration
}

// NewPoller constructs a poller. A non-positive interval defaults to ten seconds.
func NewPoller(s Dispatcher, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Poller{store: s, interval: interval}
}

// Run dispatches TransactionsUpdated every interval until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.store.Dispatch(store.TransactionsUpdatedAction())
		}
	}
}
