// Package connectivity tracks whether the API server is reachable.
//
// The flag is an atomic boolean so IsOnline is a cheap synchronous read that
// gates network-dependent operations. Watch is the notification source: it
// pings the server on a ticker and feeds the result to Set. A stale flag (a
// captive portal, a server that dies between pings) can still let an
// operation start and fail later.
package connectivity

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/exersio/internal/logging"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Observer struct {
	online atomic.Bool
	log    logging.Logger

	mu     sync.Mutex
	nextID int
	subs   map[int]func(online bool)
}

func New(log logging.Logger) *Observer {
	return &Observer{log: log, subs: make(map[int]func(bool))}
}

func (o *Observer) IsOnline() bool {
	return o.online.Load()
}

// Mode is a human-readable form of the flag for prompts.
func (o *Observer) Mode() string {
	if o.IsOnline() {
		return "online"
	}
	return "offline"
}

// Set records the current state. Subscribers are called only on transitions,
// synchronously and outside the internal lock.
func (o *Observer) Set(online bool) {
	if o.online.Swap(online) == online {
		return
	}

	o.log.Info(context.Background(), "connectivity changed", "mode", o.Mode())

	o.mu.Lock()
	fns := make([]func(bool), 0, len(o.subs))
	for _, fn := range o.subs {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(online)
	}
}

// Subscribe registers fn for transitions and returns a function removing it.
func (o *Observer) Subscribe(fn func(online bool)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subs, id)
		o.mu.Unlock()
	}
}

// Check pings once and updates the flag.
func (o *Observer) Check(ctx context.Context, p Pinger, timeout time.Duration) bool {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	err := p.Ping(ctx)
	cancel()

	if err != nil {
		o.log.Debug(ctx, "ping failed", "error", err)
	}
	o.Set(err == nil)
	return err == nil
}

// Watch checks immediately and then every interval until ctx is done.
func (o *Observer) Watch(ctx context.Context, interval time.Duration, p Pinger) {
	timeout := min(interval, 3*time.Second)
	o.Check(ctx, p, timeout)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			o.Check(ctx, p, timeout)
		case <-ctx.Done():
			return
		}
	}
}
