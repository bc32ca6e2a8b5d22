// Package feed delivers live query snapshots to subscribers.
//
// It replaces ambient per-view listeners with an explicit subscription
// manager: a query descriptor maps to a callback set, and every invalidation
// re-runs the query and hands each subscriber an immutable snapshot. A
// periodic refresh covers writes made by other processes.
package feed

import (
	"context"
	"sync"
	"time"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Query describes what a subscriber is watching. Collection names follow the
// record-store tables; Scope narrows the result set (e.g. a calendar date).
type Query struct {
	Collection string
	Scope      string
}

// Runner re-executes the subscribed query and returns the current snapshot.
type Runner func(ctx context.Context) (any, error)

// Deliver receives each new snapshot. Snapshots are never mutated by the
// feed; subscribers must treat them as read-only.
type Deliver func(snapshot any)

type subscription struct {
	id      int
	query   Query
	run     Runner
	deliver Deliver
}

// Feed fans query snapshots out to subscribers.
type Feed struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscription

	refresh time.Duration
	kick    chan string
	logger  *logging.Logger
}

// New creates a feed that refreshes every interval in addition to
// reacting to Invalidate calls.
func New(refresh time.Duration, logger *logging.Logger) *Feed {
	if logger == nil {
		logger = logging.Default()
	}
	if refresh <= 0 {
		refresh = 30 * time.Second
	}
	return &Feed{
		subs:    make(map[int]*subscription),
		refresh: refresh,
		kick:    make(chan string, 64),
		logger:  logger,
	}
}

// Subscribe registers a query; the runner executes immediately so the
// subscriber starts from the current state. The returned function cancels
// the subscription.
func (f *Feed) Subscribe(ctx context.Context, q Query, run Runner, deliver Deliver) func() {
	f.mu.Lock()
	f.nextID++
	sub := &subscription{id: f.nextID, query: q, run: run, deliver: deliver}
	f.subs[sub.id] = sub
	f.mu.Unlock()

	f.push(ctx, sub)

	return func() {
		f.mu.Lock()
		delete(f.subs, sub.id)
		f.mu.Unlock()
	}
}

// Invalidate signals that a collection changed; every subscription watching
// it is re-run. Safe to call from request handlers; never blocks.
func (f *Feed) Invalidate(collection string) {
	select {
	case f.kick <- collection:
	default:
		// A full channel means a refresh is already pending; the next
		// snapshot will include this change anyway.
	}
}

// Run drives invalidations and periodic refreshes until ctx is cancelled.
func (f *Feed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.refresh)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case collection := <-f.kick:
			f.pushMatching(ctx, collection)
		case <-ticker.C:
			f.pushMatching(ctx, "")
		}
	}
}

// pushMatching re-runs every subscription watching the collection;
// an empty collection matches all of them.
func (f *Feed) pushMatching(ctx context.Context, collection string) {
	f.mu.RLock()
	targets := make([]*subscription, 0, len(f.subs))
	for _, sub := range f.subs {
		if collection == "" || sub.query.Collection == collection {
			targets = append(targets, sub)
		}
	}
	f.mu.RUnlock()

	for _, sub := range targets {
		f.push(ctx, sub)
	}
}

func (f *Feed) push(ctx context.Context, sub *subscription) {
	snapshot, err := sub.run(ctx)
	if err != nil {
		f.logger.Error("feed: snapshot query failed",
			"collection", sub.query.Collection,
			"scope", sub.query.Scope,
			"error", err,
		)
		return
	}
	sub.deliver(snapshot)
}
