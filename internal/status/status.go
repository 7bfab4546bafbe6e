// Package status aggregates per-chain connection health into a single
// overall state and notifies subscribers on every change.
package status

import (
	"sort"
	"sync"

	"github.com/prism-wallet/prism/pkg/logging"
)

// Status is the health of one chain connection.
type Status string

const (
	StatusConnected  Status = "connected"
	StatusConnecting Status = "connecting"
	StatusError      Status = "error"
)

// Snapshot is an immutable view of all chain statuses at one moment.
type Snapshot struct {
	Overall Status
	Chains  map[string]Status
}

// Subscriber receives snapshots. Callbacks run synchronously on the
// updating goroutine; a panicking subscriber is recovered and dropped
// without affecting the others.
type Subscriber func(Snapshot)

// Aggregator tracks chain statuses and fans snapshots out to subscribers.
type Aggregator struct {
	mu          sync.Mutex
	chains      map[string]Status
	subscribers map[int]Subscriber
	nextID      int
	log         *logging.Logger
}

// NewAggregator creates an empty aggregator.
func NewAggregator(log *logging.Logger) *Aggregator {
	return &Aggregator{
		chains:      make(map[string]Status),
		subscribers: make(map[int]Subscriber),
		log:         log.Component("status"),
	}
}

// Set updates one chain's status and notifies subscribers if anything
// changed.
func (a *Aggregator) Set(chain string, status Status) {
	a.mu.Lock()
	if a.chains[chain] == status {
		a.mu.Unlock()
		return
	}
	a.chains[chain] = status
	snapshot := a.snapshotLocked()
	subs := a.subscribersLocked()
	a.mu.Unlock()

	a.notify(subs, snapshot)
}

// Remove forgets a chain, for when a network is disabled at runtime.
func (a *Aggregator) Remove(chain string) {
	a.mu.Lock()
	if _, ok := a.chains[chain]; !ok {
		a.mu.Unlock()
		return
	}
	delete(a.chains, chain)
	snapshot := a.snapshotLocked()
	subs := a.subscribersLocked()
	a.mu.Unlock()

	a.notify(subs, snapshot)
}

// ClearAll forgets every chain, for when the active wallet switches and
// the next load repopulates from scratch.
func (a *Aggregator) ClearAll() {
	a.mu.Lock()
	if len(a.chains) == 0 {
		a.mu.Unlock()
		return
	}
	a.chains = make(map[string]Status)
	snapshot := a.snapshotLocked()
	subs := a.subscribersLocked()
	a.mu.Unlock()

	a.notify(subs, snapshot)
}

// Subscribe registers a subscriber and immediately delivers the current
// snapshot so new listeners never start blind. Returns an unsubscribe func.
func (a *Aggregator) Subscribe(sub Subscriber) func() {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.subscribers[id] = sub
	snapshot := a.snapshotLocked()
	a.mu.Unlock()

	a.notify(map[int]Subscriber{id: sub}, snapshot)

	return func() {
		a.mu.Lock()
		delete(a.subscribers, id)
		a.mu.Unlock()
	}
}

// Current returns the present snapshot.
func (a *Aggregator) Current() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

// snapshotLocked computes the overall status. Any error wins, then any
// connecting, then connected. No chains at all reads as connecting.
func (a *Aggregator) snapshotLocked() Snapshot {
	chains := make(map[string]Status, len(a.chains))
	overall := StatusConnected
	if len(a.chains) == 0 {
		overall = StatusConnecting
	}

	for chain, status := range a.chains {
		chains[chain] = status
		switch status {
		case StatusError:
			overall = StatusError
		case StatusConnecting:
			if overall != StatusError {
				overall = StatusConnecting
			}
		}
	}
	return Snapshot{Overall: overall, Chains: chains}
}

func (a *Aggregator) subscribersLocked() map[int]Subscriber {
	subs := make(map[int]Subscriber, len(a.subscribers))
	for id, sub := range a.subscribers {
		subs[id] = sub
	}
	return subs
}

// notify delivers a snapshot to subscribers in stable id order. A panic in
// one subscriber drops that subscriber and continues with the rest.
func (a *Aggregator) notify(subs map[int]Subscriber, snapshot Snapshot) {
	ids := make([]int, 0, len(subs))
	for id := range subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		a.deliver(id, subs[id], snapshot)
	}
}

func (a *Aggregator) deliver(id int, sub Subscriber, snapshot Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("subscriber panicked, dropping it", "subscriber", id, "panic", r)
			a.mu.Lock()
			delete(a.subscribers, id)
			a.mu.Unlock()
		}
	}()
	sub(snapshot)
}
