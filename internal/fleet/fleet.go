// Package fleet implements the orchestrator: the authoritative in-memory
// fleet of tracked containers, the scaling decision loop, idle-replica
// garbage collection, and request routing across a container and its
// replicas.
//
// Concurrency follows a single-writer discipline (spec's preferred
// option over a coarse lock or per-map fine-grained locks): the fleet,
// metrics, cooldown, and last-request-at maps are private to a single
// actor goroutine driven by a channel of closures. Every exported method
// submits a closure and waits for it to run, which gives callers
// linearizable access without a shared mutex. All I/O — runtime adapter
// calls, persistence calls, outbound routing HTTP — happens outside any
// submitted closure, in the calling goroutine, so the actor is never
// blocked waiting on the network.
package fleet

import (
	"sort"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/config"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/graph"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/metrics"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/persistence"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/runtimeadapter"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

// MainNode is the synthetic orchestrator identity used as the source of
// every master_of edge.
const MainNode = "orchestrator_main"

// infrastructureNames are live containers that are tracked as graph
// nodes but never entered into the fleet map.
var infrastructureNames = map[string]struct{}{
	MainNode:               {},
	"orchestrator_mongodb": {},
	"orchestrator_web":     {},
}

// Fleet owns the orchestrator's authoritative in-memory state.
type Fleet struct {
	cfg   config.Config
	rt    runtimeadapter.Adapter
	store persistence.Store
	graph *graph.Manager
	mc    *metrics.Collector

	network string

	actorCh chan func()
	wg      sync.WaitGroup

	// actor-owned state; only the actor goroutine touches these directly.
	state fleetState
}

type fleetState struct {
	records  map[string]instance.Record
	rings    map[string]*sample.Ring
	cooldown map[string]time.Time
	lastReq  map[string]time.Time
}

// New constructs a Fleet and starts its actor goroutine. Callers must
// call Close when done to stop the actor.
func New(cfg config.Config, rt runtimeadapter.Adapter, store persistence.Store, gm *graph.Manager, network string) *Fleet {
	f := &Fleet{
		cfg:     cfg,
		rt:      rt,
		store:   store,
		graph:   gm,
		mc:      metrics.New(),
		network: network,
		actorCh: make(chan func(), 64),
		state: fleetState{
			records:  make(map[string]instance.Record),
			rings:    make(map[string]*sample.Ring),
			cooldown: make(map[string]time.Time),
			lastReq:  make(map[string]time.Time),
		},
	}
	f.wg.Add(1)
	go f.actorLoop()
	return f
}

// Close stops the actor goroutine. A submission issued after Close
// panics, since it sends on the closed actor channel; callers must stop
// issuing work before calling it.
func (f *Fleet) Close() {
	close(f.actorCh)
	f.wg.Wait()
}

func (f *Fleet) actorLoop() {
	defer f.wg.Done()
	for fn := range f.actorCh {
		fn()
	}
}

// do submits fn to the actor and blocks until it has run.
func (f *Fleet) do(fn func()) {
	done := make(chan struct{})
	f.actorCh <- func() {
		fn()
		close(done)
	}
	<-done
}

// query runs fn on the actor and returns its result.
func query[T any](f *Fleet, fn func() T) T {
	var result T
	f.do(func() { result = fn() })
	return result
}

// Snapshot is a point-in-time, read-only copy of one fleet member,
// returned to callers outside the actor.
type Snapshot struct {
	Record    instance.Record
	Latest    sample.Sample
	HasLatest bool
}

// pair carries a (value, bool) result through query's single generic
// return value, since a query closure can only return one value.
type pair[T any] struct {
	val T
	ok  bool
}

func (p pair[T]) split() (T, bool) { return p.val, p.ok }

// Get returns a snapshot of name, or ok=false if it is not tracked.
func (f *Fleet) Get(name string) (Snapshot, bool) {
	result := query(f, func() pair[Snapshot] {
		rec, ok := f.state.records[name]
		if !ok {
			return pair[Snapshot]{}
		}
		snap := Snapshot{Record: rec}
		if ring, ok := f.state.rings[name]; ok {
			if latest, ok := ring.Latest(); ok {
				snap.Latest, snap.HasLatest = latest, true
			}
		}
		return pair[Snapshot]{val: snap, ok: true}
	})
	return result.val, result.ok
}

// History returns up to n of name's most recent metric samples, oldest
// first, for callers that need more than the latest point (e.g. the
// traffic driver's peak-memory summary).
func (f *Fleet) History(name string, n int) []sample.Sample {
	return query(f, func() []sample.Sample {
		ring, ok := f.state.rings[name]
		if !ok {
			return nil
		}
		return ring.LastN(n)
	})
}

// List returns a snapshot of every tracked record, sorted by name.
func (f *Fleet) List() []instance.Record {
	return query(f, func() []instance.Record {
		out := make([]instance.Record, 0, len(f.state.records))
		for _, rec := range f.state.records {
			out = append(out, rec)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out
	})
}

func logErr(op, name string, err error) {
	if err != nil {
		log.Warnf("fleet: %s(%s): %v", op, name, err)
	}
}
