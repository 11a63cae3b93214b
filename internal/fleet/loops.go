package fleet

import (
	"context"
	"time"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/instance"
	"github.com/taha696969/docker-orchestrator-pro-dev/internal/sample"
)

// MonitorLoop runs reconcile-observe-score forever until ctx is
// cancelled. A single container's collection failure never aborts the
// tick for any other container.
func (f *Fleet) MonitorLoop(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.MonitorInterval)
	defer ticker.Stop()

	for {
		f.monitorTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *Fleet) monitorTick(ctx context.Context) {
	if err := f.Reconcile(ctx); err != nil {
		logErr("Reconcile", "", err)
		return
	}

	for _, rec := range f.List() {
		name := rec.Name
		snap, err := f.rt.StatsSnapshot(ctx, name)
		if err != nil {
			logErr("StatsSnapshot", name, err)
			continue
		}

		s := f.mc.Derive(snap)
		f.do(func() {
			ring, ok := f.state.rings[name]
			if !ok {
				ring = sample.NewRing()
				f.state.rings[name] = ring
			}
			ring.Append(s)
		})

		logErr("store.InsertMetric", name, f.store.InsertMetric(name, s))
		f.CheckScaling(ctx, name)
	}
}

const idleGCInterval = 10 * time.Second

// IdleReplicaGCLoop runs every 10 seconds until ctx is cancelled,
// removing replicas that have had no routed request for
// idle_replica_seconds and whose latest CPU sample is at or below the
// idle CPU threshold (a replica with no sample counts as quiet).
func (f *Fleet) IdleReplicaGCLoop(ctx context.Context) {
	ticker := time.NewTicker(idleGCInterval)
	defer ticker.Stop()

	for {
		f.idleGCTick(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (f *Fleet) idleGCTick(ctx context.Context) {
	type candidate struct {
		name   string
		parent string
	}

	due := query(f, func() []candidate {
		var out []candidate
		now := time.Now()
		idleWindow := time.Duration(f.cfg.IdleReplicaSeconds) * time.Second

		for name, rec := range f.state.records {
			if !rec.IsReplica() {
				continue
			}
			last := f.state.lastReq[name]
			if now.Sub(last) < idleWindow {
				continue
			}

			quiet := true
			if ring, ok := f.state.rings[name]; ok {
				if latest, ok := ring.Latest(); ok {
					quiet = latest.CPUPercent <= f.cfg.IdleReplicaCPUThreshold
				}
			}
			if quiet {
				out = append(out, candidate{name: name, parent: rec.Parent})
			}
		}
		return out
	})

	for _, c := range due {
		f.gcOne(ctx, c.name, c.parent)
	}
}

func (f *Fleet) gcOne(ctx context.Context, name, parent string) {
	if err := f.rt.Stop(ctx, name); err != nil {
		logErr("rt.Stop", name, err)
	}
	if err := f.rt.Remove(ctx, name); err != nil {
		logErr("rt.Remove", name, err)
	}
	f.forgetState(name, parent)
}

// forgetState drops name from every in-memory map and the relation
// graph, and persists its removal. It assumes the runtime container has
// already been stopped and removed by the caller.
func (f *Fleet) forgetState(name, parent string) {
	f.do(func() {
		delete(f.state.records, name)
		delete(f.state.rings, name)
		delete(f.state.cooldown, name)
		delete(f.state.lastReq, name)

		if parentRec, ok := f.state.records[parent]; ok {
			kept := parentRec.Replicas[:0:0]
			for _, r := range parentRec.Replicas {
				if r != name {
					kept = append(kept, r)
				}
			}
			parentRec.Replicas = kept
			f.state.records[parent] = parentRec
		}
	})

	f.graph.RemoveNode(name)
	logErr("store.DeleteAllRelationsFor", name, f.store.DeleteAllRelationsFor(name))
	logErr("store.UpdateContainerStatus", name, f.store.UpdateContainerStatus(name, instance.StatusRemoved))
}
