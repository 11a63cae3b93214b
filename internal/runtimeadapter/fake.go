package runtimeadapter

import (
	"context"
	"strconv"
	"sync"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/metrics"
)

type fakeContainer struct {
	id       string
	image    string
	env      map[string]string
	network  string
	running  bool
	snapshot metrics.StatsSnapshot
}

// Fake is an in-memory Adapter: Run/Stop/Start/Remove mutate a local
// table instead of talking to a real container runtime. Tests can seed
// a container's StatsSnapshot via SetStats to drive monitor-loop
// behavior deterministically.
type Fake struct {
	mu         sync.Mutex
	self       []string
	containers map[string]*fakeContainer
	nextID     int
}

// NewFake creates an empty Fake adapter. self is the set of network
// names the fake host itself is attached to, returned by
// SelfHostnameContainerNetworks.
func NewFake(self ...string) *Fake {
	return &Fake{containers: make(map[string]*fakeContainer), self: self}
}

func (f *Fake) ListRunning(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for name, c := range f.containers {
		if c.running {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *Fake) Get(ctx context.Context, name string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return Handle{}, ErrNotFound
	}
	return Handle{ID: c.id, Name: name}, nil
}

func (f *Fake) Inspect(ctx context.Context, name string) (Inspection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return Inspection{}, ErrNotFound
	}
	return Inspection{Image: c.image, Env: c.env, Networks: []string{c.network}}, nil
}

func (f *Fake) StatsSnapshot(ctx context.Context, name string) (metrics.StatsSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return metrics.StatsSnapshot{}, ErrNotFound
	}
	snap := c.snapshot
	snap.Container = name
	return snap, nil
}

// SetStats seeds the snapshot StatsSnapshot returns for name on its next
// call, for deterministic tests of the monitor loop.
func (f *Fake) SetStats(name string, snap metrics.StatsSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.containers[name]; ok {
		c.snapshot = snap
	}
}

func (f *Fake) Run(ctx context.Context, image, name string, env map[string]string, network string, ports []string) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := "fake-" + strconv.Itoa(f.nextID)
	f.containers[name] = &fakeContainer{id: id, image: image, env: env, network: network, running: true}
	return Handle{ID: id, Name: name}, nil
}

func (f *Fake) Stop(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return ErrNotFound
	}
	c.running = false
	return nil
}

func (f *Fake) Start(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return ErrNotFound
	}
	c.running = true
	return nil
}

func (f *Fake) Remove(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.containers[name]; !ok {
		return ErrNotFound
	}
	delete(f.containers, name)
	return nil
}

func (f *Fake) Ping(ctx context.Context) error {
	return nil
}

func (f *Fake) GetNetwork(ctx context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.containers[name]
	if !ok {
		return "", ErrNotFound
	}
	return c.network, nil
}

func (f *Fake) SelfHostnameContainerNetworks(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.self...), nil
}
