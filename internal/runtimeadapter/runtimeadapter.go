// Package runtimeadapter defines the container-runtime interface the
// orchestrator drives, plus an in-memory Fake used by tests and local
// dry runs. A real Docker-backed adapter is an external collaborator and
// out of scope; nothing in this repository depends on Docker itself.
package runtimeadapter

import (
	"context"
	"errors"

	"github.com/taha696969/docker-orchestrator-pro-dev/internal/metrics"
)

// ErrNotFound is returned by operations addressing an unknown name.
var ErrNotFound = errors.New("runtimeadapter: container not found")

// Inspection is the static configuration of a running container.
type Inspection struct {
	Image    string
	Env      map[string]string
	Networks []string
}

// Handle identifies a freshly created container.
type Handle struct {
	ID   string
	Name string
}

// Adapter is the Runtime Adapter interface (spec.md §4.6). Every method
// that addresses a container by name returns ErrNotFound if it does not
// exist on the runtime.
type Adapter interface {
	ListRunning(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (Handle, error)
	Inspect(ctx context.Context, name string) (Inspection, error)
	StatsSnapshot(ctx context.Context, name string) (metrics.StatsSnapshot, error)
	Run(ctx context.Context, image, name string, env map[string]string, network string, ports []string) (Handle, error)
	Stop(ctx context.Context, name string) error
	Start(ctx context.Context, name string) error
	Remove(ctx context.Context, name string) error
	Ping(ctx context.Context) error
	GetNetwork(ctx context.Context, name string) (string, error)
	SelfHostnameContainerNetworks(ctx context.Context) ([]string, error)
}
