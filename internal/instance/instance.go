// Package instance defines the container identity record and the
// append-only scaling event the rest of the control plane persists and
// reasons about.
package instance

import (
	"regexp"
	"strconv"
	"time"
)

// Status is a container's lifecycle state as tracked by the orchestrator.
type Status string

const (
	StatusUnknown Status = "unknown"
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusRemoved Status = "removed"
)

// Record is the orchestrator's authoritative view of one live container.
type Record struct {
	Name          string            `json:"name"`
	ID            string            `json:"id"`
	Image         string            `json:"image"`
	Env           map[string]string `json:"env,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	Parent        string            `json:"parent,omitempty"`
	Replicas      []string          `json:"replicas"`
	LastRequestAt time.Time         `json:"last_request_at"`
	Status        Status            `json:"status"`
}

// IsReplica reports whether r is itself a replica of another container.
func (r Record) IsReplica() bool {
	return r.Parent != ""
}

var replicaPattern = regexp.MustCompile(`^(.+)_replica_(\d+)$`)

// ParseReplicaName reports whether name matches the <parent>_replica_<k>
// convention (k >= 1), returning the parent name and k when it does.
func ParseReplicaName(name string) (parent string, k int, ok bool) {
	m := replicaPattern.FindStringSubmatch(name)
	if m == nil {
		return "", 0, false
	}
	n, err := strconv.Atoi(m[2])
	if err != nil || n < 1 {
		return "", 0, false
	}
	return m[1], n, true
}

// ReplicaName formats the conventional name for the k-th replica of parent.
func ReplicaName(parent string, k int) string {
	return parent + "_replica_" + strconv.Itoa(k)
}

// EventKind enumerates the kinds of scaling event recorded in the audit
// log.
type EventKind string

const (
	EventScaleUp        EventKind = "scale_up"
	EventScaleDown      EventKind = "scale_down"
	EventReplicaCreated EventKind = "replica_created"
)

// Event is one append-only scaling-audit record.
type Event struct {
	Container string                 `json:"container"`
	Kind      EventKind              `json:"kind"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
