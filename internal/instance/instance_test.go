package instance

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseReplicaName(t *testing.T) {
	parent, k, ok := ParseReplicaName("worker_replica_3")
	require.True(t, ok)
	require.Equal(t, "worker", parent)
	require.Equal(t, 3, k)
}

func TestParseReplicaNameRejectsNonMatching(t *testing.T) {
	_, _, ok := ParseReplicaName("worker")
	require.False(t, ok)

	_, _, ok = ParseReplicaName("worker_replica_0")
	require.False(t, ok)
}

func TestReplicaNameRoundTrip(t *testing.T) {
	name := ReplicaName("worker", 2)
	require.Equal(t, "worker_replica_2", name)

	parent, k, ok := ParseReplicaName(name)
	require.True(t, ok)
	require.Equal(t, "worker", parent)
	require.Equal(t, 2, k)
}

func TestIsReplica(t *testing.T) {
	require.True(t, Record{Parent: "worker"}.IsReplica())
	require.False(t, Record{}.IsReplica())
}
