// Package graph maintains the directed relation graph over container
// identities: dependency edges, the synthetic orchestrator_main/replica
// structure, cascade-target suggestion, cycle/critical-node analysis, and
// JSON node-link export/import.
//
// The vertex/edge catalog and its concurrency safety are delegated to
// github.com/katalvlaran/lvlath's core.Graph (a real adjacency-list graph
// library from the retrieved example pack); this package layers relation
// types and weights on top, since lvlath edges don't carry arbitrary
// metadata of their own.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dfs"
)

// RelationType enumerates the kinds of directed edge the manager tracks.
type RelationType string

const (
	DependsOn RelationType = "depends_on"
	Uses      RelationType = "uses"
	MasterOf  RelationType = "master_of"
	ReplicaOf RelationType = "replica_of"
)

// ErrCyclePresent is returned by TopologicalOrder when the graph is not a DAG.
var ErrCyclePresent = errors.New("graph: cycle present")

// relation is the domain record mirrored alongside each lvlath edge.
type relation struct {
	edgeID string
	from   string
	to     string
	typ    RelationType
	weight float64
}

// Manager owns the relation graph. All exported methods are safe for
// concurrent use: structural mutation delegates to lvlath's internal
// locking, and the (from,to,type) side index is protected by mu.
type Manager struct {
	mu sync.Mutex // guards g (structural ops) and the side tables together

	g *core.Graph

	// byTriple enforces "edges are unique on the triple (from,to,type)".
	byTriple map[string]*relation // key: from + "\x00" + to + "\x00" + string(type)
	byEdgeID map[string]*relation
}

// New creates an empty directed relation graph.
func New() *Manager {
	return &Manager{
		g:        newUnderlyingGraph(),
		byTriple: make(map[string]*relation),
		byEdgeID: make(map[string]*relation),
	}
}

func newUnderlyingGraph() *core.Graph {
	return core.NewGraph(core.WithDirected(true), core.WithMultiEdges(), core.WithWeighted(), core.WithLoops())
}

func tripleKey(from, to string, typ RelationType) string {
	return from + "\x00" + to + "\x00" + string(typ)
}

// AddNode registers name as a vertex if it is not already present.
func (m *Manager) AddNode(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addNodeLocked(name)
}

func (m *Manager) addNodeLocked(name string) {
	if !m.g.HasVertex(name) {
		_ = m.g.AddVertex(name)
	}
}

// HasNode reports whether name is currently a vertex.
func (m *Manager) HasNode(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.HasVertex(name)
}

// RemoveNode removes name and every edge touching it.
func (m *Manager) RemoveNode(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeNodeLocked(name)
}

func (m *Manager) removeNodeLocked(name string) {
	if !m.g.HasVertex(name) {
		return
	}
	for key, rel := range m.byTriple {
		if rel.from == name || rel.to == name {
			delete(m.byTriple, key)
			delete(m.byEdgeID, rel.edgeID)
		}
	}
	_ = m.g.RemoveVertex(name)
}

// AddEdge upserts a (from,to,type) relation with the given weight,
// auto-creating missing endpoints. Re-adding the same triple is a no-op
// (idempotent per spec.md §8's "Idempotence" law) save for updating its
// weight.
func (m *Manager) AddEdge(from, to string, typ RelationType, weight float64) error {
	if weight == 0 {
		weight = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.addNodeLocked(from)
	m.addNodeLocked(to)

	key := tripleKey(from, to, typ)
	if rel, ok := m.byTriple[key]; ok {
		rel.weight = weight
		return nil
	}

	eid, err := m.g.AddEdge(from, to, 1)
	if err != nil {
		return fmt.Errorf("graph: add edge %s->%s: %w", from, to, err)
	}
	rel := &relation{edgeID: eid, from: from, to: to, typ: typ, weight: weight}
	m.byTriple[key] = rel
	m.byEdgeID[eid] = rel
	return nil
}

// RemoveEdge removes the relation of the given type between from and to
// (or every type between them if typ is ""). It reports whether any edge
// existed.
func (m *Manager) RemoveEdge(from, to string, typ RelationType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := false
	if typ != "" {
		key := tripleKey(from, to, typ)
		if rel, ok := m.byTriple[key]; ok {
			_ = m.g.RemoveEdge(rel.edgeID)
			delete(m.byTriple, key)
			delete(m.byEdgeID, rel.edgeID)
			removed = true
		}
		return removed
	}

	for key, rel := range m.byTriple {
		if rel.from == from && rel.to == to {
			_ = m.g.RemoveEdge(rel.edgeID)
			delete(m.byTriple, key)
			delete(m.byEdgeID, rel.edgeID)
			removed = true
		}
	}
	return removed
}

// RemoveEdgesFor deletes every relation touching name, in either
// direction, from this in-memory graph; name itself stays a node.
func (m *Manager) RemoveEdgesFor(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, rel := range m.byTriple {
		if rel.from == name || rel.to == name {
			_ = m.g.RemoveEdge(rel.edgeID)
			delete(m.byTriple, key)
			delete(m.byEdgeID, rel.edgeID)
		}
	}
}

// HasEdge reports whether a (from,to,type) relation exists.
func (m *Manager) HasEdge(from, to string, typ RelationType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.byTriple[tripleKey(from, to, typ)]
	return ok
}

// PruneTo removes every node not present in alive, together with its
// edges.
func (m *Manager) PruneTo(alive map[string]struct{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, name := range m.g.Vertices() {
		if _, ok := alive[name]; !ok {
			m.removeNodeLocked(name)
		}
	}
}

// Relation is the exported view of one tracked edge.
type Relation struct {
	From   string
	To     string
	Type   RelationType
	Weight float64
}

// successors/predecessors scan the byTriple index directly rather than
// the underlying lvlath adjacency, since only we know each edge's
// direction semantics relative to relation Type (lvlath's Neighbors
// returns both directions for undirected/mixed graphs, which this graph
// never uses, but scanning our own index keeps the two data structures
// provably in sync without relying on lvlath's traversal helpers).

func (m *Manager) successorsLocked(name string) []string {
	var out []string
	for _, rel := range m.byTriple {
		if rel.from == name {
			out = append(out, rel.to)
		}
	}
	return out
}

func (m *Manager) predecessorsLocked(name string) []string {
	var out []string
	for _, rel := range m.byTriple {
		if rel.to == name {
			out = append(out, rel.from)
		}
	}
	return out
}

// Neighbors returns the union of successors and predecessors of n (direct
// relations in either direction), deduplicated.
func (m *Manager) Neighbors(n string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := map[string]struct{}{}
	for _, v := range m.successorsLocked(n) {
		set[v] = struct{}{}
	}
	for _, v := range m.predecessorsLocked(n) {
		set[v] = struct{}{}
	}
	return sortedKeys(set)
}

// Descendants returns the transitive closure of successors of n,
// excluding n itself.
func (m *Manager) Descendants(n string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closureLocked(n, m.successorsLocked)
}

// Ancestors returns the transitive closure of predecessors of n,
// excluding n itself.
func (m *Manager) Ancestors(n string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closureLocked(n, m.predecessorsLocked)
}

func (m *Manager) closureLocked(n string, next func(string) []string) []string {
	visited := map[string]struct{}{n: {}}
	queue := []string{n}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range next(cur) {
			if _, ok := visited[nb]; !ok {
				visited[nb] = struct{}{}
				queue = append(queue, nb)
			}
		}
	}
	delete(visited, n)
	return sortedKeys(visited)
}

// Targets is the cascade-candidate set for scale_up (spec.md §4.2/§4.4).
type Targets struct {
	Immediate  []string
	Descendants []string
	Ancestors   []string
	All         []string
}

// SuggestScalingTargets computes the cascade set for hot node n.
func (m *Manager) SuggestScalingTargets(n string) Targets {
	immediate := m.Neighbors(n)
	desc := m.Descendants(n)
	anc := m.Ancestors(n)

	all := map[string]struct{}{}
	for _, v := range immediate {
		all[v] = struct{}{}
	}
	for _, v := range desc {
		all[v] = struct{}{}
	}
	for _, v := range anc {
		all[v] = struct{}{}
	}

	return Targets{
		Immediate:   immediate,
		Descendants: desc,
		Ancestors:   anc,
		All:         sortedKeys(all),
	}
}

// TopologicalOrder returns a topological ordering of all nodes, or
// ErrCyclePresent if the graph contains a cycle.
func (m *Manager) TopologicalOrder() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, err := dfs.TopologicalSort(m.g)
	if err != nil {
		if errors.Is(err, dfs.ErrCycleDetected) {
			return nil, ErrCyclePresent
		}
		return nil, err
	}
	return order, nil
}

// SimpleCycles enumerates every elementary cycle in the graph.
func (m *Manager) SimpleCycles() [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, cycles, err := dfs.DetectCycles(m.g)
	if err != nil {
		return nil
	}
	return cycles
}

// CriticalNodes returns the set of nodes whose removal would disconnect
// a currently weakly-connected graph (articulation points). Computed by
// brute force: remove each node's incident edges from a copy of the
// underlying undirected reachability relation and check connectivity —
// O(V) removals each O(V+E), which is acceptable at fleet scale.
func (m *Manager) CriticalNodes() []string {
	m.mu.Lock()
	nodes := m.g.Vertices()
	undirected := m.undirectedAdjacencyLocked()
	m.mu.Unlock()

	if len(nodes) < 3 || !weaklyConnected(nodes, undirected) {
		return nil
	}

	var critical []string
	for _, removed := range nodes {
		remaining := make([]string, 0, len(nodes)-1)
		for _, n := range nodes {
			if n != removed {
				remaining = append(remaining, n)
			}
		}
		if !weaklyConnected(remaining, undirected) {
			critical = append(critical, removed)
		}
	}
	sort.Strings(critical)
	return critical
}

func (m *Manager) undirectedAdjacencyLocked() map[string]map[string]struct{} {
	adj := map[string]map[string]struct{}{}
	ensure := func(n string) {
		if adj[n] == nil {
			adj[n] = map[string]struct{}{}
		}
	}
	for _, n := range m.g.Vertices() {
		ensure(n)
	}
	for _, rel := range m.byTriple {
		ensure(rel.from)
		ensure(rel.to)
		adj[rel.from][rel.to] = struct{}{}
		adj[rel.to][rel.from] = struct{}{}
	}
	return adj
}

func weaklyConnected(nodes []string, adj map[string]map[string]struct{}) bool {
	if len(nodes) == 0 {
		return true
	}
	present := map[string]struct{}{}
	for _, n := range nodes {
		present[n] = struct{}{}
	}

	visited := map[string]struct{}{nodes[0]: {}}
	queue := []string{nodes[0]}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for nb := range adj[cur] {
			if _, ok := present[nb]; !ok {
				continue
			}
			if _, seen := visited[nb]; !seen {
				visited[nb] = struct{}{}
				queue = append(queue, nb)
			}
		}
	}
	return len(visited) == len(nodes)
}

// Stats summarizes graph-wide properties for the control surface's
// graph_stats operation.
type Stats struct {
	TotalContainers int      `json:"total_containers"`
	TotalRelations  int      `json:"total_relations"`
	IsConnected     bool     `json:"is_connected"`
	HasCycles       bool     `json:"has_cycles"`
	Density         float64  `json:"density"`
	CriticalNodes   []string `json:"critical_containers"`
}

func (m *Manager) ComputeStats() Stats {
	m.mu.Lock()
	nodes := m.g.Vertices()
	edgeCount := len(m.byTriple)
	undirected := m.undirectedAdjacencyLocked()
	_, cycles, _ := dfs.DetectCycles(m.g)
	m.mu.Unlock()

	v := len(nodes)
	var density float64
	if v > 1 {
		density = float64(edgeCount) / float64(v*(v-1))
	}

	return Stats{
		TotalContainers: v,
		TotalRelations:  edgeCount,
		IsConnected:     weaklyConnected(nodes, undirected),
		HasCycles:       len(cycles) > 0,
		Density:         density,
		CriticalNodes:   m.CriticalNodes(),
	}
}

// Edges returns every tracked relation, for export and inspection.
func (m *Manager) Edges() []Relation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Relation, 0, len(m.byTriple))
	for _, rel := range m.byTriple {
		out = append(out, Relation{From: rel.from, To: rel.to, Type: rel.typ, Weight: rel.weight})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		if out[i].To != out[j].To {
			return out[i].To < out[j].To
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Nodes returns every vertex name, sorted.
func (m *Manager) Nodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	nodes := append([]string(nil), m.g.Vertices()...)
	sort.Strings(nodes)
	return nodes
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
