package speaker

import (
	"time"
)

// farPast seeds lastSeen so the first post never counts as adjacent to the
// pre-window silence.
const farPast = int64(-1) << 40

// Activity is one entry of the window's speaker-activity ranking.
type Activity struct {
	Name  string
	Count int
}

// Node is one speaker in the graph. The json field names match the D3
// consumer: r is the activity count used for node radius.
type Node struct {
	Name     string `json:"name"`
	Count    int    `json:"r"`
	lastSeen int64
}

// Graph is the directed co-presence matrix over one window's speakers.
// Matrix[i][j] counts the times speaker i posted while speaker j was active
// within the recency threshold; it is deliberately not symmetric. Nodes and
// the name index are built once per window and read-only afterwards.
type Graph struct {
	nodes     []Node
	index     map[string]int
	matrix    [][]int
	threshold int64
}

// NewGraph seeds the graph from the activity ranking, most active first.
func NewGraph(ranking []Activity, threshold time.Duration) *Graph {
	g := &Graph{
		nodes:     make([]Node, 0, len(ranking)),
		index:     make(map[string]int, len(ranking)),
		matrix:    make([][]int, len(ranking)),
		threshold: int64(threshold / time.Second),
	}
	for i, a := range ranking {
		g.nodes = append(g.nodes, Node{Name: a.Name, Count: a.Count, lastSeen: farPast})
		g.index[a.Name] = i
		g.matrix[i] = make([]int, len(ranking))
	}
	return g
}

// Observe registers a post. For every other speaker seen within the recency
// threshold before ts, the edge current→other is incremented; then the
// current speaker's last-seen timestamp advances. Posts by speakers outside
// the seeded node set are ignored.
func (g *Graph) Observe(name string, ts int64) {
	i, ok := g.index[name]
	if !ok {
		return
	}
	for j := range g.nodes {
		if j == i {
			continue
		}
		if ts-g.nodes[j].lastSeen < g.threshold {
			g.matrix[i][j]++
		}
	}
	g.nodes[i].lastSeen = ts
}

// Edge returns the current weight of the directed edge from→to, for tests
// and diagnostics. Zero for unknown names.
func (g *Graph) Edge(from, to string) int {
	i, iok := g.index[from]
	j, jok := g.index[to]
	if !iok || !jok {
		return 0
	}
	return g.matrix[i][j]
}

// Snapshot is the serialized graph shape embedded into archive pages and
// json exports.
type Snapshot struct {
	Nodes  []Node  `json:"nodes"`
	Matrix [][]int `json:"matrix"`
	Label  string  `json:"label"`
}

// Snapshot copies the graph state under a window label.
func (g *Graph) Snapshot(label string) *Snapshot {
	nodes := make([]Node, len(g.nodes))
	copy(nodes, g.nodes)
	matrix := make([][]int, len(g.matrix))
	for i, row := range g.matrix {
		matrix[i] = make([]int, len(row))
		copy(matrix[i], row)
	}
	return &Snapshot{Nodes: nodes, Matrix: matrix, Label: label}
}
