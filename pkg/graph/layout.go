package graph

import (
	"math"

	"github.com/OFFIS-RIT/factgraph/pkg/common"

	"gonum.org/v1/gonum/graph/layout"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// relationGraph is the directed graph of one relation. Node ids index names
// and positions.
type relationGraph struct {
	g     *simple.DirectedGraph
	names []string
	ids   map[string]int64
	edges [][2]int64
}

func buildRelationGraph(pairs []common.Pair) *relationGraph {
	rg := &relationGraph{
		g:   simple.NewDirectedGraph(),
		ids: make(map[string]int64),
	}

	for _, p := range pairs {
		from := rg.node(p.Source)
		to := rg.node(p.Target)
		if from == to {
			continue
		}
		if rg.g.HasEdgeFromTo(from, to) {
			continue
		}
		rg.g.SetEdge(rg.g.NewEdge(rg.g.Node(from), rg.g.Node(to)))
		rg.edges = append(rg.edges, [2]int64{from, to})
	}

	return rg
}

func (rg *relationGraph) node(name string) int64 {
	if id, ok := rg.ids[name]; ok {
		return id
	}
	id := int64(len(rg.names))
	rg.g.AddNode(simple.Node(id))
	rg.ids[name] = id
	rg.names = append(rg.names, name)
	return id
}

// positions runs a force-directed layout and scales the result into the unit
// square. An empty graph has no positions.
func (rg *relationGraph) positions(updates int) []r2.Vec {
	n := len(rg.names)
	if n == 0 {
		return nil
	}

	pos := make([]r2.Vec, n)
	if n > 1 {
		eades := layout.EadesR2{Repulsion: 1, Rate: 0.05, Updates: updates, Theta: 0.2}
		o := layout.NewOptimizerR2(rg.g, eades.Update)
		for o.Update() {
		}
		for id := range pos {
			pos[id] = o.Coord2(int64(id))
		}
	}

	normalize(pos)
	return pos
}

// normalize maps the points onto [0,1] in both axes. A degenerate axis is
// centered.
func normalize(pos []r2.Vec) {
	if len(pos) == 0 {
		return
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pos {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	for i := range pos {
		pos[i].X = scale(pos[i].X, minX, maxX)
		pos[i].Y = scale(pos[i].Y, minY, maxY)
	}
}

func scale(v, lo, hi float64) float64 {
	if hi-lo < 1e-12 {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}

// avoidOverlap nudges pairs of nodes closer than threshold apart, the first
// node by +step and the second by -step on both axes. A sweep handles at most
// one pair per node. It stops after the first sweep without overlaps, or
// after maxSweeps, and returns the number of sweeps that moved nodes.
func avoidOverlap(pos []r2.Vec, threshold, step float64, maxSweeps int) int {
	for sweep := 0; sweep < maxSweeps; sweep++ {
		moved := false
		for i := range pos {
			for j := i + 1; j < len(pos); j++ {
				if math.Hypot(pos[i].X-pos[j].X, pos[i].Y-pos[j].Y) >= threshold {
					continue
				}
				pos[i].X += step
				pos[i].Y += step
				pos[j].X -= step
				pos[j].Y -= step
				moved = true
				break
			}
		}
		if !moved {
			return sweep
		}
	}
	return maxSweeps
}
