package railtopo

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain returns topology n1 - n2 - ... - nk without geometry
func chain(t *testing.T, k int) (*Topology, []*Node, []*Edge) {
	t.Helper()
	nodes := make([]*Node, k)
	for i := range nodes {
		nodes[i] = NewNode()
	}
	edges := make([]*Edge, 0, k-1)
	for i := 1; i < k; i++ {
		edges = append(edges, connect(t, nodes[i-1], nodes[i]))
	}
	topology := NewTopology()
	topology.AddNodes(nodes...)
	require.NoError(t, topology.AddEdges(edges...))
	return topology, nodes, edges
}

func TestSimpleUnion(t *testing.T) {
	a, nodesA, edgesA := chain(t, 3)
	b, nodesB, edgesB := chain(t, 3)
	a.Name = "left"

	merged, err := Union(a, b, map[*Node]*Node{nodesA[2]: nodesB[0]})
	require.NoError(t, err)
	assert.Equal(t, a.NodesNum()+b.NodesNum()-2, merged.NodesNum())
	assert.Equal(t, a.EdgesNum()+b.EdgesNum()-2+1, merged.EdgesNum())
	assert.Equal(t, "left", merged.Name)
	assert.NoError(t, merged.Validate())

	_, ok := merged.Node(nodesA[2].ID)
	assert.False(t, ok, "matched track end must disappear")
	_, ok = merged.Node(nodesB[0].ID)
	assert.False(t, ok)
	assertNoEdges(t, merged, edgesA[1], edgesB[0])
	assertHasEdges(t, merged, edgesA[0], edgesB[1])

	left, _ := merged.Node(nodesA[1].ID)
	right, _ := merged.Node(nodesB[1].ID)
	join, ok := merged.GetEdgeByNodes(left, right)
	require.True(t, ok, "neighbours must be joined")
	assert.Equal(t, left, join.NodeA)
	assert.Equal(t, 2, left.Degree())
	assert.Equal(t, 2, right.Degree())

	// inputs stay untouched
	assert.Equal(t, 3, a.NodesNum())
	assert.Equal(t, 1, nodesA[2].Degree())
}

func TestComplexUnion(t *testing.T) {
	a, nodesA, _ := chain(t, 4)
	b, nodesB, _ := chain(t, 4)

	merged, err := Union(a, b, map[*Node]*Node{
		nodesA[0]: nodesB[0],
		nodesA[3]: nodesB[3],
	})
	require.NoError(t, err)
	assert.Equal(t, a.NodesNum()+b.NodesNum()-4, merged.NodesNum())
	assert.Equal(t, a.EdgesNum()+b.EdgesNum()-4+2, merged.EdgesNum())
	assert.Empty(t, merged.TrackEnds(), "ring has no track ends")
	assert.NoError(t, merged.Validate())
}

func TestUnionInvalidMatching(t *testing.T) {
	a, nodesA, _ := chain(t, 3)
	b, nodesB, _ := chain(t, 3)

	_, err := Union(a, b, map[*Node]*Node{nodesB[0]: nodesB[2]})
	assert.True(t, errors.Is(err, ErrNodeNotInTopology), "got %v", err)
	_, err = Union(a, b, map[*Node]*Node{nodesA[0]: nodesA[2]})
	assert.True(t, errors.Is(err, ErrNodeNotInTopology), "got %v", err)

	_, err = Union(a, b, map[*Node]*Node{nodesA[1]: nodesB[0]})
	assert.True(t, errors.Is(err, ErrNotTrackEnd), "got %v", err)
	assert.True(t, errors.Is(err, ErrValue))

	_, err = Union(a, b, map[*Node]*Node{nodesA[0]: nodesB[0], nodesA[2]: nodesB[0]})
	assert.True(t, errors.Is(err, ErrValue), "got %v", err)

	// both ends of single edge can't be matched
	single, ends, _ := chain(t, 2)
	_, err = Union(single, b, map[*Node]*Node{ends[0]: nodesB[0], ends[1]: nodesB[2]})
	assert.True(t, errors.Is(err, ErrNotTrackEnd), "got %v", err)
}

func TestUnionPointNode(t *testing.T) {
	a := NewTopology()
	point := createNode(50, 10)
	others := []*Node{createNode(0, 10), createNode(100, 10), createNode(100, 20)}
	a.AddNode(point)
	a.AddNodes(others...)
	for _, other := range others {
		require.NoError(t, a.AddEdge(connect(t, point, other)))
	}
	b, nodesB, _ := chain(t, 2)

	_, err := Union(a, b, map[*Node]*Node{point: nodesB[0]})
	assert.True(t, errors.Is(err, ErrPointNode), "got %v", err)
}

func TestUnionIDConflict(t *testing.T) {
	a, nodesA, _ := chain(t, 3)
	b := NewTopology()
	endB := NewNode()
	clash := NewNode(WithNodeID(nodesA[0].ID))
	b.AddNodes(endB, clash)
	require.NoError(t, b.AddEdge(connect(t, endB, clash)))

	_, err := Union(a, b, map[*Node]*Node{nodesA[2]: endB})
	assert.True(t, errors.Is(err, ErrIDConflict), "got %v", err)

	// identifiers of removed ends and stubs may coincide
	c := NewTopology()
	sameEnd := NewNode(WithNodeID(nodesA[2].ID))
	far := NewNode()
	c.AddNodes(sameEnd, far)
	require.NoError(t, c.AddEdge(connect(t, sameEnd, far)))
	_, err = Union(a, c, map[*Node]*Node{nodesA[2]: sameEnd})
	assert.NoError(t, err)
}

func TestUnionMovesSignals(t *testing.T) {
	a := NewTopology()
	startA := mercatorNode(0, 0)
	endA := mercatorNode(100, 0)
	a.AddNodes(startA, endA)
	stubA := connect(t, startA, endA)
	require.NoError(t, a.AddEdge(stubA))
	signalA, err := NewSignal(stubA, 30, SignalIn, EinfahrSignal, Hauptsignal)
	require.NoError(t, err)
	require.NoError(t, a.AddSignal(signalA))
	route, err := NewRoute(signalA)
	require.NoError(t, err)
	require.NoError(t, a.AddRoute(route))

	// stub of b runs towards its track end
	b := NewTopology()
	endB := mercatorNode(100, 0)
	farB := mercatorNode(200, 0)
	b.AddNodes(endB, farB)
	stubB := connect(t, farB, endB)
	require.NoError(t, b.AddEdge(stubB))
	signalB, err := NewSignal(stubB, 20, SignalIn, AusfahrSignal, Hauptsignal)
	require.NoError(t, err)
	require.NoError(t, b.AddSignal(signalB))

	section := NewVacancySection("shared")
	a.AddVacancySection(section)
	b.AddVacancySection(&VacancySection{ID: section.ID, Name: section.Name})

	matching, err := MatchTrackEnds(a, b, 1.0)
	require.NoError(t, err)
	require.Equal(t, map[*Node]*Node{endA: endB}, matching)

	merged, err := Union(a, b, matching)
	require.NoError(t, err)
	require.Equal(t, 1, merged.EdgesNum())
	join := merged.Edges()[0]
	assert.Equal(t, startA.ID, join.NodeA.ID)
	assert.Equal(t, farB.ID, join.NodeB.ID)
	length, err := join.Length()
	require.NoError(t, err)
	assert.InDelta(t, 200.0, length, 1e-9)

	movedA, ok := merged.Signal(signalA.ID)
	require.True(t, ok)
	assert.Equal(t, join, movedA.Edge)
	assert.Equal(t, SignalIn, movedA.Direction)
	assert.InDelta(t, 30.0, movedA.DistancePreviousNode, 1e-9)

	movedB, ok := merged.Signal(signalB.ID)
	require.True(t, ok)
	assert.Equal(t, join, movedB.Edge)
	assert.Equal(t, SignalGegen, movedB.Direction)
	assert.InDelta(t, 20.0, movedB.DistancePreviousNode, 1e-9)
	assert.Equal(t, farB.ID, movedB.PreviousNode().ID)

	routes := merged.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, []*Edge{join}, routes[0].Edges)
	assert.Len(t, merged.VacancySections(), 1)
	assert.NoError(t, merged.Validate())
}

func TestMatchTrackEnds(t *testing.T) {
	a := NewTopology()
	a1, a2 := mercatorNode(0, 0), mercatorNode(100, 0)
	a.AddNodes(a1, a2)
	require.NoError(t, a.AddEdge(connect(t, a1, a2)))

	b := NewTopology()
	b1, b2 := mercatorNode(100.5, 0), mercatorNode(300, 0)
	b.AddNodes(b1, b2)
	require.NoError(t, b.AddEdge(connect(t, b1, b2)))

	matching, err := MatchTrackEnds(a, b, 1.0)
	require.NoError(t, err)
	assert.Equal(t, map[*Node]*Node{a2: b1}, matching)

	matching, err = MatchTrackEnds(a, b, 0.1)
	require.NoError(t, err)
	assert.Empty(t, matching)

	_, err = MatchTrackEnds(a, b, -1)
	assert.True(t, errors.Is(err, ErrValue))

	c := NewTopology()
	c1, c2 := createNode(0, 0), createNode(1, 0)
	c.AddNodes(c1, c2)
	require.NoError(t, c.AddEdge(connect(t, c1, c2)))
	_, err = MatchTrackEnds(a, c, 1.0)
	assert.True(t, errors.Is(err, ErrCoordinateSystemMismatch))
}

func TestUnionKeepsTrips(t *testing.T) {
	a := NewTopology()
	a0, a1, a2 := mercatorNode(0, 0), mercatorNode(100, 0), mercatorNode(200, 0)
	a.AddNodes(a0, a1, a2)
	e0 := connect(t, a0, a1)
	e1 := connect(t, a1, a2)
	require.NoError(t, a.AddEdges(e0, e1))

	b := NewTopology()
	b0, b1 := mercatorNode(200, 0), mercatorNode(300, 0)
	b.AddNodes(b0, b1)
	require.NoError(t, b.AddEdge(connect(t, b0, b1)))

	trip := NewTrip("4711", []*Edge{e0, e1})
	entry, err := NewSignal(e0, 30, SignalIn, EinfahrSignal, Hauptsignal)
	require.NoError(t, err)
	entry.Trip = trip
	exit, err := NewSignal(e1, 10, SignalIn, AusfahrSignal, Hauptsignal)
	require.NoError(t, err)
	exit.Trip = trip
	require.NoError(t, a.AddSignals(entry, exit))

	merged, err := Union(a, b, map[*Node]*Node{a2: b0})
	require.NoError(t, err)
	left, _ := merged.Node(a1.ID)
	right, _ := merged.Node(b1.ID)
	join, ok := merged.GetEdgeByNodes(left, right)
	require.True(t, ok)
	first, ok := merged.Edge(e0.ID)
	require.True(t, ok)

	movedEntry, ok := merged.Signal(entry.ID)
	require.True(t, ok)
	require.NotNil(t, movedEntry.Trip)
	assert.Equal(t, trip.ID, movedEntry.Trip.ID)
	assert.Equal(t, "4711", movedEntry.Trip.Name)
	assert.Equal(t, []*Edge{first, join}, movedEntry.Trip.Edges)

	movedExit, ok := merged.Signal(exit.ID)
	require.True(t, ok)
	assert.Same(t, movedEntry.Trip, movedExit.Trip, "trip is copied once")
	assert.Equal(t, []*Edge{e0, e1}, trip.Edges, "source trip stays untouched")
	assert.NoError(t, merged.Validate())

	length, err := movedEntry.Trip.Length()
	require.NoError(t, err)
	assert.InDelta(t, 300.0, length, 1e-9)
}
