package railtopo

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mercatorNode(x, y float64) *Node {
	return NewNode(WithGeoPoint(NewMercatorPoint(x, y)))
}

func TestEdgeLength(t *testing.T) {
	a := mercatorNode(0, 0)
	b := mercatorNode(10, 10)
	edge, err := NewEdge(a, b, WithIntermediateGeoNodes([]*GeoNode{NewGeoNode(NewMercatorPoint(10, 0))}))
	require.NoError(t, err)
	assert.False(t, edge.HasStoredLength())

	length, err := edge.Length()
	require.NoError(t, err)
	assert.Equal(t, 20.0, length)

	edge.SetLength(25)
	length, err = edge.Length()
	require.NoError(t, err)
	assert.Equal(t, 25.0, length)
	assert.True(t, edge.HasStoredLength())

	require.NoError(t, edge.UpdateLength())
	length, err = edge.Length()
	require.NoError(t, err)
	assert.Equal(t, 20.0, length)

	// no geometry and no explicit length
	bare, err := NewEdge(NewNode(), NewNode())
	require.NoError(t, err)
	_, err = bare.Length()
	assert.True(t, errors.Is(err, ErrGeometry))

	explicit, err := NewEdge(NewNode(), NewNode(), WithLength(100))
	require.NoError(t, err)
	length, err = explicit.Length()
	require.NoError(t, err)
	assert.Equal(t, 100.0, length)
}

func TestEdgeDistanceFunc(t *testing.T) {
	manhattan := func(p, q GeoPoint) (float64, error) {
		dx, dy := q.X()-p.X(), q.Y()-p.Y()
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		return dx + dy, nil
	}
	edge, err := NewEdge(mercatorNode(0, 0), mercatorNode(3, 4), WithDistanceFunc(manhattan))
	require.NoError(t, err)
	length, err := edge.Length()
	require.NoError(t, err)
	assert.Equal(t, 7.0, length)
}

func TestEdgeDirection(t *testing.T) {
	a := NewNode()
	b := NewNode()
	c := NewNode()
	edge, err := NewEdge(a, b)
	require.NoError(t, err)

	dir, err := edge.Direction(a, b)
	require.NoError(t, err)
	assert.Equal(t, Forward, dir)
	dir, err = edge.Direction(b, a)
	require.NoError(t, err)
	assert.Equal(t, Backward, dir)
	_, err = edge.Direction(a, c)
	assert.True(t, errors.Is(err, ErrValue))

	assert.Equal(t, b, edge.OtherNode(a))
	assert.Equal(t, a, edge.OtherNode(b))
	assert.Nil(t, edge.OtherNode(c))
	assert.True(t, edge.IsNodeConnected(a))
	assert.False(t, edge.IsNodeConnected(c))
	assert.Equal(t, []*Node{b}, a.ConnectedNodes())
}

func TestEdgePointAtDistance(t *testing.T) {
	edge, err := NewEdge(
		mercatorNode(0, 0),
		mercatorNode(10, 10),
		WithIntermediateGeoNodes([]*GeoNode{NewGeoNode(NewMercatorPoint(10, 0))}),
	)
	require.NoError(t, err)

	pt, idx, err := edge.PointAtDistance(15)
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.InDelta(t, 10.0, pt.X(), 1e-9)
	assert.InDelta(t, 5.0, pt.Y(), 1e-9)

	// explicit length is scaled onto geometry
	edge.SetLength(40)
	pt, idx, err = edge.PointAtDistance(10)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
	assert.InDelta(t, 5.0, pt.X(), 1e-9)
	assert.InDelta(t, 0.0, pt.Y(), 1e-9)
}

func TestSignalPlacement(t *testing.T) {
	a := mercatorNode(0, 0)
	b := mercatorNode(100, 0)
	edge, err := NewEdge(a, b)
	require.NoError(t, err)

	in, err := NewSignal(edge, 30, SignalIn, EinfahrSignal, Hauptsignal, WithSignalName("A1"))
	require.NoError(t, err)
	assert.Equal(t, a, in.PreviousNode())
	assert.Equal(t, b, in.NextNode())
	assert.Equal(t, 3.95, in.SideDistance)
	assert.Equal(t, "60", in.ClassificationNumber)
	assert.NotEmpty(t, in.ControlMemberID)

	gegen, err := NewSignal(edge, 30, SignalGegen, AusfahrSignal, Vorsignal)
	require.NoError(t, err)
	assert.Equal(t, b, gegen.PreviousNode())
	assert.Equal(t, a, gegen.NextNode())
	assert.Equal(t, -3.95, gegen.SideDistance)
	offset, err := gegen.offsetFromNodeA()
	require.NoError(t, err)
	assert.Equal(t, 70.0, offset)

	assert.Len(t, edge.Signals, 2)

	_, err = NewSignal(edge, -1, SignalIn, Blocksignal, Hauptsignal)
	assert.True(t, errors.Is(err, ErrValue))
	_, err = NewSignal(nil, 1, SignalIn, Blocksignal, Hauptsignal)
	assert.True(t, errors.Is(err, ErrValue))
}

func TestSignalNames(t *testing.T) {
	assert.Equal(t, SignalGegen, ParseSignalDirection("gegen"))
	assert.Equal(t, SignalIn, ParseSignalDirection("anything"))
	assert.Equal(t, AusfahrSignal, ParseSignalFunction(AusfahrSignal.String()))
	assert.Equal(t, OtherSignalFunction, ParseSignalFunction("unknown"))
	assert.Equal(t, Sperrsignal, ParseSignalKind(Sperrsignal.String()))
	assert.Equal(t, OtherSignalKind, ParseSignalKind("unknown"))
}

func TestAdditionalSignal(t *testing.T) {
	zs3, err := NewAdditionalSignal(Zs3, "8", "16")
	require.NoError(t, err)
	assert.Equal(t, []string{"8", "16"}, zs3.Symbols)
	_, err = NewAdditionalSignal(Zs3, "17")
	assert.True(t, errors.Is(err, ErrValue))

	_, err = NewAdditionalSignal(Zs2, "A", "B")
	require.NoError(t, err)
	_, err = NewAdditionalSignal(Zs2, "Q")
	assert.True(t, errors.Is(err, ErrValue))

	zs1, err := NewAdditionalSignal(Zs1, "Zs1")
	require.NoError(t, err)
	cp := zs1.Copy()
	assert.Equal(t, zs1.ID, cp.ID)
	cp.Symbols[0] = "changed"
	assert.Equal(t, "Zs1", zs1.Symbols[0])
}

func TestRouteEdgesInOrder(t *testing.T) {
	a := mercatorNode(0, 0)
	b := mercatorNode(100, 0)
	c := mercatorNode(200, 0)
	d := mercatorNode(300, 0)
	ab, err := NewEdge(a, b)
	require.NoError(t, err)
	bc, err := NewEdge(b, c)
	require.NoError(t, err)
	cd, err := NewEdge(c, d)
	require.NoError(t, err)

	start, err := NewSignal(ab, 50, SignalIn, AusfahrSignal, Hauptsignal)
	require.NoError(t, err)
	end, err := NewSignal(cd, 50, SignalIn, EinfahrSignal, Hauptsignal)
	require.NoError(t, err)

	route, err := NewRoute(start, WithEndSignal(end), WithRouteMaximumSpeed(80))
	require.NoError(t, err)
	route.AddEdge(bc)
	route.AddEdge(bc)
	assert.Len(t, route.Edges, 3)

	ordered, err := route.EdgesInOrder()
	require.NoError(t, err)
	assert.Equal(t, []*Edge{ab, bc, cd}, ordered)

	length, err := route.Length()
	require.NoError(t, err)
	assert.Equal(t, 300.0, length)

	broken, err := NewRoute(start, WithEndSignal(end))
	require.NoError(t, err)
	_, err = broken.EdgesInOrder()
	assert.True(t, errors.Is(err, ErrReference))

	open, err := NewRoute(start)
	require.NoError(t, err)
	_, err = open.EdgesInOrder()
	assert.True(t, errors.Is(err, ErrValue))
}

func TestTrip(t *testing.T) {
	edge, err := NewEdge(mercatorNode(0, 0), mercatorNode(100, 0))
	require.NoError(t, err)
	trip := NewTrip("", []*Edge{edge})
	assert.Len(t, trip.Name, 4)
	length, err := trip.Length()
	require.NoError(t, err)
	assert.Equal(t, 100.0, length)
}
