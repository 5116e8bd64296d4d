package railtopo

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Route is path between start and end signals
type Route struct {
	ID           string
	Name         string
	StartSignal  *Signal
	EndSignal    *Signal
	MaximumSpeed int
	Edges        []*Edge
}

// NewRoute starts route at signal. Edge of start signal always belongs to route
func NewRoute(start *Signal, options ...func(*Route)) (*Route, error) {
	if start == nil || start.Edge == nil {
		return nil, errors.Wrap(ErrValue, "Can't start route without placed signal")
	}
	route := &Route{
		ID:          uuid.NewString(),
		StartSignal: start,
		Edges:       []*Edge{start.Edge},
	}
	for _, option := range options {
		option(route)
	}
	return route, nil
}

func WithRouteID(id string) func(*Route) {
	return func(route *Route) {
		route.ID = id
	}
}

func WithRouteName(name string) func(*Route) {
	return func(route *Route) {
		route.Name = name
	}
}

func WithEndSignal(end *Signal) func(*Route) {
	return func(route *Route) {
		route.EndSignal = end
		if end != nil && end.Edge != nil {
			route.AddEdge(end.Edge)
		}
	}
}

func WithRouteMaximumSpeed(speed int) func(*Route) {
	return func(route *Route) {
		route.MaximumSpeed = speed
	}
}

// AddEdge adds edge to route once
func (route *Route) AddEdge(edge *Edge) {
	if !route.ContainsEdge(edge) {
		route.Edges = append(route.Edges, edge)
	}
}

func (route *Route) ContainsEdge(edge *Edge) bool {
	for _, e := range route.Edges {
		if e.ID == edge.ID {
			return true
		}
	}
	return false
}

// Length returns sum of lengths of route edges
func (route *Route) Length() (float64, error) {
	total := 0.0
	for _, edge := range route.Edges {
		l, err := edge.Length()
		if err != nil {
			return 0, errors.Wrapf(err, "Can't measure route '%s'", route.ID)
		}
		total += l
	}
	return total, nil
}

// EdgesInOrder walks from start signal in its direction until edge of end signal
func (route *Route) EdgesInOrder() ([]*Edge, error) {
	if route.EndSignal == nil {
		return nil, errors.Wrapf(ErrValue, "route '%s' has no end signal", route.ID)
	}
	previous := route.StartSignal.Edge
	next := route.StartSignal.NextNode()
	ordered := []*Edge{previous}
	for previous != route.EndSignal.Edge {
		var found *Edge
		for _, edge := range route.Edges {
			if edge == previous || containsEdge(ordered, edge) {
				continue
			}
			if edge.IsNodeConnected(next) {
				found = edge
				break
			}
		}
		if found == nil {
			return nil, errors.Wrapf(ErrReference, "route '%s' is broken at node '%s'", route.ID, next.ID)
		}
		ordered = append(ordered, found)
		next = found.OtherNode(next)
		previous = found
	}
	return ordered, nil
}
