package server

import (
	"context"

	"github.com/LdDl/railtopo"
	"github.com/pkg/errors"
)

// PointRoles is resolved connectivity of single point
type PointRoles struct {
	NodeID string `json:"node_id"`
	Head   string `json:"head,omitempty"`
	Left   string `json:"left,omitempty"`
	Right  string `json:"right,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Service is topology engine behind HTTP handlers
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Anschluss resolves roles of every point. Points which can't be resolved carry error text
func (s *Service) Anschluss(ctx context.Context, doc *railtopo.Document) (*railtopo.Document, []PointRoles, error) {
	topology, err := railtopo.FromDocument(doc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't load topology")
	}
	points := topology.Points()
	result := make([]PointRoles, 0, len(points))
	for _, node := range points {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		pr := PointRoles{NodeID: node.ID}
		roles, err := node.Roles()
		if err != nil {
			pr.Error = err.Error()
			result = append(result, pr)
			continue
		}
		pr.Head = roles.Head.ID
		pr.Left = roles.Left.ID
		pr.Right = roles.Right.ID
		result = append(result, pr)
	}
	resolved, err := topology.ToDocument()
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't prepare topology")
	}
	return resolved, result, nil
}

// Split cuts topology at edges given by identifiers
func (s *Service) Split(ctx context.Context, doc *railtopo.Document, cuts map[string]float64) (*railtopo.Document, *railtopo.Document, error) {
	topology, err := railtopo.FromDocument(doc)
	if err != nil {
		return nil, nil, errors.Wrap(err, "Can't load topology")
	}
	prepared := make([]railtopo.Cut, 0, len(cuts))
	for _, edge := range topology.Edges() {
		distance, ok := cuts[edge.ID]
		if !ok {
			continue
		}
		prepared = append(prepared, railtopo.Cut{Edge: edge, Distance: distance})
	}
	if len(prepared) != len(cuts) {
		return nil, nil, errors.Wrap(railtopo.ErrReference, "cut references unknown edge")
	}
	a, b, err := railtopo.Split(topology, prepared)
	if err != nil {
		return nil, nil, err
	}
	docA, err := a.ToDocument()
	if err != nil {
		return nil, nil, err
	}
	docB, err := b.ToDocument()
	if err != nil {
		return nil, nil, err
	}
	return docA, docB, nil
}

// Union merges two topologies. When pairs is empty track ends are matched by distance within tolerance
func (s *Service) Union(ctx context.Context, docA, docB *railtopo.Document, pairs map[string]string, tolerance float64) (*railtopo.Document, error) {
	a, err := railtopo.FromDocument(docA)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load first topology")
	}
	b, err := railtopo.FromDocument(docB)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load second topology")
	}
	var matching map[*railtopo.Node]*railtopo.Node
	if len(pairs) == 0 {
		matching, err = railtopo.MatchTrackEnds(a, b, tolerance)
		if err != nil {
			return nil, err
		}
	} else {
		matching = make(map[*railtopo.Node]*railtopo.Node, len(pairs))
		for idA, idB := range pairs {
			nodeA, ok := a.Node(idA)
			if !ok {
				return nil, errors.Wrapf(railtopo.ErrNodeNotInTopology, "node '%s' is not in first topology", idA)
			}
			nodeB, ok := b.Node(idB)
			if !ok {
				return nil, errors.Wrapf(railtopo.ErrNodeNotInTopology, "node '%s' is not in second topology", idB)
			}
			matching[nodeA] = nodeB
		}
	}
	merged, err := railtopo.Union(a, b, matching)
	if err != nil {
		return nil, err
	}
	return merged.ToDocument()
}

// GeoJSON renders topology as feature collection
func (s *Service) GeoJSON(ctx context.Context, doc *railtopo.Document) ([]byte, error) {
	topology, err := railtopo.FromDocument(doc)
	if err != nil {
		return nil, errors.Wrap(err, "Can't load topology")
	}
	return topology.GeoJSON()
}
