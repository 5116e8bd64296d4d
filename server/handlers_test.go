package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LdDl/railtopo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(svc TopologyService) http.Handler {
	return NewRouter(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// lineDocument returns straight track along X axis through given coordinates
func lineDocument(t *testing.T, xs ...float64) (*railtopo.Document, []*railtopo.Node, []*railtopo.Edge) {
	t.Helper()
	topology := railtopo.NewTopology()
	nodes := make([]*railtopo.Node, len(xs))
	for i, x := range xs {
		nodes[i] = railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewMercatorPoint(x, 0)))
	}
	topology.AddNodes(nodes...)
	var edges []*railtopo.Edge
	for i := 1; i < len(nodes); i++ {
		edge, err := railtopo.NewEdge(nodes[i-1], nodes[i])
		require.NoError(t, err)
		require.NoError(t, topology.AddEdge(edge))
		edges = append(edges, edge)
	}
	doc, err := topology.ToDocument()
	require.NoError(t, err)
	return doc, nodes, edges
}

func pointDocument(t *testing.T) (*railtopo.Document, *railtopo.Node, []*railtopo.Edge) {
	t.Helper()
	topology := railtopo.NewTopology()
	point := railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewWGS84Point(50, 10)))
	others := []*railtopo.Node{
		railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewWGS84Point(0, 10))),
		railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewWGS84Point(100, 20))),
		railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewWGS84Point(100, 10))),
	}
	topology.AddNode(point)
	topology.AddNodes(others...)
	edges := make([]*railtopo.Edge, 0, len(others))
	for _, other := range others {
		edge, err := railtopo.NewEdge(point, other)
		require.NoError(t, err)
		require.NoError(t, topology.AddEdge(edge))
		edges = append(edges, edge)
	}
	doc, err := topology.ToDocument()
	require.NoError(t, err)
	return doc, point, edges
}

func post(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case string:
		payload = []byte(b)
	default:
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAnschlussHandler(t *testing.T) {
	h := newTestRouter(NewService())
	doc, point, edges := pointDocument(t)

	rec := post(t, h, "/api/topology/anschluss", map[string]interface{}{"topology": doc})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp AnschlussResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 1)
	assert.Equal(t, PointRoles{NodeID: point.ID, Head: edges[0].ID, Left: edges[1].ID, Right: edges[2].ID}, resp.Points[0])
	for _, node := range resp.Topology.Nodes {
		if node.ID == point.ID {
			assert.Equal(t, edges[0].ID, node.ConnectedOnHead)
		}
	}

	rec = post(t, h, "/api/topology/anschluss", "{}")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = post(t, h, "/api/topology/anschluss", "not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnschlussHandlerReportsImplausiblePoint(t *testing.T) {
	topology := railtopo.NewTopology()
	point := railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewWGS84Point(2, 2)))
	topology.AddNode(point)
	for _, xy := range [][2]float64{{0, 0}, {1, 3}, {3, 2}} {
		other := railtopo.NewNode(railtopo.WithGeoPoint(railtopo.NewWGS84Point(xy[0], xy[1])))
		topology.AddNode(other)
		edge, err := railtopo.NewEdge(point, other)
		require.NoError(t, err)
		require.NoError(t, topology.AddEdge(edge))
	}
	doc, err := topology.ToDocument()
	require.NoError(t, err)

	rec := post(t, newTestRouter(NewService()), "/api/topology/anschluss", map[string]interface{}{"topology": doc})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AnschlussResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Points, 1)
	assert.NotEmpty(t, resp.Points[0].Error)
	assert.Empty(t, resp.Points[0].Head)
}

func TestSplitHandler(t *testing.T) {
	h := newTestRouter(NewService())
	doc, _, edges := lineDocument(t, 0, 100, 200)

	rec := post(t, h, "/api/topology/split", map[string]interface{}{
		"topology": doc,
		"cuts":     []CutRequest{{EdgeID: edges[0].ID, Distance: 50}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SplitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.A)
	require.NotNil(t, resp.B)
	assert.Len(t, resp.A.Nodes, 2)
	assert.Len(t, resp.A.Edges, 1)
	assert.Len(t, resp.B.Nodes, 3)
	assert.Len(t, resp.B.Edges, 2)

	cases := []struct {
		name string
		cuts []CutRequest
	}{
		{"no cuts", nil},
		{"zero distance", []CutRequest{{EdgeID: edges[0].ID, Distance: 0}}},
		{"unknown edge", []CutRequest{{EdgeID: "missing", Distance: 10}}},
		{"cut twice", []CutRequest{{EdgeID: edges[0].ID, Distance: 10}, {EdgeID: edges[0].ID, Distance: 20}}},
		{"beyond edge", []CutRequest{{EdgeID: edges[0].ID, Distance: 150}}},
		{"three components", []CutRequest{{EdgeID: edges[0].ID, Distance: 10}, {EdgeID: edges[1].ID, Distance: 10}}},
	}
	for _, tc := range cases {
		rec := post(t, h, "/api/topology/split", map[string]interface{}{"topology": doc, "cuts": tc.cuts})
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.name)
	}
}

func TestUnionHandler(t *testing.T) {
	h := newTestRouter(NewService())
	docA, nodesA, _ := lineDocument(t, 0, 100)
	docB, nodesB, _ := lineDocument(t, 100, 200)

	rec := post(t, h, "/api/topology/union", map[string]interface{}{"a": docA, "b": docB, "tolerance": 1.0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var merged railtopo.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &merged))
	assert.Len(t, merged.Nodes, 2)
	assert.Len(t, merged.Edges, 1)

	rec = post(t, h, "/api/topology/union", map[string]interface{}{
		"a":     docA,
		"b":     docB,
		"pairs": []PairRequest{{NodeA: nodesA[1].ID, NodeB: nodesB[0].ID}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = post(t, h, "/api/topology/union", map[string]interface{}{
		"a":     docA,
		"b":     docB,
		"pairs": []PairRequest{{NodeA: nodesB[0].ID, NodeB: nodesA[1].ID}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h, "/api/topology/union", map[string]interface{}{"a": docA, "b": docB, "tolerance": -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = post(t, h, "/api/topology/union", map[string]interface{}{"a": docA})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeoJSONHandler(t *testing.T) {
	h := newTestRouter(NewService())
	doc, _, _ := pointDocument(t)

	rec := post(t, h, "/api/topology/geojson", map[string]interface{}{"topology": doc})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	var fc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.Len(t, fc.Features, 4+3)
}

type failingService struct {
	err error
}

func (s failingService) Anschluss(context.Context, *railtopo.Document) (*railtopo.Document, []PointRoles, error) {
	return nil, nil, s.err
}

func (s failingService) Split(context.Context, *railtopo.Document, map[string]float64) (*railtopo.Document, *railtopo.Document, error) {
	return nil, nil, s.err
}

func (s failingService) Union(context.Context, *railtopo.Document, *railtopo.Document, map[string]string, float64) (*railtopo.Document, error) {
	return nil, s.err
}

func (s failingService) GeoJSON(context.Context, *railtopo.Document) ([]byte, error) {
	return nil, s.err
}

func TestErrorMapping(t *testing.T) {
	doc, _, _ := lineDocument(t, 0, 100)
	body := map[string]interface{}{"topology": doc}

	rec := post(t, newTestRouter(failingService{err: errors.New("disk is on fire")}), "/api/topology/geojson", body)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk is on fire")

	rec = post(t, newTestRouter(failingService{err: errors.Wrap(railtopo.ErrGeometry, "bad point")}), "/api/topology/anschluss", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "bad point")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(NewService())
	doc, _, _ := pointDocument(t)
	post(t, h, "/api/topology/anschluss", map[string]interface{}{"topology": doc})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "railtopo_requests_total")
	assert.Contains(t, rec.Body.String(), "railtopo_topology_edges")
}
