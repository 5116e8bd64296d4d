package server

import (
	"context"
	"net/http"

	"github.com/LdDl/railtopo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

type TopologyService interface {
	Anschluss(ctx context.Context, doc *railtopo.Document) (*railtopo.Document, []PointRoles, error)
	Split(ctx context.Context, doc *railtopo.Document, cuts map[string]float64) (*railtopo.Document, *railtopo.Document, error)
	Union(ctx context.Context, docA, docB *railtopo.Document, pairs map[string]string, tolerance float64) (*railtopo.Document, error)
	GeoJSON(ctx context.Context, doc *railtopo.Document) ([]byte, error)
}

type TopologyHandler struct {
	svc      TopologyService
	validate *validator.Validate
	trans    ut.Translator
}

func NewTopologyHandler(svc TopologyService) *TopologyHandler {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	return &TopologyHandler{svc: svc, validate: validate, trans: trans}
}

func TopologyRouter(r *chi.Mux, svc TopologyService) {
	handler := NewTopologyHandler(svc)

	r.Group(func(r chi.Router) {
		r.Route("/api/topology", func(r chi.Router) {
			r.Post("/anschluss", handler.Anschluss)
			r.Post("/split", handler.Split)
			r.Post("/union", handler.Union)
			r.Post("/geojson", handler.GeoJSON)
		})
	})
}

// bind decodes and validates request body, writing error response on failure
func (h *TopologyHandler) bind(w http.ResponseWriter, r *http.Request, data render.Binder) bool {
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return false
	}
	if err := h.validate.Struct(data); err != nil {
		render.Render(w, r, ErrValidation(err, translateError(err, h.trans)))
		return false
	}
	return true
}

func failed(w http.ResponseWriter, r *http.Request, operation string, err error) {
	OperationFailTotal.WithLabelValues(operation).Inc()
	render.Render(w, r, ErrTopology(err))
}

type TopologyRequest struct {
	Topology *railtopo.Document `json:"topology" validate:"required"`
}

func (s *TopologyRequest) Bind(r *http.Request) error {
	if s.Topology == nil {
		return errors.New("invalid request")
	}
	TopologyEdges.Observe(float64(len(s.Topology.Edges)))
	return nil
}

type AnschlussResponse struct {
	Topology *railtopo.Document `json:"topology"`
	Points   []PointRoles       `json:"points"`
}

// Anschluss resolves head, left and right edges of every point
func (h *TopologyHandler) Anschluss(w http.ResponseWriter, r *http.Request) {
	data := &TopologyRequest{}
	if !h.bind(w, r, data) {
		return
	}
	doc, points, err := h.svc.Anschluss(r.Context(), data.Topology)
	if err != nil {
		failed(w, r, "anschluss", err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &AnschlussResponse{Topology: doc, Points: points})
}

type CutRequest struct {
	EdgeID   string  `json:"edge_uuid" validate:"required"`
	Distance float64 `json:"distance" validate:"gt=0"`
}

type SplitRequest struct {
	Topology *railtopo.Document `json:"topology" validate:"required"`
	Cuts     []CutRequest       `json:"cuts" validate:"required,min=1,dive"`
}

func (s *SplitRequest) Bind(r *http.Request) error {
	if s.Topology == nil || len(s.Cuts) == 0 {
		return errors.New("invalid request")
	}
	TopologyEdges.Observe(float64(len(s.Topology.Edges)))
	return nil
}

type SplitResponse struct {
	A *railtopo.Document `json:"a"`
	B *railtopo.Document `json:"b"`
}

// Split cuts topology into two
func (h *TopologyHandler) Split(w http.ResponseWriter, r *http.Request) {
	data := &SplitRequest{}
	if !h.bind(w, r, data) {
		return
	}
	cuts := make(map[string]float64, len(data.Cuts))
	for _, c := range data.Cuts {
		if _, ok := cuts[c.EdgeID]; ok {
			render.Render(w, r, ErrInvalidRequest(errors.Errorf("edge '%s' is cut twice", c.EdgeID)))
			return
		}
		cuts[c.EdgeID] = c.Distance
	}
	a, b, err := h.svc.Split(r.Context(), data.Topology, cuts)
	if err != nil {
		failed(w, r, "split", err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, &SplitResponse{A: a, B: b})
}

type PairRequest struct {
	NodeA string `json:"node_a" validate:"required"`
	NodeB string `json:"node_b" validate:"required"`
}

type UnionRequest struct {
	A         *railtopo.Document `json:"a" validate:"required"`
	B         *railtopo.Document `json:"b" validate:"required"`
	Pairs     []PairRequest      `json:"pairs" validate:"omitempty,dive"`
	Tolerance float64            `json:"tolerance" validate:"gte=0"`
}

func (s *UnionRequest) Bind(r *http.Request) error {
	if s.A == nil || s.B == nil {
		return errors.New("invalid request")
	}
	TopologyEdges.Observe(float64(len(s.A.Edges)))
	TopologyEdges.Observe(float64(len(s.B.Edges)))
	return nil
}

// Union merges two topologies at given pairs of track ends, or at ends closer than tolerance
func (h *TopologyHandler) Union(w http.ResponseWriter, r *http.Request) {
	data := &UnionRequest{}
	if !h.bind(w, r, data) {
		return
	}
	pairs := make(map[string]string, len(data.Pairs))
	for _, p := range data.Pairs {
		if _, ok := pairs[p.NodeA]; ok {
			render.Render(w, r, ErrInvalidRequest(errors.Errorf("node '%s' is matched twice", p.NodeA)))
			return
		}
		pairs[p.NodeA] = p.NodeB
	}
	merged, err := h.svc.Union(r.Context(), data.A, data.B, pairs, data.Tolerance)
	if err != nil {
		failed(w, r, "union", err)
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, merged)
}

// GeoJSON renders topology as feature collection
func (h *TopologyHandler) GeoJSON(w http.ResponseWriter, r *http.Request) {
	data := &TopologyRequest{}
	if !h.bind(w, r, data) {
		return
	}
	body, err := h.svc.GeoJSON(r.Context(), data.Topology)
	if err != nil {
		failed(w, r, "geojson", err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
