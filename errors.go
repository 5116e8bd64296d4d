package railtopo

import (
	"github.com/pkg/errors"
)

var (
	// ErrGeometry means that roles of a point can't be derived from its coordinates
	ErrGeometry = errors.New("implausible geometry")
	// ErrDegree means that a node has a number of connected edges which is not supported by operation
	ErrDegree = errors.New("unsupported node degree")
	// ErrReference means that an entity references another one which is absent in the topology
	ErrReference = errors.New("dangling reference")
	// ErrPartition means that cut edges do not divide the topology into exactly two parts
	ErrPartition = errors.New("cut does not yield exactly two components")
	// ErrValue is the common kind for precondition failures on input values
	ErrValue = errors.New("invalid value")

	ErrNodeNotInTopology = errors.WithMessage(ErrValue, "node does not belong to topology")
	ErrPointNode         = errors.WithMessage(ErrValue, "node is a point")
	ErrNotTrackEnd       = errors.WithMessage(ErrValue, "node is not a track end")
	ErrIDConflict        = errors.WithMessage(ErrValue, "identifier is used in both topologies")
	ErrSelfLoop          = errors.WithMessage(ErrValue, "edge must connect two different nodes")
	ErrCutDistance       = errors.WithMessage(ErrValue, "cut distance must lie strictly inside the edge")

	// ErrCoordinateSystemMismatch means that two points of different coordinate systems have been compared
	ErrCoordinateSystemMismatch = errors.New("coordinate systems do not match")
	// ErrUnsupportedConversion means that there is no conversion between two coordinate systems
	ErrUnsupportedConversion = errors.New("unsupported coordinate conversion")
)
