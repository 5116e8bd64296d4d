package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/LdDl/railtopo"
	"github.com/pkg/errors"
)

func readTopology(filename string) (*railtopo.Topology, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(filename) {
	case ".json":
		return railtopo.FromJSON(data)
	case ".rtb":
		return railtopo.FromBinary(data)
	default:
		return nil, fmt.Errorf("File extension '%s' for file '%s' is not handled yet", filepath.Ext(filename), filename)
	}
}

func writeTopology(filename string, topology *railtopo.Topology) error {
	var data []byte
	var err error
	switch filepath.Ext(filename) {
	case ".json":
		data, err = topology.ToJSON()
	case ".rtb":
		data, err = topology.ToBinary()
	default:
		return fmt.Errorf("File extension '%s' for file '%s' is not handled yet", filepath.Ext(filename), filename)
	}
	if err != nil {
		return errors.Wrapf(err, "Can't encode topology for '%s'", filename)
	}
	return os.WriteFile(filename, data, 0644)
}

func exportCSV(topology *railtopo.Topology, out, geomFormat string) error {
	fnamePart := strings.Split(out, ".csv") // to guarantee proper filename and its extension
	fnameEdges := fnamePart[0] + ".csv"
	fnameVertices := fnamePart[0] + "_vertices.csv"

	/* Edges file */
	fileEdges, err := os.Create(fnameEdges)
	if err != nil {
		return err
	}
	defer fileEdges.Close()
	writerEdges := csv.NewWriter(fileEdges)
	defer writerEdges.Flush()
	writerEdges.Comma = ';'
	// 		edge_id - string, ID of edge
	// 		node_a - string, ID of first node
	// 		node_b - string, ID of second node
	// 		length - float64, Length of an edge (meters)
	//      signals - int, Number of signals on edge
	//      geom - geometry (WKT or GeoJSON representation)
	err = writerEdges.Write([]string{"edge_id", "node_a", "node_b", "length", "signals", "geom"})
	if err != nil {
		return err
	}
	for _, edge := range topology.Edges() {
		length, err := edge.Length()
		if err != nil {
			return errors.Wrapf(err, "Can't export edge '%s'", edge.ID)
		}
		geomStr := ""
		if line, err := edge.Geometry(); err == nil {
			if geomFormat == "geojson" {
				geomStr = railtopo.PrepareGeoJSONLinestring(line)
			} else {
				geomStr = railtopo.PrepareWKTLinestring(line)
			}
		}
		err = writerEdges.Write([]string{
			edge.ID,
			edge.NodeA.ID,
			edge.NodeB.ID,
			fmt.Sprintf("%f", length),
			fmt.Sprintf("%d", len(edge.Signals)),
			geomStr,
		})
		if err != nil {
			return err
		}
	}

	/* Vertices file */
	fileVertices, err := os.Create(fnameVertices)
	if err != nil {
		return err
	}
	defer fileVertices.Close()
	writerVertices := csv.NewWriter(fileVertices)
	defer writerVertices.Flush()
	writerVertices.Comma = ';'
	// 		vertex_id - string, ID of node
	// 		degree - int, Number of connected edges
	//      geom - geometry (WKT or GeoJSON representation)
	err = writerVertices.Write([]string{"vertex_id", "degree", "geom"})
	if err != nil {
		return err
	}
	for _, node := range topology.Nodes() {
		geomStr := ""
		if node.GeoNode != nil {
			if geomFormat == "geojson" {
				geomStr = railtopo.PrepareGeoJSONPoint(node.GeoNode.Point)
			} else {
				geomStr = railtopo.PrepareWKTPoint(node.GeoNode.Point)
			}
		}
		err = writerVertices.Write([]string{node.ID, fmt.Sprintf("%d", node.Degree()), geomStr})
		if err != nil {
			return err
		}
	}
	return nil
}
