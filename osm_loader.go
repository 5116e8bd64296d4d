package railtopo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"
)

type OSMScanner interface {
	Scan() bool
	Close() error
	Err() error
	Object() osm.Object
}

// osmWay is railway way reduced to what topology needs
type osmWay struct {
	ID       osm.WayID
	Name     string
	MaxSpeed int
	Nodes    []osm.NodeID
}

type osmNode struct {
	point  GeoPoint
	name   string
	signal map[string]string // nil when node is not railway=signal
}

// ImportFromOSM builds topology from railway ways of OSM file (.osm/.xml or .pbf).
// Topology nodes are way endpoints and nodes shared by several ways, all other way nodes become intermediate geo nodes
func ImportFromOSM(filename string, options ...func(*OSMConfiguration)) (*Topology, error) {
	cfg := defaultOSMConfiguration()
	for _, option := range options {
		option(cfg)
	}
	level := slog.LevelDebug
	if cfg.Verbose {
		level = slog.LevelInfo
	}
	ctx := context.Background()
	log := logger().With("file", filename)

	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "Can't open OSM file")
	}
	defer file.Close()

	st := time.Now()
	ways, useCount, err := scanRailwayWays(ctx, filename, file, cfg)
	if err != nil {
		return nil, err
	}
	log.Log(ctx, level, "railway ways scanned", "ways", len(ways), "took", time.Since(st))

	// Seek file to start
	_, err = file.Seek(0, io.SeekStart)
	if err != nil {
		return nil, errors.Wrap(err, "Can't repeat seeking after ways scanning")
	}

	st = time.Now()
	nodes, err := scanRailwayNodes(ctx, filename, file, useCount)
	if err != nil {
		return nil, err
	}
	log.Log(ctx, level, "railway nodes scanned", "nodes", len(nodes), "took", time.Since(st))

	st = time.Now()
	topology, err := buildOSMTopology(cfg, ways, useCount, nodes)
	if err != nil {
		return nil, err
	}
	log.Log(ctx, level, "topology prepared", "nodes", topology.NodesNum(), "edges", topology.EdgesNum(), "took", time.Since(st))
	return topology, nil
}

func openScanner(ctx context.Context, filename string, file io.Reader) (OSMScanner, error) {
	// Guess file extension and prepare correct scanner
	ext := filepath.Ext(filename)
	switch ext {
	case ".osm", ".xml":
		return osmxml.New(ctx, file), nil
	case ".pbf":
		return osmpbf.New(ctx, file, 4), nil
	default:
		return nil, errors.Wrapf(ErrValue, "File extension '%s' for file '%s' is not handled yet", ext, filename)
	}
}

// scanRailwayWays returns filtered ways and number of way occurrences per OSM node
func scanRailwayWays(ctx context.Context, filename string, file io.Reader, cfg *OSMConfiguration) ([]*osmWay, map[osm.NodeID]int, error) {
	scanner, err := openScanner(ctx, filename, file)
	if err != nil {
		return nil, nil, err
	}
	defer scanner.Close()

	ways := []*osmWay{}
	useCount := make(map[osm.NodeID]int)
	for scanner.Scan() {
		obj := scanner.Object()
		if obj.ObjectID().Type() != "way" {
			continue
		}
		way := obj.(*osm.Way)
		if !cfg.CheckTag(way.Tags.Find("railway")) {
			continue
		}
		if len(way.Nodes) < 2 {
			continue
		}
		prepared := &osmWay{
			ID:       way.ID,
			Name:     way.Tags.Find("name"),
			MaxSpeed: parseMaxSpeed(way.Tags.Find("maxspeed")),
			Nodes:    make([]osm.NodeID, 0, len(way.Nodes)),
		}
		for _, node := range way.Nodes {
			// Drop consecutive duplicates
			if n := len(prepared.Nodes); n > 0 && prepared.Nodes[n-1] == node.ID {
				continue
			}
			prepared.Nodes = append(prepared.Nodes, node.ID)
			useCount[node.ID]++
		}
		ways = append(ways, prepared)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "Can't scan ways")
	}
	return ways, useCount, nil
}

// scanRailwayNodes collects positions (and signal tags) of nodes used by railway ways
func scanRailwayNodes(ctx context.Context, filename string, file io.Reader, useCount map[osm.NodeID]int) (map[osm.NodeID]*osmNode, error) {
	scanner, err := openScanner(ctx, filename, file)
	if err != nil {
		return nil, err
	}
	defer scanner.Close()

	nodes := make(map[osm.NodeID]*osmNode, len(useCount))
	for scanner.Scan() {
		obj := scanner.Object()
		if obj.ObjectID().Type() != "node" {
			continue
		}
		node := obj.(*osm.Node)
		if _, ok := useCount[node.ID]; !ok {
			continue
		}
		prepared := &osmNode{
			point: NewWGS84Point(node.Lon, node.Lat),
			name:  node.Tags.Find("name"),
		}
		if node.Tags.Find("railway") == "signal" {
			prepared.signal = node.Tags.Map()
		}
		nodes[node.ID] = prepared
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Can't scan nodes")
	}
	return nodes, nil
}

func buildOSMTopology(cfg *OSMConfiguration, ways []*osmWay, useCount map[osm.NodeID]int, nodes map[osm.NodeID]*osmNode) (*Topology, error) {
	topology := NewTopology(WithTopologyName(cfg.TopologyName), WithCreatedWith(cfg.CreatedWith))
	vertices := make(map[osm.NodeID]*Node)
	vertex := func(id osm.NodeID) *Node {
		if v, ok := vertices[id]; ok {
			return v
		}
		data := nodes[id]
		v := NewNode(WithNodeID(osmID(int64(id))), WithNodeName(data.name), WithGeoPoint(data.point))
		vertices[id] = v
		topology.AddNode(v)
		return v
	}

	for _, way := range ways {
		missing := false
		for _, id := range way.Nodes {
			if _, ok := nodes[id]; !ok {
				missing = true
				break
			}
		}
		if missing {
			logger().Warn("way references unknown node, skipping it", "way", way.ID)
			continue
		}
		part := 0
		start := 0
		for i := 1; i < len(way.Nodes); i++ {
			if i != len(way.Nodes)-1 && useCount[way.Nodes[i]] < 2 {
				continue
			}
			segment := way.Nodes[start : i+1]
			start = i
			if segment[0] == segment[len(segment)-1] {
				logger().Warn("closed way segment is not supported, skipping it", "way", way.ID, "node", segment[0])
				continue
			}
			interior := segment[1 : len(segment)-1]
			geoNodes := make([]*GeoNode, 0, len(interior))
			for _, id := range interior {
				geoNodes = append(geoNodes, NewGeoNode(nodes[id].point, WithGeoNodeID(osmID(int64(id)))))
			}
			edge, err := NewEdge(
				vertex(segment[0]),
				vertex(segment[len(segment)-1]),
				WithEdgeID(fmt.Sprintf("%d_%d", way.ID, part)),
				WithEdgeName(way.Name),
				WithIntermediateGeoNodes(geoNodes),
				WithMaximumSpeed(way.MaxSpeed),
			)
			if err != nil {
				return nil, errors.Wrapf(err, "Can't create edge for way %d", way.ID)
			}
			part++
			if err := topology.AddEdge(edge); err != nil {
				return nil, err
			}
			if err := placeOSMSignals(topology, edge, interior, nodes); err != nil {
				return nil, err
			}
		}
	}
	for id, data := range nodes {
		if data.signal == nil {
			continue
		}
		if _, ok := vertices[id]; ok {
			logger().Debug("signal on topology node is ignored", "node", id)
		}
	}
	return topology, nil
}

// placeOSMSignals creates signals for railway=signal nodes among interior way nodes of edge
func placeOSMSignals(topology *Topology, edge *Edge, interior []osm.NodeID, nodes map[osm.NodeID]*osmNode) error {
	geometry, err := edge.Geometry()
	if err != nil {
		return err
	}
	length, err := edge.Length()
	if err != nil {
		return err
	}
	offset := 0.0
	for i, id := range interior {
		d, err := edge.metric()(geometry[i], geometry[i+1])
		if err != nil {
			return err
		}
		offset += d
		tags := nodes[id].signal
		if tags == nil {
			continue
		}
		direction := SignalIn
		distance := offset
		if tags["railway:signal:direction"] == "backward" {
			direction = SignalGegen
			distance = length - offset
		}
		name := tags["ref"]
		if name == "" {
			name = nodes[id].name
		}
		signal, err := NewSignal(
			edge,
			distance,
			direction,
			signalFunctionFromOSM(tags["railway:signal:main:function"]),
			signalKindFromOSM(tags),
			WithSignalID(osmID(int64(id))),
			WithSignalName(name),
		)
		if err != nil {
			return errors.Wrapf(err, "Can't create signal for node %d", id)
		}
		if err := topology.AddSignal(signal); err != nil {
			return err
		}
	}
	return nil
}

func osmID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseMaxSpeed takes leading number of 'maxspeed' tag, 0 when absent
func parseMaxSpeed(value string) int {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0
	}
	speed, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return speed
}
