package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/LdDl/railtopo"
	"github.com/LdDl/railtopo/server"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const usage = `Usage: railtopo <command> [flags]

Commands:
  import     Import railway topology from OSM file (*.osm, *.xml, *.pbf)
  anschluss  Print head/left/right edges of every point
  split      Cut topology into two
  union      Merge two topologies at track ends
  export     Export topology as GeoJSON or CSV
  serve      Start HTTP service

Run 'railtopo <command> -h' for command flags.`

func main() {
	_ = godotenv.Load(".env")
	l := setupLogger()
	railtopo.SetLogger(l)

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}
	var err error
	args := os.Args[2:]
	switch os.Args[1] {
	case "import":
		err = runImport(args)
	case "anschluss":
		err = runAnschluss(args)
	case "split":
		err = runSplit(args)
	case "union":
		err = runUnion(args)
	case "export":
		err = runExport(args)
	case "serve":
		err = runServe(args, l)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Printf("Unknown command '%s'\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	osmFileName := fs.String("file", "my_graph.osm.pbf", "Filename of *.osm.pbf or *.osm file")
	out := fs.String("out", "my_topology.json", "Output document (*.json or *.rtb)")
	tagStr := fs.String("tags", strings.Join(railtopo.DefaultRailwayTypes, ","), "Set of needed 'railway' tag values (separated by commas)")
	name := fs.String("name", "", "Name of topology")
	verbose := fs.Bool("verbose", false, "Log import progress")
	fs.Parse(args)

	topology, err := railtopo.ImportFromOSM(*osmFileName,
		railtopo.WithRailwayTypes(strings.Split(*tagStr, ",")...),
		railtopo.WithOSMTopologyName(*name),
		railtopo.WithVerbose(*verbose),
	)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d nodes and %d edges\n", topology.NodesNum(), topology.EdgesNum())
	return writeTopology(*out, topology)
}

func runAnschluss(args []string) error {
	fs := flag.NewFlagSet("anschluss", flag.ExitOnError)
	in := fs.String("in", "my_topology.json", "Input document (*.json or *.rtb)")
	out := fs.String("out", "", "Store document with resolved roles (optional)")
	fs.Parse(args)

	topology, err := readTopology(*in)
	if err != nil {
		return err
	}
	for _, node := range topology.Points() {
		roles, err := node.Roles()
		if err != nil {
			fmt.Printf("%s: %v\n", node.ID, err)
			continue
		}
		fmt.Printf("%s: head=%s left=%s right=%s\n", node.ID, roles.Head.ID, roles.Left.ID, roles.Right.ID)
	}
	if *out == "" {
		return nil
	}
	return writeTopology(*out, topology)
}

func runSplit(args []string) error {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	in := fs.String("in", "my_topology.json", "Input document (*.json or *.rtb)")
	cutStr := fs.String("cuts", "", "Cut points as edge_id:distance pairs (separated by commas)")
	outA := fs.String("out_a", "topology_a.json", "Output document of first part")
	outB := fs.String("out_b", "topology_b.json", "Output document of second part")
	fs.Parse(args)

	topology, err := readTopology(*in)
	if err != nil {
		return err
	}
	cuts := []railtopo.Cut{}
	for _, item := range splitList(*cutStr) {
		parts := strings.SplitN(item, ":", 2)
		if len(parts) != 2 {
			return errors.Errorf("Bad cut '%s', expected edge_id:distance", item)
		}
		edge, ok := topology.Edge(parts[0])
		if !ok {
			return errors.Errorf("No edge '%s' in topology", parts[0])
		}
		distance, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return errors.Wrapf(err, "Bad distance in cut '%s'", item)
		}
		cuts = append(cuts, railtopo.Cut{Edge: edge, Distance: distance})
	}
	a, b, err := railtopo.Split(topology, cuts)
	if err != nil {
		return err
	}
	if err := writeTopology(*outA, a); err != nil {
		return err
	}
	return writeTopology(*outB, b)
}

func runUnion(args []string) error {
	fs := flag.NewFlagSet("union", flag.ExitOnError)
	inA := fs.String("a", "topology_a.json", "First input document (*.json or *.rtb)")
	inB := fs.String("b", "topology_b.json", "Second input document (*.json or *.rtb)")
	pairStr := fs.String("pairs", "", "Matched track ends as node_a:node_b pairs (separated by commas)")
	auto := fs.Bool("auto", false, "Match track ends by distance instead of -pairs")
	tolerance := fs.Float64("tolerance", 1.0, "Max distance between matched track ends for -auto (meters)")
	out := fs.String("out", "my_topology.json", "Output document (*.json or *.rtb)")
	fs.Parse(args)

	a, err := readTopology(*inA)
	if err != nil {
		return err
	}
	b, err := readTopology(*inB)
	if err != nil {
		return err
	}
	var matching map[*railtopo.Node]*railtopo.Node
	if *auto {
		matching, err = railtopo.MatchTrackEnds(a, b, *tolerance)
		if err != nil {
			return err
		}
	} else {
		matching = make(map[*railtopo.Node]*railtopo.Node)
		for _, item := range splitList(*pairStr) {
			parts := strings.SplitN(item, ":", 2)
			if len(parts) != 2 {
				return errors.Errorf("Bad pair '%s', expected node_a:node_b", item)
			}
			nodeA, ok := a.Node(parts[0])
			if !ok {
				return errors.Errorf("No node '%s' in first topology", parts[0])
			}
			nodeB, ok := b.Node(parts[1])
			if !ok {
				return errors.Errorf("No node '%s' in second topology", parts[1])
			}
			matching[nodeA] = nodeB
		}
	}
	fmt.Printf("Joining %d pairs of track ends\n", len(matching))
	merged, err := railtopo.Union(a, b, matching)
	if err != nil {
		return err
	}
	return writeTopology(*out, merged)
}

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	in := fs.String("in", "my_topology.json", "Input document (*.json or *.rtb)")
	out := fs.String("out", "my_topology.geojson", "Output file. E.g.: if file name is 'map.csv' then 2 files will be produced: 'map.csv' (edges), 'map_vertices.csv'")
	format := fs.String("format", "geojson", "Output format. Expected values: geojson / csv")
	geomFormat := fs.String("geomf", "wkt", "Format of CSV geometry. Expected values: wkt / geojson")
	fs.Parse(args)

	topology, err := readTopology(*in)
	if err != nil {
		return err
	}
	switch strings.ToLower(*format) {
	case "geojson":
		body, err := topology.GeoJSON()
		if err != nil {
			return err
		}
		return os.WriteFile(*out, body, 0644)
	case "csv":
		return exportCSV(topology, *out, strings.ToLower(*geomFormat))
	default:
		return errors.Errorf("Unknown export format '%s'", *format)
	}
}

func runServe(args []string, l *slog.Logger) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	defaultAddr := os.Getenv("RAILTOPO_LISTEN")
	if defaultAddr == "" {
		defaultAddr = ":5050"
	}
	listenAddr := fs.String("listenaddr", defaultAddr, "server listen address")
	fs.Parse(args)

	r := server.NewRouter(server.NewService(), l)
	l.Info("server started", "addr", *listenAddr)
	return http.ListenAndServe(*listenAddr, r)
}

func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
