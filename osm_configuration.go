package railtopo

import (
	"strings"
)

// DefaultRailwayTypes are values of 'railway' tag which are imported when nothing else is configured
var DefaultRailwayTypes = []string{"rail", "light_rail", "tram", "subway", "narrow_gauge"}

// OSMConfiguration Allows to filter ways by certain tags from OSM data
type OSMConfiguration struct {
	RailwayTypes []string
	TopologyName string
	CreatedWith  string
	Verbose      bool
}

func defaultOSMConfiguration() *OSMConfiguration {
	cfg := &OSMConfiguration{
		RailwayTypes: make([]string, len(DefaultRailwayTypes)),
		CreatedWith:  "railtopo-osm",
	}
	copy(cfg.RailwayTypes, DefaultRailwayTypes)
	return cfg
}

// WithRailwayTypes replaces set of 'railway' tag values to import
func WithRailwayTypes(types ...string) func(*OSMConfiguration) {
	return func(cfg *OSMConfiguration) {
		cfg.RailwayTypes = cfg.RailwayTypes[:0]
		for _, t := range types {
			t = strings.TrimSpace(t)
			if t != "" {
				cfg.RailwayTypes = append(cfg.RailwayTypes, t)
			}
		}
	}
}

func WithOSMTopologyName(name string) func(*OSMConfiguration) {
	return func(cfg *OSMConfiguration) {
		cfg.TopologyName = name
	}
}

func WithOSMCreatedWith(tool string) func(*OSMConfiguration) {
	return func(cfg *OSMConfiguration) {
		cfg.CreatedWith = tool
	}
}

// WithVerbose raises import progress records from debug to info level
func WithVerbose(verbose bool) func(*OSMConfiguration) {
	return func(cfg *OSMConfiguration) {
		cfg.Verbose = verbose
	}
}

// CheckTag Checks if incoming tag is represented in configuration
func (cfg *OSMConfiguration) CheckTag(tag string) bool {
	for i := range cfg.RailwayTypes {
		if cfg.RailwayTypes[i] == tag {
			return true
		}
	}
	return false
}

// signalFunctionFromOSM maps 'railway:signal:main:function' values
func signalFunctionFromOSM(value string) SignalFunction {
	switch value {
	case "entry":
		return EinfahrSignal
	case "exit":
		return AusfahrSignal
	case "block":
		return Blocksignal
	default:
		return OtherSignalFunction
	}
}

// signalKindFromOSM guesses kind from which 'railway:signal:*' group is tagged
func signalKindFromOSM(tags map[string]string) SignalKind {
	_, main := tags["railway:signal:main"]
	_, distant := tags["railway:signal:distant"]
	_, combined := tags["railway:signal:combined"]
	_, minor := tags["railway:signal:minor"]
	switch {
	case combined:
		return Mehrabschnittssignal
	case main && minor:
		return Hauptsperrsignal
	case main:
		return Hauptsignal
	case distant:
		return Vorsignal
	case minor:
		return Sperrsignal
	default:
		return OtherSignalKind
	}
}
