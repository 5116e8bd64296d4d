package railtopo

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// SignalDirection is effective direction of signal relative to its edge
type SignalDirection uint8

const (
	// SignalIn is valid for travel from NodeA to NodeB
	SignalIn SignalDirection = iota + 1
	// SignalGegen is valid for travel from NodeB to NodeA
	SignalGegen
)

func (d SignalDirection) String() string {
	if d == SignalGegen {
		return "gegen"
	}
	return "in"
}

// ParseSignalDirection anything but "gegen" is "in"
func ParseSignalDirection(s string) SignalDirection {
	if strings.EqualFold(s, "gegen") {
		return SignalGegen
	}
	return SignalIn
}

func (d SignalDirection) flip() SignalDirection {
	if d == SignalGegen {
		return SignalIn
	}
	return SignalGegen
}

type SignalFunction uint8

const (
	EinfahrSignal SignalFunction = iota
	AusfahrSignal
	Blocksignal
	OtherSignalFunction
)

var signalFunctionNames = []string{"Einfahr_Signal", "Ausfahr_Signal", "Blocksignal", "andere"}

func (f SignalFunction) String() string {
	if int(f) < len(signalFunctionNames) {
		return signalFunctionNames[f]
	}
	return signalFunctionNames[OtherSignalFunction]
}

// ParseSignalFunction returns OtherSignalFunction for unknown names
func ParseSignalFunction(s string) SignalFunction {
	for i, name := range signalFunctionNames {
		if strings.EqualFold(name, s) {
			return SignalFunction(i)
		}
	}
	return OtherSignalFunction
}

type SignalKind uint8

const (
	Hauptsignal SignalKind = iota
	Mehrabschnittssignal
	Vorsignal
	Sperrsignal
	Hauptsperrsignal
	OtherSignalKind
)

var signalKindNames = []string{"Hauptsignal", "Mehrabschnittssignal", "Vorsignal", "Sperrsignal", "Hauptsperrsignal", "andere"}

func (k SignalKind) String() string {
	if int(k) < len(signalKindNames) {
		return signalKindNames[k]
	}
	return signalKindNames[OtherSignalKind]
}

// ParseSignalKind returns OtherSignalKind for unknown names
func ParseSignalKind(s string) SignalKind {
	for i, name := range signalKindNames {
		if strings.EqualFold(name, s) {
			return SignalKind(i)
		}
	}
	return OtherSignalKind
}

const (
	defaultSideDistance         = 3.95
	defaultClassificationNumber = "60"
)

// Signal is placed on edge at distance from previous node in its direction
type Signal struct {
	ID                   string
	Name                 string
	Edge                 *Edge
	DistancePreviousNode float64
	Direction            SignalDirection
	Function             SignalFunction
	Kind                 SignalKind
	SideDistance         float64
	ClassificationNumber string
	ControlMemberID      string
	AdditionalSignals    []*AdditionalSignal
	Trip                 *Trip
}

// NewSignal creates signal and registers it on edge
func NewSignal(edge *Edge, distancePreviousNode float64, direction SignalDirection, function SignalFunction, kind SignalKind, options ...func(*Signal)) (*Signal, error) {
	if edge == nil {
		return nil, errors.Wrap(ErrValue, "Can't place signal without edge")
	}
	if distancePreviousNode < 0 {
		return nil, errors.Wrapf(ErrValue, "negative distance %f for signal", distancePreviousNode)
	}
	signal := &Signal{
		ID:                   uuid.NewString(),
		Edge:                 edge,
		DistancePreviousNode: distancePreviousNode,
		Direction:            direction,
		Function:             function,
		Kind:                 kind,
		SideDistance:         defaultSideDistance,
		ClassificationNumber: defaultClassificationNumber,
		ControlMemberID:      uuid.NewString(),
	}
	if direction == SignalGegen {
		signal.SideDistance = -defaultSideDistance
	}
	for _, option := range options {
		option(signal)
	}
	edge.Signals = append(edge.Signals, signal)
	return signal, nil
}

func WithSignalID(id string) func(*Signal) {
	return func(signal *Signal) {
		signal.ID = id
	}
}

func WithSignalName(name string) func(*Signal) {
	return func(signal *Signal) {
		signal.Name = name
	}
}

func WithSideDistance(sideDistance float64) func(*Signal) {
	return func(signal *Signal) {
		signal.SideDistance = sideDistance
	}
}

func WithAdditionalSignals(additional ...*AdditionalSignal) func(*Signal) {
	return func(signal *Signal) {
		signal.AdditionalSignals = append(signal.AdditionalSignals, additional...)
	}
}

// PreviousNode is node which train passes before signal
func (signal *Signal) PreviousNode() *Node {
	if signal.Direction == SignalGegen {
		return signal.Edge.NodeB
	}
	return signal.Edge.NodeA
}

// NextNode is node which train reaches after signal
func (signal *Signal) NextNode() *Node {
	if signal.Direction == SignalGegen {
		return signal.Edge.NodeA
	}
	return signal.Edge.NodeB
}

// offsetFromNodeA returns position of signal measured from NodeA of its edge
func (signal *Signal) offsetFromNodeA() (float64, error) {
	if signal.Direction != SignalGegen {
		return signal.DistancePreviousNode, nil
	}
	length, err := signal.Edge.Length()
	if err != nil {
		return 0, err
	}
	return length - signal.DistancePreviousNode, nil
}

// place moves signal to edge at offset measured from NodeA of that edge
func (signal *Signal) place(edge *Edge, offset float64, direction SignalDirection) error {
	signal.Edge = edge
	signal.Direction = direction
	if direction != SignalGegen {
		signal.DistancePreviousNode = offset
		return nil
	}
	length, err := edge.Length()
	if err != nil {
		return err
	}
	signal.DistancePreviousNode = length - offset
	return nil
}

// copyWithout returns copy of signal which is not attached to any edge yet
func (signal *Signal) copyWithout() *Signal {
	cp := *signal
	cp.Edge = nil
	cp.AdditionalSignals = make([]*AdditionalSignal, len(signal.AdditionalSignals))
	for i, as := range signal.AdditionalSignals {
		cp.AdditionalSignals[i] = as.Copy()
	}
	cp.Trip = nil
	return &cp
}
