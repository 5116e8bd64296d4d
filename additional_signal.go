package railtopo

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AdditionalSignalKind is type of "Zusatzsignal"
type AdditionalSignalKind uint8

const (
	Zs1 AdditionalSignalKind = iota + 1
	Zs2
	Zs3
)

func (k AdditionalSignalKind) String() string {
	switch k {
	case Zs1:
		return "Zs1"
	case Zs2:
		return "Zs2"
	case Zs3:
		return "Zs3"
	}
	return "unknown"
}

func ParseAdditionalSignalKind(s string) (AdditionalSignalKind, error) {
	switch s {
	case "Zs1", "zs1":
		return Zs1, nil
	case "Zs2", "zs2":
		return Zs2, nil
	case "Zs3", "zs3":
		return Zs3, nil
	}
	return 0, errors.Wrapf(ErrValue, "unknown additional signal kind '%s'", s)
}

// Zs2 shows a letter: every latin capital except G, Q and Y
var zs2Symbols = map[string]struct{}{
	"A": {}, "B": {}, "C": {}, "D": {}, "E": {}, "F": {}, "H": {}, "I": {}, "J": {}, "K": {}, "L": {}, "M": {},
	"N": {}, "O": {}, "P": {}, "R": {}, "S": {}, "T": {}, "U": {}, "V": {}, "W": {}, "X": {}, "Z": {},
}

// AdditionalSignal is attached to signal and shows symbols of its kind
type AdditionalSignal struct {
	ID      string
	Name    string
	Kind    AdditionalSignalKind
	Symbols []string
}

func NewAdditionalSignal(kind AdditionalSignalKind, symbols ...string) (*AdditionalSignal, error) {
	for _, symbol := range symbols {
		if !validSymbol(kind, symbol) {
			return nil, errors.Wrapf(ErrValue, "symbol '%s' is not allowed for %s", symbol, kind)
		}
	}
	return &AdditionalSignal{
		ID:      uuid.NewString(),
		Kind:    kind,
		Symbols: symbols,
	}, nil
}

func validSymbol(kind AdditionalSignalKind, symbol string) bool {
	switch kind {
	case Zs1:
		return symbol == "Zs1"
	case Zs2:
		_, ok := zs2Symbols[symbol]
		return ok
	case Zs3:
		// speed indicator: tens of km/h
		n, err := strconv.Atoi(symbol)
		return err == nil && n >= 1 && n <= 16
	}
	return false
}

func (as *AdditionalSignal) Copy() *AdditionalSignal {
	cp := *as
	cp.Symbols = append([]string(nil), as.Symbols...)
	return &cp
}
