package railtopo

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Trip is sequence of edges travelled by train
type Trip struct {
	ID    string
	Name  string
	Edges []*Edge
}

// NewTrip creates trip with random four-digit name when name is empty
func NewTrip(name string, edges []*Edge) *Trip {
	if name == "" {
		name = fmt.Sprintf("%d", 1000+rand.Intn(9000))
	}
	return &Trip{
		ID:    uuid.NewString(),
		Name:  name,
		Edges: edges,
	}
}

func (trip *Trip) Length() (float64, error) {
	total := 0.0
	for _, edge := range trip.Edges {
		l, err := edge.Length()
		if err != nil {
			return 0, errors.Wrapf(err, "Can't measure trip '%s'", trip.ID)
		}
		total += l
	}
	return total, nil
}
