package railtopo

import (
	"github.com/google/uuid"
)

// VacancySection is track occupancy section. Edges reference it
type VacancySection struct {
	ID   string
	Name string
}

func NewVacancySection(name string) *VacancySection {
	return &VacancySection{
		ID:   uuid.NewString(),
		Name: name,
	}
}
