package model

import (
	"fmt"
	"math"
)

// Dimension names one scoring axis.
type Dimension string

// The eight scoring dimensions.
const (
	DimExperience   Dimension = "experience"
	DimSkills       Dimension = "skills"
	DimIndustry     Dimension = "industry"
	DimLanguages    Dimension = "languages"
	DimAvailability Dimension = "availability"
	DimTimezone     Dimension = "timezone"
	DimActivities   Dimension = "activities"
	DimRegion       Dimension = "region"
)

// Dimensions lists every dimension in a stable order.
var Dimensions = []Dimension{
	DimExperience, DimSkills, DimIndustry, DimLanguages,
	DimAvailability, DimTimezone, DimActivities, DimRegion,
}

// Weights is the per-gig relative importance of each dimension.
// Missing keys decode as 0.
type Weights struct {
	Experience   float64 `json:"experience"`
	Skills       float64 `json:"skills"`
	Industry     float64 `json:"industry"`
	Languages    float64 `json:"languages"`
	Availability float64 `json:"availability"`
	Timezone     float64 `json:"timezone"`
	Activities   float64 `json:"activities"`
	Region       float64 `json:"region"`
}

// Of returns the weight of d.
func (w Weights) Of(d Dimension) float64 {
	switch d {
	case DimExperience:
		return w.Experience
	case DimSkills:
		return w.Skills
	case DimIndustry:
		return w.Industry
	case DimLanguages:
		return w.Languages
	case DimAvailability:
		return w.Availability
	case DimTimezone:
		return w.Timezone
	case DimActivities:
		return w.Activities
	case DimRegion:
		return w.Region
	}
	return 0
}

// Sum returns the sum of all eight weights.
func (w Weights) Sum() float64 {
	var s float64
	for _, d := range Dimensions {
		s += w.Of(d)
	}
	return s
}

// Validate checks that every weight is finite and within [0, maxWeight].
func (w Weights) Validate(maxWeight float64) error {
	for _, d := range Dimensions {
		v := w.Of(d)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %s is not a finite number", ErrValidation, d)
		}
		if v < 0 || v > maxWeight {
			return fmt.Errorf("%w: weight %s=%g outside [0, %g]", ErrValidation, d, v, maxWeight)
		}
	}
	return nil
}
