package common

import (
	"fmt"
	"regexp"
	"time"

	"github.com/araddon/dateparse"
)

var yearOnly = regexp.MustCompile(`^\d{4}$`)

// DateRange bounds a time-varying request. A zero range means the source's
// full temporal coverage.
type DateRange struct {
	Min time.Time `json:"date_min"`
	Max time.Time `json:"date_max"`
}

// ParseDateRange parses calendar bounds leniently. A bare year means the
// whole year: "2020" as min is Jan 1, as max is Dec 31.
func ParseDateRange(min, max string) (DateRange, error) {
	var dr DateRange
	var err error
	if min != "" {
		if yearOnly.MatchString(min) {
			min += "-01-01"
		}
		if dr.Min, err = dateparse.ParseAny(min); err != nil {
			return DateRange{}, fmt.Errorf("ParseDateRange: date_min %q: %w", min, err)
		}
	}
	if max != "" {
		if yearOnly.MatchString(max) {
			max += "-12-31"
		}
		if dr.Max, err = dateparse.ParseAny(max); err != nil {
			return DateRange{}, fmt.Errorf("ParseDateRange: date_max %q: %w", max, err)
		}
	}
	if !dr.Min.IsZero() && !dr.Max.IsZero() && dr.Max.Before(dr.Min) {
		return DateRange{}, fmt.Errorf("ParseDateRange: date_max %v before date_min %v", dr.Max, dr.Min)
	}
	return dr, nil
}

// IsZero reports whether no bounds are set
func (dr DateRange) IsZero() bool {
	return dr.Min.IsZero() && dr.Max.IsZero()
}

// Years lists the calendar years covered by the range, oldest first
func (dr DateRange) Years() []int {
	if dr.IsZero() {
		return nil
	}
	min, max := dr.Min, dr.Max
	if min.IsZero() {
		min = max
	}
	if max.IsZero() {
		max = min
	}
	var years []int
	for y := min.Year(); y <= max.Year(); y++ {
		years = append(years, y)
	}
	return years
}
