package common

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom"
)

// MaxPixels is the upper bound on the number of raster pixels a single
// request may produce. Webservers time out far below this, it is only a
// sanity guard against accidental continent-scale requests.
const MaxPixels = 1e8

// BoundingBox is a geographic box (west, south, east, north) in decimal
// degrees. The zero value is the sentinel meaning "derive from sample points".
type BoundingBox struct {
	West  float64 `json:"west" yaml:"west"`
	South float64 `json:"south" yaml:"south"`
	East  float64 `json:"east" yaml:"east"`
	North float64 `json:"north" yaml:"north"`
}

// NewBoundingBox builds a box from a west,south,east,north slice.
// Any other arity returns the sentinel and an error the caller may downgrade
// to a notice.
func NewBoundingBox(vals []float64) (BoundingBox, error) {
	if len(vals) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box must have 4 elements (west, south, east, north), got %d", len(vals))
	}
	return BoundingBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}

// IsZero reports whether the box is the "derive from points" sentinel
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Validate checks box ordering
func (b BoundingBox) Validate() error {
	if b.East <= b.West {
		return fmt.Errorf("bounding box: east (%v) must be greater than west (%v)", b.East, b.West)
	}
	if b.North <= b.South {
		return fmt.Errorf("bounding box: north (%v) must be greater than south (%v)", b.North, b.South)
	}
	return nil
}

// Pad grows the box by d degrees on every side
func (b BoundingBox) Pad(d float64) BoundingBox {
	return BoundingBox{West: b.West - d, South: b.South - d, East: b.East + d, North: b.North + d}
}

// PixelCount estimates the raster size of the box at the given resolution in
// arc-seconds
func (b BoundingBox) PixelCount(resolutionArcsec float64) float64 {
	nx := math.Round(3600 * (b.East - b.West) / resolutionArcsec)
	ny := math.Round(3600 * (b.North - b.South) / resolutionArcsec)
	return nx * ny
}

// Extent converts the box to a geom.Extent (minx, miny, maxx, maxy)
func (b BoundingBox) Extent() geom.Extent {
	return geom.Extent{b.West, b.South, b.East, b.North}
}

// Slice returns the box as [west, south, east, north]
func (b BoundingBox) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

func (b BoundingBox) String() string {
	return fmt.Sprintf("[%v, %v, %v, %v]", b.West, b.South, b.East, b.North)
}
