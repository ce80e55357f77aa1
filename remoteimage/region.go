package remoteimage

import (
	"fmt"
	"math"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service"
	"github.com/go-spatial/geom"
)

// metre lengths of one arc-second; longitude shrinks with cos(latitude)
const (
	arcsecMetersLat = 30.87
	arcsecMetersLng = 30.922
)

const circleSegments = 32

// metersToDegrees converts a metric distance to degrees along each axis at
// the given latitude
func metersToDegrees(meters, lat float64) (dLng, dLat float64) {
	dLat = meters / (arcsecMetersLat * 3600)
	dLng = meters / (arcsecMetersLng * math.Cos(lat*math.Pi/180) * 3600)
	return dLng, dLat
}

// buildRegion turns the coordinate list into the collection geometry:
// 2 values are a point (optionally buffered to a circle, or its bounds),
// 4 values a rectangle, 6+ even values a polygon ring.
func buildRegion(coords []float64, bufferMeters float64, bound bool) (geom.Geometry, common.BoundingBox, error) {
	switch {
	case len(coords) == 2:
		lng, lat := coords[0], coords[1]
		if bufferMeters <= 0 {
			p := geom.Point{lng, lat}
			return p, common.BoundingBox{West: lng, South: lat, East: lng, North: lat}, nil
		}
		dLng, dLat := metersToDegrees(bufferMeters, lat)
		box := common.BoundingBox{West: lng - dLng, South: lat - dLat, East: lng + dLng, North: lat + dLat}
		if bound {
			return rectangle(box), box, nil
		}
		ring := make([][2]float64, circleSegments)
		for i := range ring {
			a := 2 * math.Pi * float64(i) / circleSegments
			ring[i] = [2]float64{lng + dLng*math.Cos(a), lat + dLat*math.Sin(a)}
		}
		return geom.Polygon{ring}, box, nil

	case len(coords) == 4:
		box, err := common.NewBoundingBox(coords)
		if err != nil {
			return nil, common.BoundingBox{}, err
		}
		return rectangle(box), box, nil

	case len(coords) >= 6 && len(coords)%2 == 0:
		ring := make([][2]float64, len(coords)/2)
		box := common.BoundingBox{West: coords[0], South: coords[1], East: coords[0], North: coords[1]}
		for i := range ring {
			lng, lat := coords[2*i], coords[2*i+1]
			ring[i] = [2]float64{lng, lat}
			box.West = math.Min(box.West, lng)
			box.East = math.Max(box.East, lng)
			box.South = math.Min(box.South, lat)
			box.North = math.Max(box.North, lat)
		}
		return geom.Polygon{ring}, box, nil
	}
	return nil, common.BoundingBox{}, service.MakeConfig(fmt.Sprintf("coords must be a point, a rectangle or a polygon ring, got %d values", len(coords)), nil)
}

func rectangle(b common.BoundingBox) geom.Polygon {
	return geom.Polygon{{
		{b.West, b.South},
		{b.East, b.South},
		{b.East, b.North},
		{b.West, b.North},
	}}
}
