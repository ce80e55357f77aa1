// Package points reads sample-point locations from the harvest input file.
// Coordinates drive bounding-box derivation and raster value extraction.
package points

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/agrefed/harvester/service"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
	"github.com/gocarina/gocsv"
)

// Point is one sample location in EPSG:4326
type Point struct {
	Lng float64
	Lat float64
}

// Read loads the coordinate columns of a sample-point file. CSV files are
// read by the named columns; GeoJSON files take coordinates from the
// geometries and ignore the column names.
func Read(path, latColumn, lngColumn string) ([]Point, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return readCSV(path, latColumn, lngColumn)
	case ".geojson", ".json":
		return readGeoJSON(path)
	default:
		return nil, service.MakeConfig(fmt.Sprintf("unsupported sample-point file format %q", filepath.Ext(path)), nil)
	}
}

func readCSV(path, latColumn, lngColumn string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, service.MakeConfig("open sample-point file", err)
	}
	defer f.Close()

	rows, err := gocsv.CSVToMaps(f)
	if err != nil {
		return nil, service.MakeConfig("parse sample-point file", err)
	}

	pts := make([]Point, 0, len(rows))
	for i, row := range rows {
		latStr, ok := row[latColumn]
		if !ok {
			return nil, service.MakeConfig(fmt.Sprintf("column %q not found in %s", latColumn, path), nil)
		}
		lngStr, ok := row[lngColumn]
		if !ok {
			return nil, service.MakeConfig(fmt.Sprintf("column %q not found in %s", lngColumn, path), nil)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
		if err != nil {
			return nil, service.MakeConfig(fmt.Sprintf("row %d: latitude %q", i+1, latStr), err)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngStr), 64)
		if err != nil {
			return nil, service.MakeConfig(fmt.Sprintf("row %d: longitude %q", i+1, lngStr), err)
		}
		pts = append(pts, Point{Lng: lng, Lat: lat})
	}
	if len(pts) == 0 {
		return nil, service.MakeConfig("sample-point file contains no points", nil)
	}
	return pts, nil
}

func readGeoJSON(path string) ([]Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, service.MakeConfig("open sample-point file", err)
	}

	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, service.MakeConfig("parse sample-point geojson", err)
	}

	var pts []Point
	switch probe.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, service.MakeConfig("parse sample-point geojson", err)
		}
		for _, f := range fc.Features {
			collect(f.Geometry.Geometry, &pts)
		}
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, service.MakeConfig("parse sample-point geojson", err)
		}
		collect(f.Geometry.Geometry, &pts)
	default:
		var g geojson.Geometry
		if err := json.Unmarshal(data, &g); err != nil {
			return nil, service.MakeConfig("parse sample-point geojson", err)
		}
		collect(g.Geometry, &pts)
	}
	if len(pts) == 0 {
		return nil, service.MakeConfig("sample-point file contains no point geometries", nil)
	}
	return pts, nil
}

func collect(g geom.Geometry, pts *[]Point) {
	switch g := g.(type) {
	case geom.Point:
		*pts = append(*pts, Point{Lng: g.X(), Lat: g.Y()})
	case geom.MultiPoint:
		for _, p := range g.Points() {
			*pts = append(*pts, Point{Lng: p[0], Lat: p[1]})
		}
	case geom.Collection:
		for _, sub := range g.Geometries() {
			collect(sub, pts)
		}
	}
}

// Bounds returns the bounding box of the points, padded by pad degrees
func Bounds(pts []Point, pad float64) (west, south, east, north float64) {
	west, south = pts[0].Lng, pts[0].Lat
	east, north = pts[0].Lng, pts[0].Lat
	for _, p := range pts[1:] {
		if p.Lng < west {
			west = p.Lng
		}
		if p.Lng > east {
			east = p.Lng
		}
		if p.Lat < south {
			south = p.Lat
		}
		if p.Lat > north {
			north = p.Lat
		}
	}
	return west - pad, south - pad, east + pad, north + pad
}
