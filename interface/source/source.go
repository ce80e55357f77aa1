// Package source implements the download adapters of the geospatial data
// providers. Each adapter turns one Request into files on disk and reports
// the artifacts it produced; the orchestrator decides what a failure means.
package source

import (
	"context"

	"github.com/agrefed/harvester/common"
)

// Request carries everything an adapter needs for one harvest
type Request struct {
	// BBox is the resolved bounding box (west, south, east, north)
	BBox common.BoundingBox
	// Resolution in arc-seconds; 0 selects the source's native resolution
	Resolution float64
	CRS        string
	Dates      common.DateRange
	// OutDir is the directory the artifacts are written to
	OutDir string

	Layers    []string
	Summaries []string

	// SLGA depth selection in cm
	DepthMin int
	DepthMax int
	// ConfidenceInterval adds the 5th/95th percentile companion coverages
	ConfidenceInterval bool
	// FormatOut is GeoTIFF (default) or NetCDF
	FormatOut string
}

// Downloader is the interface of a data-source adapter
type Downloader interface {
	// Download fetches the requested layers and returns the produced artifacts
	Download(ctx context.Context, req Request) ([]common.Artifact, error)

	// Name of the source
	Name() common.SourceID
}
