// Package remoteimage drives a satellite-catalog session: collect scenes for
// a region and date filter, reduce them server-side to a single image, and
// export the raster. The remote engine is an external collaborator behind the
// Engine interface; the session owns ordering and download mechanics.
package remoteimage

import (
	"context"
	"errors"

	"github.com/agrefed/harvester/common"
	"github.com/go-spatial/geom"
)

// ErrMissingBands is reported by an engine when spectral indices cannot be
// computed because the collection lacks the required bands
var ErrMissingBands = errors.New("collection is missing bands required for the spectral indices")

// Collection is a server-side handle on a filtered scene collection
type Collection struct {
	ID    string
	Count int
}

// Image is a server-side handle on a composited image
type Image struct {
	ID    string
	Bands []string
}

// PreprocessOptions configure the server-side reduction of a collection
type PreprocessOptions struct {
	MaskClouds bool
	// Reduce is the compositing statistic (median, mean, sum, mode, max,
	// min, mosaic)
	Reduce string
	// Spectral indices to derive, e.g. NDVI
	Spectral []string
	// Clip affects visualization only, never the download extent
	Clip bool
}

// VisualizeOptions configure a preview rendering
type VisualizeOptions struct {
	Bands   []string
	MinMax  []float64
	Palette string
	// SaveTo writes the preview to a file instead of the default sink
	SaveTo string
}

// Engine abstracts the remote catalog service
type Engine interface {
	// Collect filters the catalog to the scenes intersecting region and dates
	Collect(ctx context.Context, catalogID string, region geom.Geometry, dates common.DateRange) (Collection, error)

	// Preprocess masks, scales and composites the collection into one image
	Preprocess(ctx context.Context, c Collection, opts PreprocessOptions) (Image, error)

	// Aggregate folds the image into periodic composites
	Aggregate(ctx context.Context, img Image, frequency, reduceBy string) (Image, error)

	// Map renders a preview of the image
	Map(ctx context.Context, img Image, opts VisualizeOptions) error

	// SizeOf estimates the export payload in bytes
	SizeOf(ctx context.Context, img Image, bands []string, scale float64, region geom.Geometry) (int64, error)

	// DownloadURL returns a URL serving the export of the image over region
	DownloadURL(ctx context.Context, img Image, bands []string, scale float64, region geom.Geometry, format string) (string, error)
}
