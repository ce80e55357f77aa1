// Package config holds the harvest settings model: global parameters shared
// by every source plus a per-source sub-configuration. A Configuration is
// assembled once, from a YAML file or the built-in template plus chainable
// setters, and is treated as immutable once handed to the orchestrator.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/agrefed/harvester/catalog"
	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/points"
	"github.com/agrefed/harvester/service"
	"github.com/agrefed/harvester/service/log"
	"go.uber.org/zap"
)

// BBoxPadding is added around the sample-point extent when the bounding box
// is derived from points, in decimal degrees (~180 arc-seconds).
const BBoxPadding = 0.05

const minYear = 1970

// SourceConfig is the per-source sub-configuration
type SourceConfig struct {
	// Layers are the requested layer/product names, in download order
	Layers []string `yaml:"layers"`
	// SummaryFunctions aligns 1:1 with Layers after broadcast
	SummaryFunctions []string `yaml:"summary_functions"`

	// SLGA depth range in cm
	DepthMin int `yaml:"depth_min"`
	DepthMax int `yaml:"depth_max"`
	// ConfidenceInterval requests the upper/lower confidence companion
	// coverages (SLGA)
	ConfidenceInterval bool `yaml:"confidence_interval"`
	// FormatOut is GeoTIFF (default) or NetCDF
	FormatOut string `yaml:"format_out"`
}

// BroadcastSummaries returns the summary function list aligned with Layers.
// A single value broadcasts to all layers. A length mismatch is reported as
// a warning and repaired best-effort, never a hard failure.
func (sc SourceConfig) BroadcastSummaries() ([]string, []string) {
	n := len(sc.Layers)
	switch {
	case len(sc.SummaryFunctions) == n:
		return sc.SummaryFunctions, nil
	case len(sc.SummaryFunctions) == 0:
		return make([]string, n), nil
	case len(sc.SummaryFunctions) == 1:
		out := make([]string, n)
		for i := range out {
			out[i] = sc.SummaryFunctions[0]
		}
		return out, nil
	}
	warn := []string{fmt.Sprintf("%d summary functions for %d layers, aligning with the first value", len(sc.SummaryFunctions), n)}
	out := make([]string, n)
	for i := range out {
		if i < len(sc.SummaryFunctions) {
			out[i] = sc.SummaryFunctions[i]
		} else {
			out[i] = sc.SummaryFunctions[0]
		}
	}
	return out, warn
}

// Configuration is the unified settings object of one harvest run
type Configuration struct {
	InputPath  string
	InputFile  string
	OutputPath string

	LatColumn string
	LngColumn string

	// BoundingBox zero value means "derive from sample points"
	BoundingBox common.BoundingBox
	// Resolution in arc-seconds; 0 lets each source use its native resolution
	Resolution float64
	CRS        string

	Dates common.DateRange
	// AggregationInterval is year, month or day
	AggregationInterval string
	// TimeBuffer in days around the date range (remote image collection)
	TimeBuffer int

	Sources map[common.SourceID]SourceConfig

	// RemoteImage is set when the satellite-catalog source is configured
	RemoteImage *RemoteImageConfig
}

// Template returns the built-in default configuration
func Template() *Configuration {
	return &Configuration{
		OutputPath:          "data/download",
		LatColumn:           "Lat",
		LngColumn:           "Long",
		Resolution:          1,
		CRS:                 "EPSG:4326",
		AggregationInterval: "year",
		Sources:             map[common.SourceID]SourceConfig{},
	}
}

// SetPaths sets the filesystem locations
func (c *Configuration) SetPaths(inputPath, inputFile, outputPath string) *Configuration {
	c.InputPath = inputPath
	c.InputFile = inputFile
	c.OutputPath = outputPath
	return c
}

// SetCoordinateColumns names the coordinate columns of the sample-point file
func (c *Configuration) SetCoordinateColumns(lat, lng string) *Configuration {
	c.LatColumn = lat
	c.LngColumn = lng
	return c
}

// SetBoundingBox sets an explicit box (west, south, east, north). A wrong
// arity falls back to the derive-from-points sentinel with a notice.
func (c *Configuration) SetBoundingBox(vals ...float64) *Configuration {
	b, err := common.NewBoundingBox(vals)
	if err != nil {
		log.Logger(context.Background()).Warn("bounding box ignored, falling back to sample-point derivation", zap.Error(err))
		c.BoundingBox = common.BoundingBox{}
		return c
	}
	c.BoundingBox = b
	return c
}

// SetResolution sets the target resolution in arc-seconds
func (c *Configuration) SetResolution(arcsec float64) *Configuration {
	c.Resolution = arcsec
	return c
}

// SetCRS sets the coordinate reference system
func (c *Configuration) SetCRS(crs string) *Configuration {
	c.CRS = crs
	return c
}

// SetDates sets the calendar bounds. A bare year means the whole year.
// Unparseable dates keep the previous range with a notice.
func (c *Configuration) SetDates(min, max string) *Configuration {
	dr, err := common.ParseDateRange(min, max)
	if err != nil {
		log.Logger(context.Background()).Warn("dates ignored", zap.Error(err))
		return c
	}
	c.Dates = dr
	return c
}

// SetSource configures one source's layers and summary functions
func (c *Configuration) SetSource(source common.SourceID, layers []string, summaries []string) *Configuration {
	if c.Sources == nil {
		c.Sources = map[common.SourceID]SourceConfig{}
	}
	sc := c.Sources[source]
	sc.Layers = layers
	sc.SummaryFunctions = summaries
	c.Sources[source] = sc
	return c
}

// ResolveBoundingBox returns the effective box of the run: the explicit box
// unchanged, or the padded extent of the sample points when the sentinel is
// set. Raises a configuration error when neither is available.
func (c *Configuration) ResolveBoundingBox(ctx context.Context) (common.BoundingBox, error) {
	if !c.BoundingBox.IsZero() {
		if err := c.BoundingBox.Validate(); err != nil {
			return common.BoundingBox{}, service.MakeConfig("invalid bounding box", err)
		}
		return c.BoundingBox, nil
	}
	if c.InputFile == "" {
		return common.BoundingBox{}, service.MakeConfig("no sampling file or bounding box provided", nil)
	}
	pts, err := c.ReadPoints()
	if err != nil {
		return common.BoundingBox{}, err
	}
	w, s, e, n := points.Bounds(pts, BBoxPadding)
	box := common.BoundingBox{West: w, South: s, East: e, North: n}
	log.Logger(ctx).Sugar().Infof("bounding box derived from %d sample points: %s", len(pts), box)
	return box, nil
}

// ReadPoints loads the sample points of the input file, if one is configured
func (c *Configuration) ReadPoints() ([]points.Point, error) {
	if c.InputFile == "" {
		return nil, nil
	}
	return points.Read(c.inputFilePath(), c.LatColumn, c.LngColumn)
}

func (c *Configuration) inputFilePath() string {
	if c.InputPath == "" {
		return c.InputFile
	}
	return c.InputPath + "/" + c.InputFile
}

// Validate checks the configuration before a run. Schema problems are hard
// errors; unknown layers and summary mismatches are advisory warnings.
func (c *Configuration) Validate() ([]catalog.Warning, error) {
	if c.OutputPath == "" {
		return nil, service.MakeConfig("outpath is required", nil)
	}
	if !c.BoundingBox.IsZero() {
		if err := c.BoundingBox.Validate(); err != nil {
			return nil, service.MakeConfig("invalid bounding box", err)
		}
		res := c.Resolution
		if res == 0 {
			res = 1
		}
		if n := c.BoundingBox.PixelCount(res); n > common.MaxPixels {
			return nil, service.MakeConfig(fmt.Sprintf("requested image is %v pixels, more than the maximum of %v; reduce the bounding box or coarsen the resolution", n, float64(common.MaxPixels)), nil)
		}
	}
	for _, y := range c.Dates.Years() {
		if y < minYear {
			return nil, service.MakeConfig(fmt.Sprintf("dates must be %d or later, got %d", minYear, y), nil)
		}
		if y > time.Now().Year() {
			return nil, service.MakeConfig(fmt.Sprintf("dates can not be in the future, got %d", y), nil)
		}
	}
	switch c.AggregationInterval {
	case "", "year", "month", "day":
	default:
		return nil, service.MakeConfig(fmt.Sprintf("time_intervals must be year, month or day, got %q", c.AggregationInterval), nil)
	}

	var warnings []catalog.Warning
	for source, sc := range c.Sources {
		if !common.KnownSource(source) {
			return nil, service.MakeConfig(fmt.Sprintf("unknown source %q", source), nil)
		}
		if source == common.SourceRemoteImage {
			continue
		}
		v := catalog.Validate(source, sc.Layers)
		warnings = append(warnings, v.Warnings...)
		if _, mismatch := sc.BroadcastSummaries(); mismatch != nil {
			warnings = append(warnings, catalog.Warning{Source: source, Message: mismatch[0]})
		}
	}
	if _, ok := c.Sources[common.SourceRemoteImage]; ok && c.RemoteImage == nil {
		return nil, service.MakeConfig("RemoteImage source requires a collect/preprocess/download block", nil)
	}
	return warnings, nil
}
