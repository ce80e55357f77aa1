package source

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service/log"
)

// deaEndpoint is the Digital Earth Australia OGC web service
const deaEndpoint = "https://ows.dea.ga.gov.au/"

// DEA downloads satellite products of Digital Earth Australia
type DEA struct{}

// Name implements Downloader
func (DEA) Name() common.SourceID { return common.SourceDEA }

// Download implements Downloader. The coverages are time-enabled: for each
// layer and each year of the date range, every available acquisition date is
// fetched as its own raster. Layers without a time axis fall back to a single
// dateless request.
func (d DEA) Download(ctx context.Context, req Request) ([]common.Artifact, error) {
	years := req.Dates.Years()
	if len(years) == 0 {
		return nil, fmt.Errorf("Download: no date range configured")
	}
	resDeg := resolutionDeg(req.Resolution, 1)
	ext := extensionFor(req.FormatOut)

	var artifacts []common.Artifact
	for _, layer := range req.Layers {
		times, err := coverageTimes(ctx, deaEndpoint, layer)
		if err != nil {
			return artifacts, fmt.Errorf("Download.%w", err)
		}
		for _, year := range years {
			dates := timesInYear(times, year)
			if len(dates) == 0 {
				log.Logger(ctx).Sugar().Warnf("DEA: no %s acquisitions in %d, requesting without date", layer, year)
				dates = []string{""}
			}
			for _, date := range dates {
				fname := filepath.Join(req.OutDir, deaFileName(layer, date, ext))
				p := coverageParams{Coverage: layer, CRS: req.CRS, BBox: req.BBox, ResDeg: resDeg, Format: req.FormatOut, Time: date}
				if err := getCoverage(ctx, deaEndpoint, p, fname, "DEA:"+layer); err != nil {
					return artifacts, fmt.Errorf("Download.%w", err)
				}
				artifacts = append(artifacts, common.Artifact{Path: fname, Layer: layer})
			}
			log.Logger(ctx).Sugar().Infof("DEA: %s %d, %d images", layer, year, len(dates))
		}
	}
	return artifacts, nil
}

// timesInYear filters ISO time positions to those within the given year
func timesInYear(times []string, year int) []string {
	var out []string
	for _, ts := range times {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		if t.UTC().Year() == year {
			out = append(out, ts)
		}
	}
	return out
}

func deaFileName(layer, date, ext string) string {
	if date == "" {
		return layer + ext
	}
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return layer + ext
	}
	t = t.UTC()
	return fmt.Sprintf("%s_%d-%d-%d%s", layer, t.Year(), int(t.Month()), t.Day(), ext)
}
