package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service/log"
	"github.com/airbusgeo/godal"
)

// siloBaseURL serves one NetCDF file per climate variable and year
const siloBaseURL = "https://s3-ap-southeast-2.amazonaws.com/silo-open-data/Official/annual/"

// SILO downloads gridded climate data of the Queensland SILO database
type SILO struct{}

// Name implements Downloader
func (SILO) Name() common.SourceID { return common.SourceSILO }

// Download implements Downloader. For each layer and each year of the date
// range, the national NetCDF grid is fetched and cropped to the bounding box.
func (d SILO) Download(ctx context.Context, req Request) ([]common.Artifact, error) {
	years := req.Dates.Years()
	if len(years) == 0 {
		return nil, fmt.Errorf("Download: no date range configured")
	}

	var artifacts []common.Artifact
	for i, layer := range req.Layers {
		summary := ""
		if i < len(req.Summaries) {
			summary = req.Summaries[i]
		}
		for _, year := range years {
			national := filepath.Join(req.OutDir, fmt.Sprintf("%d.%s.nc", year, layer))
			if _, err := os.Stat(national); err != nil {
				url := fmt.Sprintf("%s%s/%d.%s.nc", siloBaseURL, layer, year, layer)
				if err := downloadFile(ctx, url, national, fmt.Sprintf("SILO:%s:%d", layer, year)); err != nil {
					return artifacts, fmt.Errorf("Download.%w", err)
				}
			}
			cropped, err := cropGrid(national, req, fmt.Sprintf("%s_%d_cropped", layer, year))
			if err != nil {
				return artifacts, fmt.Errorf("Download.%w", err)
			}
			artifacts = append(artifacts, common.Artifact{Path: cropped, Layer: layer, Aggregation: summary})
			log.Logger(ctx).Sugar().Infof("SILO: %s %d cropped to %s", layer, year, cropped)
		}
	}
	return artifacts, nil
}

// cropGrid clips a national grid to the request bounding box, converting to
// GeoTIFF unless NetCDF output is requested
func cropGrid(src string, req Request, baseName string) (string, error) {
	format, ext := "GTiff", ".tif"
	if req.FormatOut == "NetCDF" {
		format, ext = "netCDF", ".nc"
	}
	out := filepath.Join(filepath.Dir(src), baseName+ext)
	if _, err := os.Stat(out); err == nil {
		return out, nil
	}

	ds, err := godal.Open(src)
	if err != nil {
		return "", fmt.Errorf("cropGrid.Open[%s]: %w", src, err)
	}
	defer ds.Close()

	cropped, err := ds.Translate(out, []string{
		"-of", format,
		"-projwin",
		strconv.FormatFloat(req.BBox.West, 'f', -1, 64),
		strconv.FormatFloat(req.BBox.North, 'f', -1, 64),
		strconv.FormatFloat(req.BBox.East, 'f', -1, 64),
		strconv.FormatFloat(req.BBox.South, 'f', -1, 64),
	})
	if err != nil {
		return "", fmt.Errorf("cropGrid.Translate[%s]: %w", src, err)
	}
	cropped.Close()
	return out, nil
}
