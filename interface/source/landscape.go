package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service/log"
)

// landscapeEndpoint serves the SRTM-derived landscape attributes
const landscapeEndpoint = "https://www.asris.csiro.au/arcgis/services/TERN/SRTM_attributes_3s_ACLEP_AU/MapServer/WCSServer"

// landscapeCoverageIDs maps attribute names to the numeric WCS identifiers
// of the server
var landscapeCoverageIDs = map[string]string{
	"Prescott_index":                    "1",
	"net_radiation_jan":                 "2",
	"net_radiation_july":                "3",
	"total_shortwave_sloping_surf_jan":  "4",
	"total_shortwave_sloping_surf_july": "5",
	"Slope":                             "6",
	"Slope_median_300m":                 "7",
	"Slope_relief_class":                "8",
	"Aspect":                            "9",
	"Relief_1000m":                      "10",
	"Relief_300m":                       "11",
	"Topographic_wetness_index":         "12",
	"TPI_mask":                          "13",
	"SRTM_TopographicPositionIndex":     "14",
	"Contributing_area":                 "15",
	"MrVBF":                             "16",
	"Plan_curvature":                    "17",
	"Profile_curvature":                 "18",
}

// Landscape downloads terrain attributes of the Soil and Landscape Grid
type Landscape struct{}

// Name implements Downloader
func (Landscape) Name() common.SourceID { return common.SourceLandscape }

// Download implements Downloader
func (d Landscape) Download(ctx context.Context, req Request) ([]common.Artifact, error) {
	resDeg := resolutionDeg(req.Resolution, 3)

	var artifacts []common.Artifact
	for _, layer := range req.Layers {
		id, ok := landscapeCoverageIDs[layer]
		if !ok {
			return artifacts, fmt.Errorf("Download: no coverage identifier for layer %q", layer)
		}
		fname := filepath.Join(req.OutDir, "Landscape_"+layer+".tif")
		p := coverageParams{Coverage: id, CRS: req.CRS, BBox: req.BBox, ResDeg: resDeg}
		if err := getCoverage(ctx, landscapeEndpoint, p, fname, "Landscape:"+layer); err != nil {
			return artifacts, fmt.Errorf("Download.%w", err)
		}
		artifacts = append(artifacts, common.Artifact{Path: fname, Layer: layer})
		log.Logger(ctx).Sugar().Infof("Landscape: %s downloaded", layer)
	}
	return artifacts, nil
}
