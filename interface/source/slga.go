package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service/log"
)

// slgaEndpoints maps each soil attribute to its WCS server
var slgaEndpoints = map[string]string{
	"Bulk_Density":                       "https://www.asris.csiro.au/ArcGIS/services/TERN/BDW_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Organic_Carbon":                     "https://www.asris.csiro.au/ArcGIS/services/TERN/SOC_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Clay":                               "https://www.asris.csiro.au/ArcGIS/services/TERN/CLY_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Silt":                               "https://www.asris.csiro.au/ArcGIS/services/TERN/SLT_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Sand":                               "https://www.asris.csiro.au/ArcGIS/services/TERN/SND_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"pH_CaCl2":                           "https://www.asris.csiro.au/ArcGIS/services/TERN/PHC_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Available_Water_Capacity":           "https://www.asris.csiro.au/ArcGIS/services/TERN/AWC_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Total_Nitrogen":                     "https://www.asris.csiro.au/ArcGIS/services/TERN/NTO_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Total_Phosphorus":                   "https://www.asris.csiro.au/ArcGIS/services/TERN/PTO_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Effective_Cation_Exchange_Capacity": "https://www.asris.csiro.au/ArcGIS/services/TERN/ECE_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Depth_of_Regolith":                  "https://www.asris.csiro.au/ArcGIS/services/TERN/DER_ACLEP_AU_NAT_C/MapServer/WCSServer",
	"Depth_of_Soil":                      "https://www.asris.csiro.au/ArcGIS/services/TERN/DES_ACLEP_AU_NAT_C/MapServer/WCSServer",
}

// depthIntervals are the GlobalSoilMap depth boundaries in cm
var depthIntervals = [7]int{0, 5, 15, 30, 60, 100, 200}

// depthCoverage is one depth slice of a soil attribute and its WCS coverage
// identifiers. The servers expose three coverages per slice: the estimated
// value and the 5th/95th percentile confidence bounds.
type depthCoverage struct {
	Value, CI5, CI95 string
	Lower, Upper     int
}

// depthCoverages returns the depth slices fully contained in [depthMin, depthMax]
func depthCoverages(depthMin, depthMax int) []depthCoverage {
	var out []depthCoverage
	for i := 0; i < len(depthIntervals)-1; i++ {
		if depthMin <= depthIntervals[i] && depthMax >= depthIntervals[i+1] {
			out = append(out, depthCoverage{
				Value: fmt.Sprint(3*i + 1),
				CI95:  fmt.Sprint(3*i + 2),
				CI5:   fmt.Sprint(3*i + 3),
				Lower: depthIntervals[i],
				Upper: depthIntervals[i+1],
			})
		}
	}
	return out
}

// SLGA downloads soil attributes of the Soil and Landscape Grid of Australia
type SLGA struct{}

// Name implements Downloader
func (SLGA) Name() common.SourceID { return common.SourceSLGA }

// Download implements Downloader. Each layer yields one GeoTIFF per selected
// depth slice, plus the confidence-bound rasters when requested.
func (d SLGA) Download(ctx context.Context, req Request) ([]common.Artifact, error) {
	depthMin, depthMax := req.DepthMin, req.DepthMax
	if depthMin == 0 && depthMax == 0 {
		depthMax = 200
	}
	coverages := depthCoverages(depthMin, depthMax)
	if len(coverages) == 0 {
		return nil, fmt.Errorf("Download: no depth interval within %d-%dcm", depthMin, depthMax)
	}
	resDeg := resolutionDeg(req.Resolution, 3)

	var artifacts []common.Artifact
	for _, layer := range req.Layers {
		endpoint, ok := slgaEndpoints[layer]
		if !ok {
			return artifacts, fmt.Errorf("Download: no endpoint for layer %q", layer)
		}
		for _, cov := range coverages {
			name := fmt.Sprintf("SLGA_%s_%d-%dcm", layer, cov.Lower, cov.Upper)
			fname := filepath.Join(req.OutDir, name+".tif")
			p := coverageParams{Coverage: cov.Value, CRS: req.CRS, BBox: req.BBox, ResDeg: resDeg}
			if err := getCoverage(ctx, endpoint, p, fname, "SLGA:"+name); err != nil {
				return artifacts, fmt.Errorf("Download.%w", err)
			}
			artifacts = append(artifacts, common.Artifact{Path: fname, Layer: layerDepthName(layer, cov)})

			if !req.ConfidenceInterval {
				continue
			}
			for _, ci := range []struct{ id, suffix string }{{cov.CI5, "_5percentile"}, {cov.CI95, "_95percentile"}} {
				fname := filepath.Join(req.OutDir, name+ci.suffix+".tif")
				p.Coverage = ci.id
				if err := getCoverage(ctx, endpoint, p, fname, "SLGA:"+name+ci.suffix); err != nil {
					return artifacts, fmt.Errorf("Download.%w", err)
				}
				artifacts = append(artifacts, common.Artifact{Path: fname, Layer: layerDepthName(layer, cov) + ci.suffix})
			}
		}
		log.Logger(ctx).Sugar().Infof("SLGA: %s downloaded (%d depth slices)", layer, len(coverages))
	}
	return artifacts, nil
}

func layerDepthName(layer string, cov depthCoverage) string {
	return fmt.Sprintf("%s_%d-%dcm", layer, cov.Lower, cov.Upper)
}
