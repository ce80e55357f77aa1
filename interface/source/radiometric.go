package source

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service/log"
)

// radiometricEndpoint is the NCI GSKY server of the national geophysical
// compilations
const radiometricEndpoint = "https://gsky.nci.org.au/ows/national_geophysical_compilations"

// Radiometric downloads gamma-ray spectrometry grids (Radmap 2019)
type Radiometric struct{}

// Name implements Downloader
func (Radiometric) Name() common.SourceID { return common.SourceRadiometric }

// Download implements Downloader. The GSKY coverages are time-enabled with a
// single position, which the server wants spelled out.
func (d Radiometric) Download(ctx context.Context, req Request) ([]common.Artifact, error) {
	resDeg := resolutionDeg(req.Resolution, 3.6)
	ext := extensionFor(req.FormatOut)

	var artifacts []common.Artifact
	for _, layer := range req.Layers {
		times, err := coverageTimes(ctx, radiometricEndpoint, layer)
		if err != nil {
			return artifacts, fmt.Errorf("Download.%w", err)
		}
		t := ""
		if len(times) > 0 {
			t = times[len(times)-1]
		}
		fname := filepath.Join(req.OutDir, "Radiometric_"+layer+ext)
		p := coverageParams{Coverage: layer, CRS: req.CRS, BBox: req.BBox, ResDeg: resDeg, Format: req.FormatOut, Time: t}
		if err := getCoverage(ctx, radiometricEndpoint, p, fname, "Radiometric:"+layer); err != nil {
			return artifacts, fmt.Errorf("Download.%w", err)
		}
		artifacts = append(artifacts, common.Artifact{Path: fname, Layer: layer})
		log.Logger(ctx).Sugar().Infof("Radiometric: %s downloaded", layer)
	}
	return artifacts, nil
}
