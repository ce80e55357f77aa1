package harvest

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/points"
	"github.com/agrefed/harvester/service/log"
	"github.com/airbusgeo/godal"
)

// extractPoints samples every raster artifact at the sample-point locations
// (nearest pixel) and writes one table row per point. Columns are dynamic,
// one per artifact layer, so the table is written with encoding/csv rather
// than a struct codec.
func extractPoints(ctx context.Context, path string, sets []common.ArtifactSet, pts []points.Point) error {
	header := []string{"lng", "lat"}
	columns := make([][]string, 0)

	for _, set := range sets {
		if set.Kind != common.KindRaster {
			continue
		}
		for _, a := range set.Artifacts {
			vals, err := sampleRaster(a.Path, pts)
			if err != nil {
				log.Logger(ctx).Sugar().Warnf("results: %s skipped: %v", a.Path, err)
				continue
			}
			header = append(header, a.Layer)
			columns = append(columns, vals)
		}
	}
	if len(columns) == 0 {
		return fmt.Errorf("extractPoints: no raster could be sampled")
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("extractPoints.%w", err)
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("extractPoints.%w", err)
	}
	for i, p := range pts {
		row := []string{
			strconv.FormatFloat(p.Lng, 'f', -1, 64),
			strconv.FormatFloat(p.Lat, 'f', -1, 64),
		}
		for _, col := range columns {
			row = append(row, col[i])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("extractPoints.%w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("extractPoints.%w", err)
	}
	log.Logger(ctx).Sugar().Infof("results: %d points x %d layers written to %s", len(pts), len(columns), path)
	return nil
}

// sampleRaster reads the first-band value under each point. Points outside
// the raster yield an empty cell.
func sampleRaster(path string, pts []points.Point) ([]string, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sampleRaster.Open: %w", err)
	}
	defer ds.Close()

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("sampleRaster.GeoTransform: %w", err)
	}
	if gt[1] == 0 || gt[5] == 0 {
		return nil, fmt.Errorf("sampleRaster: %s has no geotransform", path)
	}
	sx, sy := ds.Structure().SizeX, ds.Structure().SizeY
	band := ds.Bands()[0]

	out := make([]string, len(pts))
	buf := make([]float64, 1)
	for i, p := range pts {
		px := int(math.Floor((p.Lng - gt[0]) / gt[1]))
		py := int(math.Floor((p.Lat - gt[3]) / gt[5]))
		if px < 0 || px >= sx || py < 0 || py >= sy {
			continue
		}
		if err := band.Read(px, py, buf, 1, 1); err != nil {
			return nil, fmt.Errorf("sampleRaster.Read: %w", err)
		}
		out[i] = strconv.FormatFloat(buf[0], 'g', -1, 64)
	}
	return out, nil
}
