package source

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service/log"
	"github.com/airbusgeo/godal"
)

// demEndpoint is the Geoscience Australia 1 second SRTM-derived DEM
const demEndpoint = "https://services.ga.gov.au/site_9/services/DEM_SRTM_1Second_Hydro_Enforced/MapServer/WCSServer"

// demCoverageID is the single coverage of the DEM server
const demCoverageID = "1"

// metre lengths of one arc-second along each axis; the longitude length is
// scaled by cos(latitude)
const (
	arcsecMetersLat = 30.87
	arcsecMetersLng = 30.922
)

// DEM downloads the national elevation model and derives terrain layers
type DEM struct{}

// Name implements Downloader
func (DEM) Name() common.SourceID { return common.SourceDEM }

// Download implements Downloader. The elevation grid is fetched once;
// Slope and Aspect are computed from it locally.
func (d DEM) Download(ctx context.Context, req Request) ([]common.Artifact, error) {
	resDeg := resolutionDeg(req.Resolution, 1)
	demPath := filepath.Join(req.OutDir, "DEM.tif")

	needDEM := false
	for _, layer := range req.Layers {
		switch layer {
		case "DEM", "Slope", "Aspect":
			needDEM = true
		default:
			return nil, fmt.Errorf("Download: unknown layer %q (DEM, Slope or Aspect)", layer)
		}
	}
	if needDEM {
		p := coverageParams{Coverage: demCoverageID, CRS: req.CRS, BBox: req.BBox, ResDeg: resDeg}
		if err := getCoverage(ctx, demEndpoint, p, demPath, "DEM"); err != nil {
			return nil, fmt.Errorf("Download.%w", err)
		}
	}

	var artifacts []common.Artifact
	for _, layer := range req.Layers {
		switch layer {
		case "DEM":
			artifacts = append(artifacts, common.Artifact{Path: demPath, Layer: "DEM"})
		case "Slope", "Aspect":
			out := filepath.Join(req.OutDir, "DEM_"+layer+".tif")
			if err := deriveTerrain(demPath, out, layer); err != nil {
				return artifacts, fmt.Errorf("Download.%w", err)
			}
			artifacts = append(artifacts, common.Artifact{Path: out, Layer: layer})
			log.Logger(ctx).Sugar().Infof("DEM: %s derived at %s", layer, out)
		}
	}
	return artifacts, nil
}

// deriveTerrain computes a slope (degrees) or aspect (degrees from north)
// raster from an elevation grid using Horn's method
func deriveTerrain(demPath, outPath, layer string) error {
	if _, err := os.Stat(outPath); err == nil {
		return nil
	}
	ds, err := godal.Open(demPath)
	if err != nil {
		return fmt.Errorf("deriveTerrain.Open[%s]: %w", demPath, err)
	}
	defer ds.Close()

	sx, sy := ds.Structure().SizeX, ds.Structure().SizeY
	gt, err := ds.GeoTransform()
	if err != nil {
		return fmt.Errorf("deriveTerrain.GeoTransform: %w", err)
	}
	elev := make([]float64, sx*sy)
	if err := ds.Bands()[0].Read(0, 0, elev, sx, sy); err != nil {
		return fmt.Errorf("deriveTerrain.Read: %w", err)
	}

	// cell sizes in metres at the raster's central latitude
	midLat := gt[3] + gt[5]*float64(sy)/2
	cellX := math.Abs(gt[1]) * 3600 * arcsecMetersLng * math.Cos(midLat*math.Pi/180)
	cellY := math.Abs(gt[5]) * 3600 * arcsecMetersLat

	out := make([]float64, sx*sy)
	at := func(x, y int) float64 {
		x = clamp(x, 0, sx-1)
		y = clamp(y, 0, sy-1)
		return elev[y*sx+x]
	}
	for y := 0; y < sy; y++ {
		for x := 0; x < sx; x++ {
			dzdx := ((at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))) / (8 * cellX)
			dzdy := ((at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))) / (8 * cellY)
			switch layer {
			case "Slope":
				out[y*sx+x] = math.Atan(math.Hypot(dzdx, dzdy)) * 180 / math.Pi
			case "Aspect":
				a := math.Atan2(dzdy, -dzdx) * 180 / math.Pi
				out[y*sx+x] = math.Mod(450-a, 360)
			}
		}
	}

	dst, err := godal.Create(godal.GTiff, outPath, 1, godal.Float64, sx, sy)
	if err != nil {
		return fmt.Errorf("deriveTerrain.Create[%s]: %w", outPath, err)
	}
	defer dst.Close()
	if err := dst.SetGeoTransform(gt); err != nil {
		return fmt.Errorf("deriveTerrain.SetGeoTransform: %w", err)
	}
	if err := dst.SetProjection(ds.Projection()); err != nil {
		return fmt.Errorf("deriveTerrain.SetProjection: %w", err)
	}
	if err := dst.Bands()[0].Write(0, 0, out, sx, sy); err != nil {
		return fmt.Errorf("deriveTerrain.Write: %w", err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
