// Package preview renders a thumbnail grid of downloaded rasters so a run
// can be eyeballed without GIS tooling. Rendering is best effort: the
// orchestrator logs failures and moves on.
package preview

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/points"
	"github.com/agrefed/harvester/service/log"
	"github.com/airbusgeo/godal"
	"github.com/fogleman/gg"
)

const (
	thumbSize = 256
	margin    = 8
	labelPad  = 16
)

// Render writes a PNG grid of first-band thumbnails of the artifacts to
// path. Sample points are overlaid on each thumbnail when provided.
func Render(ctx context.Context, path string, sets []common.ArtifactSet, pts []points.Point) error {
	var arts []common.Artifact
	for _, set := range sets {
		if set.Kind == common.KindRaster || set.Kind == common.KindRemoteImage {
			arts = append(arts, set.Artifacts...)
		}
	}
	if len(arts) == 0 {
		return fmt.Errorf("Render: nothing to render")
	}

	cols := int(math.Ceil(math.Sqrt(float64(len(arts)))))
	rows := (len(arts) + cols - 1) / cols
	dc := gg.NewContext(cols*(thumbSize+margin)+margin, rows*(thumbSize+margin+labelPad)+margin)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	for i, a := range arts {
		col, row := i%cols, i/cols
		x := float64(margin + col*(thumbSize+margin))
		y := float64(margin + row*(thumbSize+margin+labelPad))

		img, box, err := thumbnail(a.Path)
		if err != nil {
			log.Logger(ctx).Sugar().Warnf("preview: %s skipped: %v", a.Path, err)
			continue
		}
		dc.DrawImage(img, int(x), int(y))
		drawPoints(dc, pts, box, x, y)

		dc.SetRGB(0, 0, 0)
		dc.DrawStringAnchored(a.Layer, x+thumbSize/2, y+thumbSize+labelPad/2, 0.5, 0.5)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("Render.%w", err)
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("Render.SavePNG: %w", err)
	}
	return nil
}

func drawPoints(dc *gg.Context, pts []points.Point, box common.BoundingBox, x, y float64) {
	if len(pts) == 0 || box.East == box.West || box.North == box.South {
		return
	}
	dc.SetRGB(0.9, 0.1, 0.1)
	for _, p := range pts {
		if p.Lng < box.West || p.Lng > box.East || p.Lat < box.South || p.Lat > box.North {
			continue
		}
		px := x + (p.Lng-box.West)/(box.East-box.West)*thumbSize
		py := y + (box.North-p.Lat)/(box.North-box.South)*thumbSize
		dc.DrawCircle(px, py, 2.5)
		dc.Fill()
	}
}

// thumbnail reads the first band of a raster, downsampled to the thumbnail
// size and stretched to grayscale
func thumbnail(path string) (image.Image, common.BoundingBox, error) {
	ds, err := godal.Open(path)
	if err != nil {
		return nil, common.BoundingBox{}, fmt.Errorf("thumbnail.Open: %w", err)
	}
	defer ds.Close()

	small, err := ds.Translate("", []string{"-of", "MEM", "-outsize", fmt.Sprint(thumbSize), fmt.Sprint(thumbSize)})
	if err != nil {
		return nil, common.BoundingBox{}, fmt.Errorf("thumbnail.Translate: %w", err)
	}
	defer small.Close()

	data := make([]float64, thumbSize*thumbSize)
	if err := small.Bands()[0].Read(0, 0, data, thumbSize, thumbSize); err != nil {
		return nil, common.BoundingBox{}, fmt.Errorf("thumbnail.Read: %w", err)
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range data {
		if math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	img := image.NewGray(image.Rect(0, 0, thumbSize, thumbSize))
	if hi > lo {
		for i, v := range data {
			g := uint8(255 * (v - lo) / (hi - lo))
			img.SetGray(i%thumbSize, i/thumbSize, color.Gray{Y: g})
		}
	}

	box := common.BoundingBox{}
	if gt, err := ds.GeoTransform(); err == nil {
		sx, sy := ds.Structure().SizeX, ds.Structure().SizeY
		box = common.BoundingBox{
			West:  gt[0],
			North: gt[3],
			East:  gt[0] + gt[1]*float64(sx),
			South: gt[3] + gt[5]*float64(sy),
		}
	}
	return img, box, nil
}
