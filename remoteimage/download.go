package remoteimage

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service"
	"github.com/agrefed/harvester/service/log"
	"github.com/cavaliercoder/grab"
	"github.com/go-spatial/geom"
	"github.com/mholt/archiver"
	"golang.org/x/sync/errgroup"
)

// payloadLimit is the largest export the engine serves in one request
const payloadLimit = 32 << 20

// defaultScale in metres per pixel, applied when the caller leaves it unset
const defaultScale = 100

// DownloadOptions configure the raster export
type DownloadOptions struct {
	Bands []string
	// Scale in metres per pixel; 0 defaults to 100
	Scale  float64
	OutDir string
	// Format is tif (default) or png
	Format    string
	Overwrite bool
}

// Download exports the session image as raster files. It may be called right
// after Collect (a default preprocess is applied) and repeated after a
// previous download with different bands or scale. Exports larger than the
// engine payload limit are split into an even grid of tiles, fetched
// concurrently and enumerated in tile order.
func (s *Session) Download(ctx context.Context, opts DownloadOptions) ([]common.Artifact, error) {
	if s.state == StateUninitialized {
		return nil, s.sequenceError("Download")
	}
	if opts.Scale <= 0 {
		log.Logger(ctx).Sugar().Infof("download: scale not set, using %dm", defaultScale)
		opts.Scale = defaultScale
	}
	if opts.OutDir == "" {
		opts.OutDir = "."
	}
	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("Download.%w", err)
	}

	// download straight after collect composites with the defaults
	if s.state == StateCollected {
		img, err := s.engine.Preprocess(ctx, s.collection, PreprocessOptions{MaskClouds: true, Reduce: "median", Clip: true})
		if err != nil {
			return nil, fmt.Errorf("Download.Preprocess.%w", err)
		}
		s.image = img
		s.reduce = "median"
	}

	size, err := s.engine.SizeOf(ctx, s.image, opts.Bands, opts.Scale, s.region)
	if err != nil {
		return nil, fmt.Errorf("Download.SizeOf.%w", err)
	}

	var artifacts []common.Artifact
	if size <= payloadLimit {
		artifacts, err = s.downloadWhole(ctx, opts)
	} else {
		grid := int(math.Ceil(math.Sqrt(float64(size) / float64(payloadLimit))))
		log.Logger(ctx).Sugar().Infof("download: estimated %d bytes exceeds the %d byte limit, splitting into %dx%d tiles", size, payloadLimit, grid, grid)
		artifacts, err = s.downloadTiled(ctx, opts, grid)
	}
	if err != nil {
		return nil, err
	}
	s.state = StateDownloaded
	return artifacts, nil
}

func (s *Session) downloadWhole(ctx context.Context, opts DownloadOptions) ([]common.Artifact, error) {
	ext := "." + format(opts)
	path := filepath.Join(opts.OutDir, s.exportName(opts)+ext)
	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		log.Logger(ctx).Sugar().Infof("download: %s already exists, skipping", path)
		return []common.Artifact{s.artifact(path)}, nil
	}
	url, err := s.engine.DownloadURL(ctx, s.image, opts.Bands, opts.Scale, s.region, format(opts))
	if err != nil {
		return nil, fmt.Errorf("Download.DownloadURL.%w", err)
	}
	if err := fetchFile(ctx, url, path); err != nil {
		return nil, fmt.Errorf("Download.%w", err)
	}
	return []common.Artifact{s.artifact(path)}, nil
}

func (s *Session) downloadTiled(ctx context.Context, opts DownloadOptions, grid int) ([]common.Artifact, error) {
	tmpdir, err := os.MkdirTemp(opts.OutDir, "tiles")
	if err != nil {
		return nil, fmt.Errorf("Download.%w", err)
	}
	defer os.RemoveAll(tmpdir)

	zips := make([]string, grid*grid)
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < grid; i++ {
		for j := 0; j < grid; j++ {
			i, j := i, j
			g.Go(func() error {
				tile := s.tileRegion(i, j, grid)
				url, err := s.engine.DownloadURL(gctx, s.image, opts.Bands, opts.Scale, tile, "zip")
				if err != nil {
					return fmt.Errorf("tile %d/%d: %w", i, j, err)
				}
				zipPath := filepath.Join(tmpdir, fmt.Sprintf("tile_%d_%d.zip", i, j))
				if err := fetchFile(gctx, url, zipPath); err != nil {
					return fmt.Errorf("tile %d/%d: %w", i, j, err)
				}
				zips[i*grid+j] = zipPath
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Download.%w", err)
	}

	// unpack in tile index order so the artifact list is deterministic
	base := s.exportName(opts)
	var artifacts []common.Artifact
	for k, zipPath := range zips {
		files, err := unarchiveInto(zipPath, opts.OutDir, fmt.Sprintf("%s_tile%03d", base, k))
		if err != nil {
			return nil, fmt.Errorf("Download.%w", err)
		}
		for _, f := range files {
			artifacts = append(artifacts, s.artifact(f))
		}
	}
	return artifacts, nil
}

// tileRegion returns the rectangle of grid cell (row i, column j) of the
// collected bounds
func (s *Session) tileRegion(i, j, grid int) geom.Geometry {
	dx := (s.bounds.East - s.bounds.West) / float64(grid)
	dy := (s.bounds.North - s.bounds.South) / float64(grid)
	return rectangle(common.BoundingBox{
		West:  s.bounds.West + float64(j)*dx,
		East:  s.bounds.West + float64(j+1)*dx,
		South: s.bounds.South + float64(i)*dy,
		North: s.bounds.South + float64(i+1)*dy,
	})
}

func (s *Session) artifact(path string) common.Artifact {
	return common.Artifact{Path: path, Layer: s.catalogID, Aggregation: s.reduce}
}

// exportName builds the output base name from the session parameters, e.g.
// LAN_20200101_20201231_B2B3B4_median_100m
func (s *Session) exportName(opts DownloadOptions) string {
	short := strings.SplitN(s.catalogID, "/", 2)[0]
	if len(short) > 3 {
		short = short[:3]
	}
	parts := []string{short}
	if !s.dates.Min.IsZero() {
		parts = append(parts, s.dates.Min.Format("20060102"))
	}
	if !s.dates.Max.IsZero() {
		parts = append(parts, s.dates.Max.Format("20060102"))
	}
	if len(opts.Bands) > 0 {
		bands := strings.ReplaceAll(strings.Join(opts.Bands, ""), "_", "")
		if len(bands) > 7 {
			bands = bands[:7]
		}
		parts = append(parts, bands)
	}
	if s.reduce != "" {
		parts = append(parts, s.reduce)
	}
	parts = append(parts, fmt.Sprintf("%gm", opts.Scale))
	return strings.Join(parts, "_")
}

func format(opts DownloadOptions) string {
	if opts.Format == "" {
		return "tif"
	}
	return strings.ToLower(opts.Format)
}

// fetchFile downloads url to localPath. Retryable HTTP statuses are flagged
// temporary.
func fetchFile(ctx context.Context, url, localPath string) error {
	req, err := grab.NewRequest(localPath, url)
	if err != nil {
		return fmt.Errorf("fetchFile.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)
	req.NoResume = true

	resp := grab.NewClient().Do(req)
	if err := resp.Err(); err != nil {
		err = fmt.Errorf("fetchFile[%s]: %w", url, err)
		if resp.HTTPResponse == nil {
			return service.MakeTemporary(err)
		}
		switch resp.HTTPResponse.StatusCode {
		case 408, 429, 500, 501, 502, 503, 504:
			return service.MakeTemporary(err)
		default:
			return err
		}
	}
	return nil
}

// unarchiveInto unpacks a zip payload into destDir, renaming the content
// files with the given prefix. Returns the extracted paths in name order.
func unarchiveInto(zipPath, destDir, prefix string) ([]string, error) {
	tmpdir, err := os.MkdirTemp(destDir, filepath.Base(zipPath))
	if err != nil {
		return nil, service.MakeTemporary(err)
	}
	defer os.RemoveAll(tmpdir)
	if err := archiver.Unarchive(zipPath, tmpdir); err != nil {
		return nil, service.MakeTemporary(err)
	}
	entries, err := os.ReadDir(tmpdir)
	if err != nil {
		return nil, service.MakeTemporary(err)
	}
	if len(entries) == 0 {
		return nil, service.MakeTemporary(fmt.Errorf("empty zip %s", zipPath))
	}
	var out []string
	for _, e := range entries {
		dest := filepath.Join(destDir, prefix+"_"+e.Name())
		if err := os.Rename(filepath.Join(tmpdir, e.Name()), dest); err != nil {
			return nil, fmt.Errorf("unarchiveInto.%w", err)
		}
		out = append(out, dest)
	}
	return out, nil
}
