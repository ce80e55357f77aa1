package remoteimage

import (
	"context"
	"fmt"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/config"
)

// Run drives a full session from the configuration block: collect,
// preprocess, optional aggregate, download. The run bounding box and date
// range are used when the block does not override them.
func Run(ctx context.Context, engine Engine, cfg *config.RemoteImageConfig, box common.BoundingBox, dates common.DateRange, outDir string) ([]common.Artifact, error) {
	if cfg == nil {
		return nil, fmt.Errorf("Run: no remote-image configuration")
	}

	coords := cfg.Collect.Coords
	if len(coords) == 0 {
		coords = box.Slice()
	}
	if cfg.Collect.Date != "" {
		dr, err := common.ParseDateRange(cfg.Collect.Date, cfg.Collect.EndDate)
		if err != nil {
			return nil, fmt.Errorf("Run.%w", err)
		}
		dates = dr
	}

	s := NewSession(engine)
	if err := s.Collect(ctx, cfg.Collect.Collection, coords, dates, cfg.Collect.Buffer, cfg.Collect.Bound); err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	if err := s.Preprocess(ctx, PreprocessOptions{
		MaskClouds: cfg.Preprocess.CloudMasking(),
		Reduce:     cfg.Preprocess.Reduce,
		Spectral:   cfg.Preprocess.Spectral,
		Clip:       cfg.Preprocess.Clipping(),
	}); err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	if cfg.Aggregate != nil {
		if err := s.Aggregate(ctx, cfg.Aggregate.Frequency, cfg.Aggregate.ReduceBy); err != nil {
			return nil, fmt.Errorf("Run.%w", err)
		}
	}

	out := cfg.Download.OutPath
	if out == "" {
		out = outDir
	}
	artifacts, err := s.Download(ctx, DownloadOptions{
		Bands:     cfg.Download.Bands,
		Scale:     cfg.Download.Scale,
		OutDir:    out,
		Format:    cfg.Download.Format,
		Overwrite: true,
	})
	if err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	return artifacts, nil
}
