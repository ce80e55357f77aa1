package harvest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/config"
	"github.com/agrefed/harvester/interface/source"
	"github.com/agrefed/harvester/manifest"
	"github.com/agrefed/harvester/preview"
	"github.com/agrefed/harvester/remoteimage"
	"github.com/agrefed/harvester/service"
	"github.com/agrefed/harvester/service/log"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PartialPolicy decides what happens to artifacts an adapter returned before
// failing
type PartialPolicy int

const (
	// PartialKeep logs the partial artifacts as downloaded, plus the failed row
	PartialKeep PartialPolicy = iota
	// PartialDiscard logs the failed row only
	PartialDiscard
)

// Options tune one run
type Options struct {
	// LogName is the manifest file base name, "manifest" when empty
	LogName string
	// Preview renders a thumbnail grid after the run
	Preview bool
	// PartialPolicy defaults to PartialKeep
	PartialPolicy PartialPolicy
	// OnSource is called before each configured source is harvested
	OnSource func(src common.SourceID)
}

// Run harvests every configured source in declared order. Adapter failures
// are recorded as failed manifest rows and never abort the run; configuration
// and sequence errors propagate. The manifest is persisted win or lose.
func Run(ctx context.Context, env *Env, cfg *config.Configuration, opts Options) (*manifest.Manifest, error) {
	if err := env.ensureReady(); err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	ctx = log.With(ctx, "run", uuid.New().String())
	warnings, err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	for _, w := range warnings {
		log.Logger(ctx).Warn(w.String())
	}

	box, err := cfg.ResolveBoundingBox(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	if err := os.MkdirAll(cfg.OutputPath, 0755); err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}

	logName := opts.LogName
	if logName == "" {
		logName = "manifest"
	}
	m := manifest.New(filepath.Join(cfg.OutputPath, logName+".csv"))
	defer func() {
		if err := m.Persist(); err != nil {
			log.Logger(ctx).Error("persist manifest", zap.Error(err))
		}
	}()

	var sets []common.ArtifactSet
	for _, src := range common.SourceOrder {
		sc, ok := cfg.Sources[src]
		if !ok {
			continue
		}
		if opts.OnSource != nil {
			opts.OnSource(src)
		}
		set, err := harvestSource(ctx, env, cfg, sc, src, box)
		if err != nil {
			if service.IsSequence(err) {
				return nil, err
			}
			log.Logger(ctx).Error("source failed", zap.String("source", string(src)), zap.Error(err))
			if opts.PartialPolicy == PartialKeep && len(set.Artifacts) > 0 {
				m.AppendArtifacts(set)
			}
			m.AppendFailure(src, err)
			continue
		}
		m.AppendArtifacts(set)
		sets = append(sets, set)
	}

	pts, err := cfg.ReadPoints()
	if err != nil {
		return nil, fmt.Errorf("Run.%w", err)
	}
	if len(pts) > 0 && len(sets) > 0 {
		resultsPath := filepath.Join(cfg.OutputPath, "results.csv")
		if err := extractPoints(ctx, resultsPath, sets, pts); err != nil {
			log.Logger(ctx).Warn("extract point values", zap.Error(err))
		}
	}
	if opts.Preview && len(sets) > 0 {
		if err := preview.Render(ctx, filepath.Join(cfg.OutputPath, logName+".png"), sets, pts); err != nil {
			log.Logger(ctx).Warn("render preview", zap.Error(err))
		}
	}
	return m, nil
}

// harvestSource runs one adapter. Whatever artifacts were produced before an
// error are returned alongside it so the partial policy can apply.
func harvestSource(ctx context.Context, env *Env, cfg *config.Configuration, sc config.SourceConfig, src common.SourceID, box common.BoundingBox) (common.ArtifactSet, error) {
	outDir := filepath.Join(cfg.OutputPath, string(src))
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return common.ArtifactSet{Source: src}, service.MakeAdapter(string(src), err)
	}

	if src == common.SourceRemoteImage {
		set := common.ArtifactSet{Kind: common.KindRemoteImage, Source: src}
		artifacts, err := remoteimage.Run(ctx, env.Engine, cfg.RemoteImage, box, cfg.Dates, outDir)
		set.Artifacts = artifacts
		if err != nil {
			if service.IsSequence(err) {
				return set, err
			}
			return set, service.MakeAdapter(string(src), err)
		}
		return set, nil
	}

	adapter, ok := env.Adapters[src]
	if !ok {
		return common.ArtifactSet{Source: src}, service.MakeAdapter(string(src), fmt.Errorf("no adapter registered"))
	}
	summaries, _ := sc.BroadcastSummaries()
	req := source.Request{
		BBox:               box,
		Resolution:         cfg.Resolution,
		CRS:                cfg.CRS,
		Dates:              cfg.Dates,
		OutDir:             outDir,
		Layers:             sc.Layers,
		Summaries:          summaries,
		DepthMin:           sc.DepthMin,
		DepthMax:           sc.DepthMax,
		ConfidenceInterval: sc.ConfidenceInterval,
		FormatOut:          sc.FormatOut,
	}
	set := common.ArtifactSet{Kind: common.KindRaster, Source: src}
	artifacts, err := adapter.Download(ctx, req)
	set.Artifacts = artifacts
	if err != nil {
		return set, service.MakeAdapter(string(src), err)
	}
	log.Logger(ctx).Sugar().Infof("%s: %d artifacts", src, len(artifacts))
	return set, nil
}
