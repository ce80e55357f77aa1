// Package harvest runs a full harvest: every configured source in a fixed
// order, each isolated from the others' failures, with every download
// attempt recorded in the run manifest.
package harvest

import (
	"context"
	"fmt"
	"sync"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/interface/source"
	"github.com/agrefed/harvester/remoteimage"
	"github.com/airbusgeo/godal"
)

var registerDrivers sync.Once

// Env holds the run dependencies: the adapter per source and the
// remote-image engine. It is passed explicitly to Run; there is no ambient
// global session.
type Env struct {
	Adapters map[common.SourceID]source.Downloader
	Engine   remoteimage.Engine

	opened bool
}

// NewEnv returns an environment with the default adapter set
func NewEnv(engine remoteimage.Engine) *Env {
	return &Env{
		Adapters: map[common.SourceID]source.Downloader{
			common.SourceSLGA:        source.SLGA{},
			common.SourceSILO:        source.SILO{},
			common.SourceDEM:         source.DEM{},
			common.SourceLandscape:   source.Landscape{},
			common.SourceRadiometric: source.Radiometric{},
			common.SourceDEA:         source.DEA{},
		},
		Engine: engine,
	}
}

// Open prepares the environment for a run (raster driver registration)
func (e *Env) Open(ctx context.Context) error {
	registerDrivers.Do(godal.RegisterAll)
	e.opened = true
	return nil
}

// Close releases the environment
func (e *Env) Close() {
	e.opened = false
}

func (e *Env) ensureReady() error {
	if !e.opened {
		return fmt.Errorf("environment is not open")
	}
	return nil
}
