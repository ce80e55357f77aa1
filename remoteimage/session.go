package remoteimage

import (
	"context"
	"errors"
	"fmt"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service"
	"github.com/agrefed/harvester/service/log"
	"github.com/go-spatial/geom"
	"go.uber.org/zap"
)

// State is the session phase
type State int

const (
	StateUninitialized State = iota
	StateCollected
	StatePreprocessed
	StateAggregated
	StateDownloaded
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCollected:
		return "collected"
	case StatePreprocessed:
		return "preprocessed"
	case StateAggregated:
		return "aggregated"
	case StateDownloaded:
		return "downloaded"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session is the stateful remote-image pipeline. Steps must be invoked in
// collect, preprocess, aggregate, download order; Map may be interleaved
// after preprocess and Download is re-entrant. An out-of-order call is a
// SequenceError, surfaced immediately.
type Session struct {
	engine Engine

	state      State
	catalogID  string
	region     geom.Geometry
	bounds     common.BoundingBox
	dates      common.DateRange
	collection Collection
	image      Image
	reduce     string
}

// NewSession returns an uninitialized session on the given engine
func NewSession(engine Engine) *Session {
	return &Session{engine: engine}
}

// State returns the current phase
func (s *Session) State() State { return s.state }

func (s *Session) sequenceError(step string) error {
	return service.SequenceError{Step: step, State: s.state.String()}
}

// Collect filters the catalog to the scenes of interest. coords is a point
// (2 values, optionally buffered by bufferMeters to a circle, or its bounds
// when bound is set), a rectangle (4 values) or a polygon ring (6+ values).
func (s *Session) Collect(ctx context.Context, catalogID string, coords []float64, dates common.DateRange, bufferMeters float64, bound bool) error {
	if s.state != StateUninitialized {
		return s.sequenceError("Collect")
	}
	if catalogID == "" {
		return service.MakeConfig("collect: a catalog collection is required", nil)
	}
	if len(coords) == 0 {
		return service.MakeConfig("collect: coordinates are required", nil)
	}
	region, bounds, err := buildRegion(coords, bufferMeters, bound)
	if err != nil {
		return fmt.Errorf("Collect.%w", err)
	}

	col, err := s.engine.Collect(ctx, catalogID, region, dates)
	if err != nil {
		return fmt.Errorf("Collect.%w", err)
	}
	log.Logger(ctx).Info("collected", zap.String("collection", catalogID), zap.Int("images", col.Count))

	s.catalogID = catalogID
	s.region = region
	s.bounds = bounds
	s.dates = dates
	s.collection = col
	s.state = StateCollected
	return nil
}

// Preprocess composites the collection into a single image. May be invoked
// once per session. Spectral indices that the collection cannot provide are
// skipped with a warning rather than failing the step.
func (s *Session) Preprocess(ctx context.Context, opts PreprocessOptions) error {
	if s.state != StateCollected {
		return s.sequenceError("Preprocess")
	}
	if opts.Reduce == "" {
		opts.Reduce = "median"
	}

	img, err := s.engine.Preprocess(ctx, s.collection, opts)
	if errors.Is(err, ErrMissingBands) && len(opts.Spectral) > 0 {
		log.Logger(ctx).Sugar().Warnf("preprocess: spectral indices %v skipped: %v", opts.Spectral, err)
		opts.Spectral = nil
		img, err = s.engine.Preprocess(ctx, s.collection, opts)
	}
	if err != nil {
		return fmt.Errorf("Preprocess.%w", err)
	}

	s.image = img
	s.reduce = opts.Reduce
	s.state = StatePreprocessed
	return nil
}

// Aggregate folds the preprocessed image into periodic composites
func (s *Session) Aggregate(ctx context.Context, frequency, reduceBy string) error {
	if s.state != StatePreprocessed {
		return s.sequenceError("Aggregate")
	}
	if frequency == "" {
		frequency = "month"
	}
	img, err := s.engine.Aggregate(ctx, s.image, frequency, reduceBy)
	if err != nil {
		return fmt.Errorf("Aggregate.%w", err)
	}
	s.image = img
	s.state = StateAggregated
	return nil
}

// Map renders a preview of the current image. Side effect only, the state
// does not advance and the step may be repeated.
func (s *Session) Map(ctx context.Context, opts VisualizeOptions) error {
	switch s.state {
	case StatePreprocessed, StateAggregated:
	default:
		return s.sequenceError("Map")
	}
	if err := s.engine.Map(ctx, s.image, opts); err != nil {
		return fmt.Errorf("Map.%w", err)
	}
	return nil
}
