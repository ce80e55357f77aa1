package remoteimage

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/config"
	"github.com/agrefed/harvester/service"
	"github.com/go-spatial/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine is an in-memory Engine recording the calls it receives
type fakeEngine struct {
	url             string
	size            int64
	missingBands    bool
	collectCalls    int
	preprocessCalls int
	aggregateCalls  int
	mapCalls        int
	lastPreprocess  PreprocessOptions
	regions         []geom.Geometry
}

func (f *fakeEngine) Collect(ctx context.Context, catalogID string, region geom.Geometry, dates common.DateRange) (Collection, error) {
	f.collectCalls++
	return Collection{ID: catalogID, Count: 12}, nil
}

func (f *fakeEngine) Preprocess(ctx context.Context, c Collection, opts PreprocessOptions) (Image, error) {
	f.preprocessCalls++
	f.lastPreprocess = opts
	if f.missingBands && len(opts.Spectral) > 0 {
		return Image{}, ErrMissingBands
	}
	return Image{ID: c.ID + "/composite"}, nil
}

func (f *fakeEngine) Aggregate(ctx context.Context, img Image, frequency, reduceBy string) (Image, error) {
	f.aggregateCalls++
	return Image{ID: img.ID + "/" + frequency}, nil
}

func (f *fakeEngine) Map(ctx context.Context, img Image, opts VisualizeOptions) error {
	f.mapCalls++
	return nil
}

func (f *fakeEngine) SizeOf(ctx context.Context, img Image, bands []string, scale float64, region geom.Geometry) (int64, error) {
	return f.size, nil
}

func (f *fakeEngine) DownloadURL(ctx context.Context, img Image, bands []string, scale float64, region geom.Geometry, format string) (string, error) {
	f.regions = append(f.regions, region)
	return f.url, nil
}

var testCoords = []float64{149.7, -30.4, 150.0, -30.1}

func collectedSession(t *testing.T, eng *fakeEngine) *Session {
	t.Helper()
	s := NewSession(eng)
	require.NoError(t, s.Collect(context.Background(), "LANDSAT/LC09/C02/T1_L2", testCoords, common.DateRange{}, 0, false))
	return s
}

func TestDownloadBeforeCollect(t *testing.T) {
	s := NewSession(&fakeEngine{})
	_, err := s.Download(context.Background(), DownloadOptions{})
	require.Error(t, err)
	assert.True(t, service.IsSequence(err))

	var se service.SequenceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "Download", se.Step)
	assert.Equal(t, "uninitialized", se.State)
}

func TestCollectTwice(t *testing.T) {
	eng := &fakeEngine{}
	s := collectedSession(t, eng)
	err := s.Collect(context.Background(), "LANDSAT/LC09/C02/T1_L2", testCoords, common.DateRange{}, 0, false)
	require.Error(t, err)
	assert.True(t, service.IsSequence(err))
}

func TestCollectRequiresInputs(t *testing.T) {
	s := NewSession(&fakeEngine{})
	err := s.Collect(context.Background(), "", testCoords, common.DateRange{}, 0, false)
	assert.True(t, service.IsConfig(err))

	err = s.Collect(context.Background(), "LANDSAT/LC09/C02/T1_L2", nil, common.DateRange{}, 0, false)
	assert.True(t, service.IsConfig(err))

	err = s.Collect(context.Background(), "LANDSAT/LC09/C02/T1_L2", []float64{1, 2, 3}, common.DateRange{}, 0, false)
	require.Error(t, err)
}

func TestPreprocessOnce(t *testing.T) {
	eng := &fakeEngine{}
	s := collectedSession(t, eng)
	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{}))
	assert.Equal(t, "median", eng.lastPreprocess.Reduce)

	err := s.Preprocess(context.Background(), PreprocessOptions{})
	require.Error(t, err)
	assert.True(t, service.IsSequence(err))
}

func TestPreprocessSkipsMissingSpectral(t *testing.T) {
	eng := &fakeEngine{missingBands: true}
	s := collectedSession(t, eng)
	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{Spectral: []string{"NDVI"}}))
	assert.Equal(t, 2, eng.preprocessCalls)
	assert.Empty(t, eng.lastPreprocess.Spectral)
}

func TestAggregateRequiresPreprocess(t *testing.T) {
	eng := &fakeEngine{}
	s := collectedSession(t, eng)
	err := s.Aggregate(context.Background(), "month", "mean")
	require.Error(t, err)
	assert.True(t, service.IsSequence(err))

	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{}))
	require.NoError(t, s.Aggregate(context.Background(), "month", "mean"))
	assert.Equal(t, StateAggregated, s.State())
}

func TestMapDoesNotAdvanceState(t *testing.T) {
	eng := &fakeEngine{}
	s := collectedSession(t, eng)
	err := s.Map(context.Background(), VisualizeOptions{})
	assert.True(t, service.IsSequence(err))

	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{}))
	require.NoError(t, s.Map(context.Background(), VisualizeOptions{Bands: []string{"NDVI"}}))
	require.NoError(t, s.Map(context.Background(), VisualizeOptions{Bands: []string{"B4"}}))
	assert.Equal(t, StatePreprocessed, s.State())
	assert.Equal(t, 2, eng.mapCalls)
}

func TestMapAfterDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raster-bytes"))
	}))
	defer srv.Close()

	eng := &fakeEngine{url: srv.URL + "/download.tif", size: 1 << 20}
	s := collectedSession(t, eng)
	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{}))
	_, err := s.Download(context.Background(), DownloadOptions{Bands: []string{"B4"}, OutDir: t.TempDir()})
	require.NoError(t, err)

	err = s.Map(context.Background(), VisualizeOptions{Bands: []string{"B4"}})
	require.Error(t, err)
	assert.True(t, service.IsSequence(err))
}

func TestDownloadRightAfterCollect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raster-bytes"))
	}))
	defer srv.Close()

	eng := &fakeEngine{url: srv.URL + "/download.tif", size: 1 << 20}
	s := collectedSession(t, eng)

	artifacts, err := s.Download(context.Background(), DownloadOptions{Bands: []string{"B4"}, OutDir: t.TempDir()})
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, StateDownloaded, s.State())
	// the default preprocess was applied implicitly
	assert.Equal(t, 1, eng.preprocessCalls)
	assert.Equal(t, "median", artifacts[0].Aggregation)
	assert.FileExists(t, artifacts[0].Path)
}

func TestDownloadReentrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raster-bytes"))
	}))
	defer srv.Close()

	eng := &fakeEngine{url: srv.URL + "/download.tif", size: 1 << 20}
	s := collectedSession(t, eng)
	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{}))

	dir := t.TempDir()
	_, err := s.Download(context.Background(), DownloadOptions{Bands: []string{"B4"}, Scale: 50, OutDir: dir, Overwrite: true})
	require.NoError(t, err)
	_, err = s.Download(context.Background(), DownloadOptions{Bands: []string{"B8"}, Scale: 200, OutDir: dir, Overwrite: true})
	require.NoError(t, err)
}

func zipPayload(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(name)
	require.NoError(t, err)
	_, err = f.Write([]byte("tile-bytes"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDownloadSplitsIntoTiles(t *testing.T) {
	payload := zipPayload(t, "download.tif")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	// 3x the payload limit forces a 2x2 grid
	eng := &fakeEngine{url: srv.URL + "/tile.zip", size: 3 * payloadLimit}
	s := collectedSession(t, eng)
	require.NoError(t, s.Preprocess(context.Background(), PreprocessOptions{}))

	dir := t.TempDir()
	artifacts, err := s.Download(context.Background(), DownloadOptions{Bands: []string{"B4"}, OutDir: dir})
	require.NoError(t, err)
	require.Len(t, artifacts, 4)
	assert.Equal(t, 4, len(eng.regions))
	for k, a := range artifacts {
		assert.FileExists(t, a.Path)
		assert.Contains(t, filepath.Base(a.Path), "tile")
		if k > 0 {
			assert.Less(t, artifacts[k-1].Path, a.Path)
		}
	}
}

func TestRunFromConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("raster-bytes"))
	}))
	defer srv.Close()

	eng := &fakeEngine{url: srv.URL + "/download.tif", size: 1 << 20}
	cfg := &config.RemoteImageConfig{
		Collect:   config.CollectConfig{Collection: "LANDSAT/LC09/C02/T1_L2", Coords: []float64{149.8, -30.3}, Buffer: 5000},
		Aggregate: &config.AggregateConfig{Frequency: "month", ReduceBy: "mean"},
		Download:  config.DownloadConfig{Bands: []string{"NDVI"}},
	}
	artifacts, err := Run(context.Background(), eng, cfg, common.BoundingBox{}, common.DateRange{}, t.TempDir())
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, 1, eng.collectCalls)
	assert.Equal(t, 1, eng.preprocessCalls)
	assert.Equal(t, 1, eng.aggregateCalls)
}

func TestBuildRegion(t *testing.T) {
	// bare point
	g, box, err := buildRegion([]float64{149.8, -30.3}, 0, false)
	require.NoError(t, err)
	_, ok := g.(geom.Point)
	assert.True(t, ok)
	assert.Equal(t, 149.8, box.West)

	// buffered point becomes a circle whose bounds reflect the buffer
	g, box, err = buildRegion([]float64{149.8, -30.3}, 5000, false)
	require.NoError(t, err)
	_, ok = g.(geom.Polygon)
	assert.True(t, ok)
	assert.InDelta(t, 5000.0/(30.87*3600), box.North-(-30.3), 1e-9)

	// rectangle
	g, box, err = buildRegion(testCoords, 0, false)
	require.NoError(t, err)
	poly, ok := g.(geom.Polygon)
	require.True(t, ok)
	assert.Len(t, poly[0], 4)
	assert.Equal(t, 150.0, box.East)

	// polygon ring
	_, box, err = buildRegion([]float64{149.7, -30.4, 150.0, -30.4, 149.85, -30.1}, 0, false)
	require.NoError(t, err)
	assert.Equal(t, -30.1, box.North)
}
