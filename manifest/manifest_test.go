package manifest

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/agrefed/harvester/common"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendStampsTimestamp(t *testing.T) {
	m := New("manifest.csv")
	m.Append(Entry{Source: common.SourceSILO, Layer: "max_temp", Status: common.StatusDownloaded})
	require.Len(t, m.Entries(), 1)
	assert.False(t, m.Entries()[0].Timestamp.IsZero())
}

func TestAppendArtifacts(t *testing.T) {
	m := New("manifest.csv")
	m.AppendArtifacts(common.ArtifactSet{
		Kind:   common.KindRaster,
		Source: common.SourceSLGA,
		Artifacts: []common.Artifact{
			{Path: "a.tif", Layer: "Clay", Aggregation: "mean"},
			{Path: "b.tif", Layer: "Clay_05"},
		},
	})
	require.Len(t, m.Entries(), 2)
	assert.Equal(t, common.StatusDownloaded, m.Entries()[0].Status)
	assert.Equal(t, "mean", m.Entries()[0].Aggregation)
}

func TestAppendFailure(t *testing.T) {
	m := New("manifest.csv")
	m.AppendFailure(common.SourceDEA, errors.New("wcs timeout"))
	require.Len(t, m.Entries(), 1)
	assert.Equal(t, common.StatusFailed, m.Entries()[0].Status)
	assert.Equal(t, "wcs timeout", m.Entries()[0].Message)
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "manifest.csv")
	m := New(path)
	ts := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	m.Append(Entry{Source: common.SourceSILO, Layer: "max_temp", Path: "silo/max_temp_2020.nc", Aggregation: "mean", Status: common.StatusDownloaded, Timestamp: ts})
	m.Append(Entry{Source: common.SourceDEM, Status: common.StatusFailed, Message: "no coverage", Timestamp: ts})
	require.NoError(t, m.Persist())

	loaded, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(m.Entries(), loaded.Entries()); diff != "" {
		t.Errorf("round trip mismatch:\n%s", diff)
	}
}

func TestPersistIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.csv")
	m := New(path)
	m.Append(Entry{Source: common.SourceSLGA, Layer: "Clay", Status: common.StatusDownloaded})
	require.NoError(t, m.Persist())
	require.NoError(t, m.Persist())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, loaded.Entries(), 1)
}
