package source

import (
	"net/url"
	"testing"

	"github.com/agrefed/harvester/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBBox = common.BoundingBox{West: 149.7, South: -30.4, East: 150.0, North: -30.1}

func TestCoverageURL(t *testing.T) {
	raw, err := coverageURL(landscapeEndpoint, coverageParams{
		Coverage: "6",
		CRS:      "EPSG:4326",
		BBox:     testBBox,
		ResDeg:   3.0 / 3600,
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "WCS", q.Get("service"))
	assert.Equal(t, "1.0.0", q.Get("version"))
	assert.Equal(t, "GetCoverage", q.Get("request"))
	assert.Equal(t, "6", q.Get("coverage"))
	assert.Equal(t, "149.7,-30.4,150,-30.1", q.Get("bbox"))
	assert.Equal(t, "GeoTIFF", q.Get("format"))
	assert.Empty(t, q.Get("time"))
}

func TestCoverageURLWithTime(t *testing.T) {
	raw, err := coverageURL(deaEndpoint, coverageParams{
		Coverage: "ga_ls8c_ard_3",
		CRS:      "EPSG:4326",
		BBox:     testBBox,
		ResDeg:   1.0 / 3600,
		Format:   "NetCDF",
		Time:     "2020-01-05T00:00:00Z",
	})
	require.NoError(t, err)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "2020-01-05T00:00:00Z", u.Query().Get("time"))
	assert.Equal(t, "NetCDF", u.Query().Get("format"))
}

func TestDepthCoverages(t *testing.T) {
	covs := depthCoverages(0, 200)
	require.Len(t, covs, 6)
	assert.Equal(t, "1", covs[0].Value)
	assert.Equal(t, "2", covs[0].CI95)
	assert.Equal(t, "3", covs[0].CI5)
	assert.Equal(t, 0, covs[0].Lower)
	assert.Equal(t, 5, covs[0].Upper)
	assert.Equal(t, "16", covs[5].Value)
	assert.Equal(t, 100, covs[5].Lower)
	assert.Equal(t, 200, covs[5].Upper)
}

func TestDepthCoveragesPartialRange(t *testing.T) {
	covs := depthCoverages(0, 15)
	require.Len(t, covs, 2)
	assert.Equal(t, 5, covs[1].Lower)
	assert.Equal(t, 15, covs[1].Upper)

	// an interval only partially covered is excluded
	covs = depthCoverages(3, 15)
	require.Len(t, covs, 1)
	assert.Equal(t, 5, covs[0].Lower)
}

func TestResolutionDeg(t *testing.T) {
	assert.InDelta(t, 3.0/3600, resolutionDeg(0, 3), 1e-12)
	assert.InDelta(t, 10.0/3600, resolutionDeg(10, 3), 1e-12)
}

func TestParseTimePositions(t *testing.T) {
	doc := []byte(`<?xml version="1.0"?>
<CoverageDescription xmlns:gml="http://www.opengis.net/gml">
  <CoverageOffering>
    <domainSet><temporalDomain>
      <gml:timePosition>2019-12-30T00:00:00Z</gml:timePosition>
      <gml:timePosition>2020-01-05T00:00:00Z</gml:timePosition>
    </temporalDomain></domainSet>
  </CoverageOffering>
</CoverageDescription>`)
	times, err := parseTimePositions(doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"2019-12-30T00:00:00Z", "2020-01-05T00:00:00Z"}, times)
}

func TestTimesInYear(t *testing.T) {
	times := []string{"2019-12-30T00:00:00Z", "2020-01-05T00:00:00Z", "2020-08-01T00:00:00Z", "not-a-date"}
	assert.Equal(t, []string{"2020-01-05T00:00:00Z", "2020-08-01T00:00:00Z"}, timesInYear(times, 2020))
	assert.Equal(t, []string{"2019-12-30T00:00:00Z"}, timesInYear(times, 2019))
	assert.Empty(t, timesInYear(times, 2018))
}

func TestDEAFileName(t *testing.T) {
	assert.Equal(t, "ga_ls8c_ard_3_2020-1-5.tif", deaFileName("ga_ls8c_ard_3", "2020-01-05T00:00:00Z", ".tif"))
	assert.Equal(t, "ga_ls8c_ard_3.nc", deaFileName("ga_ls8c_ard_3", "", ".nc"))
}

func TestSLGAEndpointsCoverCatalog(t *testing.T) {
	// every soil attribute must have a server to fetch it from
	for layer := range slgaEndpoints {
		assert.NotEmpty(t, slgaEndpoints[layer])
	}
	assert.Len(t, slgaEndpoints, 12)
	assert.Len(t, landscapeCoverageIDs, 18)
}
