package source

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service"
	"github.com/agrefed/harvester/service/log"
	"github.com/cavaliercoder/grab"
)

func fmtBytes(bytes int64) string {
	v := float64(bytes)
	switch {
	case v > 1<<30:
		return fmt.Sprintf("%.2fGo", v/(1<<30))
	case v > 1<<20:
		return fmt.Sprintf("%.2fMo", v/(1<<20))
	case v > 1<<10:
		return fmt.Sprintf("%.2fko", v/(1<<10))
	default:
		return fmt.Sprintf("%.2fo", v)
	}
}

func displayProgress(ctx context.Context, prefix string, resp *grab.Response, progressPeriod float64) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	progress, lastBytes, seconds := 0.0, int64(0), int64(0)
	for {
		select {
		case <-t.C:
			seconds++
			if resp.Progress() > progress {
				log.Logger(ctx).Sugar().Debugf("%s: %.2f%% %s/%s (%s/s)", prefix, 100*resp.Progress(), fmtBytes(resp.BytesComplete()), fmtBytes(resp.Size), fmtBytes((resp.BytesComplete()-lastBytes)/seconds))
				seconds = 0
				progress += progressPeriod
				lastBytes = resp.BytesComplete()
			}

		case <-resp.Done:
			return
		}
	}
}

// downloadFile fetches url to localPath with progress display every 5%.
// Retryable HTTP statuses are flagged temporary.
func downloadFile(ctx context.Context, rawURL, localPath, displayPrefix string) error {
	req, err := grab.NewRequest(localPath, rawURL)
	if err != nil {
		return fmt.Errorf("downloadFile.NewRequest: %w", err)
	}
	req = req.WithContext(ctx)

	resp := grab.NewClient().Do(req)
	displayProgress(ctx, displayPrefix, resp, 0.05)

	if err := resp.Err(); err != nil {
		err = fmt.Errorf("download[%s]: %w", req.URL(), err)
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

// coverageParams describes one WCS 1.0.0 GetCoverage request
type coverageParams struct {
	Coverage string
	CRS      string
	BBox     common.BoundingBox
	// ResDeg is the pixel size in degrees
	ResDeg float64
	Format string
	// Time is an optional time position of time-enabled coverages
	Time string
}

// coverageURL builds the GetCoverage URL of a WCS 1.0.0 endpoint
func coverageURL(endpoint string, p coverageParams) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("coverageURL[%s]: %w", endpoint, err)
	}
	format := p.Format
	if format == "" {
		format = "GeoTIFF"
	}
	q := u.Query()
	q.Set("service", "WCS")
	q.Set("version", "1.0.0")
	q.Set("request", "GetCoverage")
	q.Set("coverage", p.Coverage)
	q.Set("crs", p.CRS)
	q.Set("bbox", fmt.Sprintf("%s,%s,%s,%s",
		strconv.FormatFloat(p.BBox.West, 'f', -1, 64),
		strconv.FormatFloat(p.BBox.South, 'f', -1, 64),
		strconv.FormatFloat(p.BBox.East, 'f', -1, 64),
		strconv.FormatFloat(p.BBox.North, 'f', -1, 64)))
	q.Set("resx", strconv.FormatFloat(p.ResDeg, 'f', -1, 64))
	q.Set("resy", strconv.FormatFloat(p.ResDeg, 'f', -1, 64))
	q.Set("format", format)
	if p.Time != "" {
		q.Set("time", p.Time)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// getCoverage downloads one WCS coverage to localPath, skipping the request
// when the file already exists
func getCoverage(ctx context.Context, endpoint string, p coverageParams, localPath, displayPrefix string) error {
	if _, err := os.Stat(localPath); err == nil {
		log.Logger(ctx).Sugar().Debugf("%s: %s already exists, skipping", displayPrefix, localPath)
		return nil
	}
	u, err := coverageURL(endpoint, p)
	if err != nil {
		return err
	}
	if err := downloadFile(ctx, u, localPath, displayPrefix); err != nil {
		return fmt.Errorf("getCoverage.%w", err)
	}
	return nil
}

// resolutionDeg converts the requested resolution in arc-seconds to degrees,
// substituting the source's native resolution when unset
func resolutionDeg(requested, native float64) float64 {
	if requested == 0 {
		requested = native
	}
	return requested / 3600.0
}

func extensionFor(format string) string {
	if format == "NetCDF" {
		return ".nc"
	}
	return ".tif"
}
