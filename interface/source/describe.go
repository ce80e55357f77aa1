package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"

	"github.com/agrefed/harvester/service"
)

// coverageTimes returns the time positions a WCS coverage is available at,
// in server order. An empty list means the coverage is not time-enabled.
func coverageTimes(ctx context.Context, endpoint, coverage string) ([]string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("coverageTimes[%s]: %w", endpoint, err)
	}
	q := u.Query()
	q.Set("service", "WCS")
	q.Set("version", "1.0.0")
	q.Set("request", "DescribeCoverage")
	q.Set("coverage", coverage)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("coverageTimes.NewRequest: %w", err)
	}
	body, err := service.GetBodyRetryReq(req, 3)
	if err != nil {
		return nil, fmt.Errorf("coverageTimes.%w", err)
	}
	return parseTimePositions(body)
}

// parseTimePositions extracts gml:timePosition values from a
// DescribeCoverage document
func parseTimePositions(body []byte) ([]string, error) {
	var times []string
	dec := xml.NewDecoder(bytes.NewReader(body))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "timePosition" {
			continue
		}
		var v string
		if err := dec.DecodeElement(&v, &se); err != nil {
			return times, fmt.Errorf("parseTimePositions: %w", err)
		}
		times = append(times, v)
	}
	return times, nil
}
