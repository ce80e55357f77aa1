package remoteimage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/agrefed/harvester/common"
	"github.com/agrefed/harvester/service"
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/geojson"
)

// RESTEngine talks to a remote catalog-processing service over JSON.
// Each Engine operation maps to one POST endpoint under the base URL.
type RESTEngine struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewRESTEngine returns an engine bound to the service at baseURL
func NewRESTEngine(baseURL, token string) *RESTEngine {
	return &RESTEngine{BaseURL: baseURL, Token: token, Client: &http.Client{}}
}

func (e *RESTEngine) post(ctx context.Context, path string, payload, result interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("post.Marshal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", e.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("post.NewRequest: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.Token != "" {
		req.Header.Set("Authorization", "Bearer "+e.Token)
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return service.MakeTemporary(fmt.Errorf("post[%s]: %w", path, err))
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return service.MakeTemporary(fmt.Errorf("post[%s]: %w", path, err))
	}
	switch {
	case resp.StatusCode == 200:
	case resp.StatusCode == 408 || resp.StatusCode == 429 || resp.StatusCode >= 500:
		return service.MakeTemporary(fmt.Errorf("post[%s]: %s: %s", path, resp.Status, data))
	default:
		return fmt.Errorf("post[%s]: %s: %s", path, resp.Status, data)
	}
	if result == nil {
		return nil
	}
	return json.Unmarshal(data, result)
}

func regionJSON(region geom.Geometry) (json.RawMessage, error) {
	data, err := json.Marshal(geojson.Geometry{Geometry: region})
	if err != nil {
		return nil, fmt.Errorf("regionJSON: %w", err)
	}
	return data, nil
}

// Collect implements Engine
func (e *RESTEngine) Collect(ctx context.Context, catalogID string, region geom.Geometry, dates common.DateRange) (Collection, error) {
	rj, err := regionJSON(region)
	if err != nil {
		return Collection{}, err
	}
	payload := map[string]interface{}{
		"collection": catalogID,
		"region":     rj,
	}
	if !dates.Min.IsZero() {
		payload["date_min"] = dates.Min.Format("2006-01-02")
	}
	if !dates.Max.IsZero() {
		payload["date_max"] = dates.Max.Format("2006-01-02")
	}
	var out Collection
	if err := e.post(ctx, "/collections/filter", payload, &out); err != nil {
		return Collection{}, err
	}
	return out, nil
}

// Preprocess implements Engine
func (e *RESTEngine) Preprocess(ctx context.Context, c Collection, opts PreprocessOptions) (Image, error) {
	var out struct {
		Image
		MissingBands bool `json:"missing_bands"`
	}
	payload := map[string]interface{}{
		"collection":  c.ID,
		"mask_clouds": opts.MaskClouds,
		"reduce":      opts.Reduce,
		"spectral":    opts.Spectral,
		"clip":        opts.Clip,
	}
	if err := e.post(ctx, "/images/composite", payload, &out); err != nil {
		return Image{}, err
	}
	if out.MissingBands {
		return Image{}, ErrMissingBands
	}
	return out.Image, nil
}

// Aggregate implements Engine
func (e *RESTEngine) Aggregate(ctx context.Context, img Image, frequency, reduceBy string) (Image, error) {
	var out Image
	payload := map[string]interface{}{"image": img.ID, "frequency": frequency, "reduce_by": reduceBy}
	if err := e.post(ctx, "/images/aggregate", payload, &out); err != nil {
		return Image{}, err
	}
	return out, nil
}

// Map implements Engine
func (e *RESTEngine) Map(ctx context.Context, img Image, opts VisualizeOptions) error {
	payload := map[string]interface{}{
		"image":   img.ID,
		"bands":   opts.Bands,
		"minmax":  opts.MinMax,
		"palette": opts.Palette,
		"save_to": opts.SaveTo,
	}
	return e.post(ctx, "/images/visualize", payload, nil)
}

// SizeOf implements Engine
func (e *RESTEngine) SizeOf(ctx context.Context, img Image, bands []string, scale float64, region geom.Geometry) (int64, error) {
	rj, err := regionJSON(region)
	if err != nil {
		return 0, err
	}
	var out struct {
		Bytes int64 `json:"bytes"`
	}
	payload := map[string]interface{}{"image": img.ID, "bands": bands, "scale": scale, "region": rj}
	if err := e.post(ctx, "/images/size", payload, &out); err != nil {
		return 0, err
	}
	return out.Bytes, nil
}

// DownloadURL implements Engine
func (e *RESTEngine) DownloadURL(ctx context.Context, img Image, bands []string, scale float64, region geom.Geometry, format string) (string, error) {
	rj, err := regionJSON(region)
	if err != nil {
		return "", err
	}
	var out struct {
		URL string `json:"url"`
	}
	payload := map[string]interface{}{"image": img.ID, "bands": bands, "scale": scale, "region": rj, "format": format}
	if err := e.post(ctx, "/images/export", payload, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}
