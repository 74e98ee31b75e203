package terrain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hotosm/odmcatalog/app/geo"
)

// Sampler returns terrain heights for geographic points.
// The result has the same length and order as the input.
type Sampler interface {
	SampleHeights(ctx context.Context, points []geo.Cartographic) ([]geo.Cartographic, error)
}

var (
	_ Sampler = (*HTTPSampler)(nil)
	_ Sampler = EllipsoidSampler{}
)

// EllipsoidSampler places every point on the WGS84 ellipsoid (height 0).
// Used when no elevation service is configured.
type EllipsoidSampler struct{}

func (EllipsoidSampler) SampleHeights(_ context.Context, points []geo.Cartographic) ([]geo.Cartographic, error) {
	out := make([]geo.Cartographic, len(points))
	for i, p := range points {
		out[i] = geo.Cartographic{Longitude: p.Longitude, Latitude: p.Latitude}
	}
	return out, nil
}

// HTTPSampler queries an open-elevation compatible lookup service
type HTTPSampler struct {
	baseURL    string
	httpClient *http.Client
}

func NewHTTPSampler(baseURL string, timeout time.Duration) *HTTPSampler {
	return &HTTPSampler{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type lookupLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []lookupLocation `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

// SampleHeights issues a single lookup for all points
func (s *HTTPSampler) SampleHeights(ctx context.Context, points []geo.Cartographic) ([]geo.Cartographic, error) {
	if len(points) == 0 {
		return nil, nil
	}

	reqBody := lookupRequest{Locations: make([]lookupLocation, len(points))}
	for i, p := range points {
		reqBody.Locations[i] = lookupLocation{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1/lookup", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevation lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("elevation service returned status %d", resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode elevation response: %w", err)
	}
	if len(body.Results) != len(points) {
		return nil, fmt.Errorf("elevation service returned %d results for %d points", len(body.Results), len(points))
	}

	// Keep the requested coordinates, the service may round them
	out := make([]geo.Cartographic, len(points))
	for i, p := range points {
		out[i] = geo.Cartographic{
			Longitude: p.Longitude,
			Latitude:  p.Latitude,
			Height:    body.Results[i].Elevation,
		}
	}
	return out, nil
}
