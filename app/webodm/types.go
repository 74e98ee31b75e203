package webodm

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Credential is the caller's session blob (their Cookie header).
// It is forwarded upstream as-is and never inspected, except for the
// csrftoken required by WebODM on mutating requests.
type Credential string

type Project struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Permissions json.RawMessage `json:"permissions,omitempty"`
}

type Task struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Public          bool     `json:"public"`
	AvailableAssets []string `json:"available_assets"`
	Project         int      `json:"project"`
}

// HasAsset reports whether the task lists the given asset file
func (t *Task) HasAsset(asset string) bool {
	for _, a := range t.AvailableAssets {
		if a == asset {
			return true
		}
	}
	return false
}

// Entwine ept.json, only the parts we read
type PointCloudMetadata struct {
	Schema []SchemaEntry `json:"schema"`
}

type SchemaEntry struct {
	Name    string   `json:"name"`
	Type    string   `json:"type,omitempty"`
	Size    int      `json:"size,omitempty"`
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`
}

// Output of /{orthophoto|dsm|dtm}/metadata
type RasterMetadata struct {
	Bounds     Bounds         `json:"bounds"`
	MaxZoom    int            `json:"maxzoom"`
	MinZoom    int            `json:"minzoom"`
	Statistics BandStatistics `json:"statistics"`
	// [longitude, latitude, zoom]
	Center []float64 `json:"center"`
}

type Bounds struct {
	// [west, south, east, north] in degrees
	Value []float64 `json:"value"`
	CRS   string    `json:"crs,omitempty"`
}

type BandStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// BandStatistics holds per-band stats keyed by band number.
// WebODM returns an object keyed by band ("1", "2", ...), older tiles
// endpoints an array; both decode into the same shape.
type BandStatistics map[int]BandStats

func (b *BandStatistics) UnmarshalJSON(data []byte) error {
	out := BandStatistics{}

	var asList []*BandStats
	if err := json.Unmarshal(data, &asList); err == nil {
		for i, s := range asList {
			if s != nil {
				out[i] = *s
			}
		}
		*b = out
		return nil
	}

	var asMap map[string]BandStats
	if err := json.Unmarshal(data, &asMap); err != nil {
		return fmt.Errorf("failed to decode band statistics: %w", err)
	}
	for k, s := range asMap {
		band, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out[band] = s
	}
	*b = out
	return nil
}
