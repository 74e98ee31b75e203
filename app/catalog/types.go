package catalog

import (
	"encoding/json"

	"github.com/hotosm/odmcatalog/app/geo"
)

// AssetKind is one of the derivative outputs a task can produce
type AssetKind int

const (
	PointCloud AssetKind = iota
	Orthophoto
	DSM
	DTM
)

// AssetKinds is the discovery order. Sibling layers always follow it.
var AssetKinds = []AssetKind{PointCloud, Orthophoto, DSM, DTM}

// Asset is the file name WebODM lists in available_assets
func (k AssetKind) Asset() string {
	switch k {
	case PointCloud:
		return "georeferenced_model.laz"
	case Orthophoto:
		return "orthophoto.tif"
	case DSM:
		return "dsm.tif"
	case DTM:
		return "dtm.tif"
	}
	return ""
}

// Label is used in layer display names
func (k AssetKind) Label() string {
	switch k {
	case PointCloud:
		return "Point Cloud"
	case Orthophoto:
		return "Orthophoto"
	case DSM:
		return "DSM"
	case DTM:
		return "DTM"
	}
	return "Unknown"
}

// Endpoint is the raster path segment (orthophoto, dsm, dtm)
func (k AssetKind) Endpoint() string {
	switch k {
	case Orthophoto:
		return "orthophoto"
	case DSM:
		return "dsm"
	case DTM:
		return "dtm"
	}
	return ""
}

func (k AssetKind) IsRaster() bool {
	return k == Orthophoto || k == DSM || k == DTM
}

func (k AssetKind) String() string {
	return k.Label()
}

// LayerKey identifies a layer across fan-out stages
type LayerKey struct {
	ProjectID int
	TaskID    string
	Kind      AssetKind
}

// Layer is a render-ready description of one task asset
type Layer struct {
	Key    LayerKey
	Name   string
	URL    string
	Public bool

	// Point cloud only
	Truncate bool

	// Raster only
	Rescale      [2]float64
	ColorMap     string
	Hillshade    int
	MaximumLevel int
	Rectangle    geo.Rectangle
	// [longitude, latitude, zoom] as reported by WebODM
	Center []float64
}

func (l Layer) Kind() AssetKind {
	return l.Key.Kind
}

// CameraFraming is the TerriaJS lookAt for a raster layer
type CameraFraming struct {
	TargetLongitude float64 `json:"targetLongitude"`
	TargetLatitude  float64 `json:"targetLatitude"`
	TargetHeight    float64 `json:"targetHeight"`
	Range           float64 `json:"range"`
}

const (
	NodeTypeGroup     = "group"
	NodeType3DTiles   = "3d-tiles"
	NodeTypeImagery   = "open-street-map"
	NodeTypeReference = "terria-reference"
)

// Node is a TerriaJS catalog member
type Node struct {
	Type           string          `json:"type"`
	Name           string          `json:"name"`
	URL            string          `json:"url,omitempty"`
	IsGroup        bool            `json:"isGroup,omitempty"`
	MaximumLevel   *int            `json:"maximumLevel,omitempty"`
	Rectangle      *geo.Rectangle  `json:"rectangle,omitempty"`
	IdealZoom      *IdealZoom      `json:"idealZoom,omitempty"`
	Info           []InfoSection   `json:"info,omitempty"`
	ItemProperties *ItemProperties `json:"itemProperties,omitempty"`
	Members        []Node          `json:"members,omitempty"`
}

type IdealZoom struct {
	LookAt CameraFraming `json:"lookAt"`
}

type InfoSection struct {
	Name            string         `json:"name"`
	Content         string         `json:"content"`
	ContentAsObject TaskVisibility `json:"contentAsObject"`
	Show            bool           `json:"show"`
}

type TaskVisibility struct {
	Public bool `json:"public"`
}

type ItemProperties struct {
	Permissions json.RawMessage `json:"permissions,omitempty"`
}

// Document is the {catalog: [...]} body of the discovery endpoints
type Document struct {
	Catalog []Node `json:"catalog"`
}

// InitDocument is a TerriaJS init file for a shared task
type InitDocument struct {
	HomeCamera HomeCamera `json:"homeCamera"`
	Catalog    []Node     `json:"catalog"`
	BaseMaps   BaseMaps   `json:"baseMaps"`
}

type HomeCamera struct {
	North float64 `json:"north"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
	West  float64 `json:"west"`
}

type BaseMaps struct {
	DefaultBaseMapID string `json:"defaultBaseMapId"`
}
