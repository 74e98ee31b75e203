package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/hotosm/odmcatalog/app/geo"
	"github.com/hotosm/odmcatalog/app/webodm"
)

const (
	demColorMap  = "viridis"
	demHillshade = 6
	// Colour channels above this are 16 bit and need truncating
	maxByteColour = 255
)

// LayerSource holds the URLs layers point at
type LayerSource struct {
	// WebODM root, serves the raster tiles
	BaseURL string
	// Entwine to 3D Tiles converter
	EptServerURL string
}

// Build turns one metadata slot into a layer. It reports false when the
// slot failed or its metadata cannot describe a layer.
func (s LayerSource) Build(task *webodm.Task, slot MetadataSlot) (Layer, bool) {
	if slot.Err != nil {
		return Layer{}, false
	}

	layer := Layer{
		Key:    slot.Key,
		Name:   fmt.Sprintf("%s - %s", task.Name, slot.Key.Kind.Label()),
		Public: task.Public,
	}

	if slot.Key.Kind == PointCloud {
		if slot.PointCloud == nil {
			return Layer{}, false
		}
		truncate, ok := truncateColour(slot.PointCloud.Schema)
		if !ok {
			return Layer{}, false
		}
		layer.Truncate = truncate
		layer.URL = s.tilesetURL(slot.Key, truncate)
		return layer, true
	}

	md := slot.Raster
	if md == nil {
		return Layer{}, false
	}
	band, ok := md.Statistics[1]
	if !ok {
		return Layer{}, false
	}
	rect, ok := geo.RectangleFromBounds(md.Bounds.Value)
	if !ok {
		return Layer{}, false
	}

	layer.Rescale = [2]float64{band.Min, band.Max}
	layer.MaximumLevel = md.MaxZoom
	layer.Rectangle = rect
	layer.Center = md.Center
	if slot.Key.Kind != Orthophoto {
		layer.ColorMap = demColorMap
		layer.Hillshade = demHillshade
	}
	layer.URL = s.tilesURL(layer)
	return layer, true
}

// truncateColour decides whether point colours must be scaled down to 8 bit.
// Truncation is the default unless a colour channel proves an 8 bit range.
// ok is false when the schema has no colour channel at all.
func truncateColour(schema []webodm.SchemaEntry) (truncate bool, ok bool) {
	truncate = true
	for _, entry := range schema {
		switch entry.Name {
		case "Red", "Green", "Blue":
		default:
			continue
		}
		ok = true
		if entry.Maximum != nil && *entry.Maximum != 0 && *entry.Maximum <= maxByteColour {
			truncate = false
		}
	}
	return truncate, ok
}

func (s LayerSource) tilesetURL(key LayerKey, truncate bool) string {
	ept := s.BaseURL + webodm.PointCloudMetadataPath(key.ProjectID, key.TaskID)
	u := s.EptServerURL + "/tileset.json?ept=" + ept
	if truncate {
		u += "&truncate"
	}
	return u
}

func (s LayerSource) tilesURL(layer Layer) string {
	key := layer.Key
	var b strings.Builder
	fmt.Fprintf(&b, "%s/api/projects/%d/tasks/%s/%s/tiles?", s.BaseURL, key.ProjectID, url.PathEscape(key.TaskID), key.Kind.Endpoint())
	if layer.ColorMap != "" {
		b.WriteString("color_map=" + layer.ColorMap + "&")
	}
	b.WriteString("rescale=" + formatNumber(layer.Rescale[0]) + "," + formatNumber(layer.Rescale[1]))
	if layer.Hillshade != 0 {
		b.WriteString("&hillshade=" + strconv.Itoa(layer.Hillshade))
	}
	return b.String()
}

// formatNumber prints floats the way JSON would, 255 rather than 255.000000
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
