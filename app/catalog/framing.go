package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hotosm/odmcatalog/app/geo"
	"github.com/hotosm/odmcatalog/app/terrain"
)

// SampleFraming computes a camera framing for every raster layer.
// Point cloud layers are ignored. One terrain lookup is issued per raster
// layer, at most limit at a time, and each result is keyed by the layer it
// was requested for. Any failed lookup fails the whole call.
func SampleFraming(ctx context.Context, sampler terrain.Sampler, layers []Layer, limit int) (map[LayerKey]CameraFraming, error) {
	var rasters []Layer
	for _, l := range layers {
		if l.Kind().IsRaster() {
			rasters = append(rasters, l)
		}
	}
	framings := make(map[LayerKey]CameraFraming, len(rasters))
	if len(rasters) == 0 {
		return framings, nil
	}

	results := make([]CameraFraming, len(rasters))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, layer := range rasters {
		g.Go(func() error {
			framing, err := frameLayer(gctx, sampler, layer)
			if err != nil {
				return fmt.Errorf("failed to frame %s of task %s: %w", layer.Kind(), layer.Key.TaskID, err)
			}
			results[i] = framing
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, layer := range rasters {
		framings[layer.Key] = results[i]
	}
	return framings, nil
}

func frameLayer(ctx context.Context, sampler terrain.Sampler, layer Layer) (CameraFraming, error) {
	points := layer.Rectangle.SamplePoints()
	sampled, err := sampler.SampleHeights(ctx, points)
	if err != nil {
		return CameraFraming{}, err
	}
	if len(sampled) != len(points) {
		return CameraFraming{}, fmt.Errorf("terrain returned %d heights for %d points", len(sampled), len(points))
	}
	return framingFromSamples(sampled, layer.Center), nil
}

// framingFromSamples encloses the sampled points in a sphere. The camera
// looks at the sphere centre from one radius away. The reported layer
// centre is only used when the sphere centre has no geodetic position.
func framingFromSamples(sampled []geo.Cartographic, center []float64) CameraFraming {
	sphere := geo.BoundingSphereFromPoints(geo.WGS84.ToCartesianArray(sampled))

	framing := CameraFraming{Range: sphere.Radius}
	if target, ok := geo.WGS84.ToCartographic(sphere.Center); ok {
		framing.TargetLongitude = target.Longitude
		framing.TargetLatitude = target.Latitude
		framing.TargetHeight = target.Height
		return framing
	}
	if len(center) >= 2 {
		framing.TargetLongitude = center[0]
		framing.TargetLatitude = center[1]
	}
	return framing
}
