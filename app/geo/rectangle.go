package geo

import "math"

// Rectangle is a geographic extent in degrees
type Rectangle struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// RectangleFromBounds builds a rectangle from a [west, south, east, north] array
func RectangleFromBounds(b []float64) (Rectangle, bool) {
	if len(b) < 4 {
		return Rectangle{}, false
	}
	return Rectangle{West: b[0], South: b[1], East: b[2], North: b[3]}, true
}

// Center handles rectangles crossing the antimeridian (east < west)
func (r Rectangle) Center() Cartographic {
	east := r.East
	if east < r.West {
		east += 360
	}
	return Cartographic{
		Longitude: wrapLongitude((r.West + east) * 0.5),
		Latitude:  (r.South + r.North) * 0.5,
	}
}

func (r Rectangle) Southeast() Cartographic {
	return Cartographic{Longitude: r.East, Latitude: r.South}
}

func (r Rectangle) Southwest() Cartographic {
	return Cartographic{Longitude: r.West, Latitude: r.South}
}

func (r Rectangle) Northeast() Cartographic {
	return Cartographic{Longitude: r.East, Latitude: r.North}
}

func (r Rectangle) Northwest() Cartographic {
	return Cartographic{Longitude: r.West, Latitude: r.North}
}

// SamplePoints returns centre, SE, SW, NE, NW, in that order
func (r Rectangle) SamplePoints() []Cartographic {
	return []Cartographic{
		r.Center(),
		r.Southeast(),
		r.Southwest(),
		r.Northeast(),
		r.Northwest(),
	}
}

// wrapLongitude maps degrees into [-180, 180]
func wrapLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	w := math.Mod(lon+180, 360)
	if w < 0 {
		w += 360
	}
	return w - 180
}
