package geo

import (
	"math"
)

// Cartographic is a geodetic position, longitude and latitude in degrees
type Cartographic struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
}

// Cartesian is an earth-centred, earth-fixed position in metres
type Cartesian struct {
	X, Y, Z float64
}

func (c Cartesian) Add(o Cartesian) Cartesian {
	return Cartesian{c.X + o.X, c.Y + o.Y, c.Z + o.Z}
}

func (c Cartesian) Sub(o Cartesian) Cartesian {
	return Cartesian{c.X - o.X, c.Y - o.Y, c.Z - o.Z}
}

func (c Cartesian) Scale(s float64) Cartesian {
	return Cartesian{c.X * s, c.Y * s, c.Z * s}
}

func (c Cartesian) Dot(o Cartesian) float64 {
	return c.X*o.X + c.Y*o.Y + c.Z*o.Z
}

func (c Cartesian) MagnitudeSquared() float64 {
	return c.Dot(c)
}

func (c Cartesian) Magnitude() float64 {
	return math.Sqrt(c.MagnitudeSquared())
}

func (c Cartesian) Normalize() Cartesian {
	m := c.Magnitude()
	if m == 0 {
		return c
	}
	return c.Scale(1 / m)
}

func (c Cartesian) mulComponents(o Cartesian) Cartesian {
	return Cartesian{c.X * o.X, c.Y * o.Y, c.Z * o.Z}
}

// Ellipsoid is a triaxial ellipsoid centred at the origin
type Ellipsoid struct {
	radii               Cartesian
	radiiSquared        Cartesian
	oneOverRadii        Cartesian
	oneOverRadiiSquared Cartesian
}

func NewEllipsoid(x, y, z float64) Ellipsoid {
	return Ellipsoid{
		radii:               Cartesian{x, y, z},
		radiiSquared:        Cartesian{x * x, y * y, z * z},
		oneOverRadii:        Cartesian{1 / x, 1 / y, 1 / z},
		oneOverRadiiSquared: Cartesian{1 / (x * x), 1 / (y * y), 1 / (z * z)},
	}
}

var WGS84 = NewEllipsoid(6378137.0, 6378137.0, 6356752.3142451793)

const (
	epsilon12 = 1e-12
	// Newton converges in a handful of steps, this only guards NaN input
	maxSurfaceIterations = 100
	// Positions closer than this (squared, in scaled units) to the centre
	// have no well defined surface projection
	centerToleranceSquared = 0.1
)

// ToCartesian converts a geodetic position to ECEF
func (e Ellipsoid) ToCartesian(c Cartographic) Cartesian {
	lon := toRadians(c.Longitude)
	lat := toRadians(c.Latitude)
	cosLat := math.Cos(lat)

	n := Cartesian{cosLat * math.Cos(lon), cosLat * math.Sin(lon), math.Sin(lat)}.Normalize()
	k := e.radiiSquared.mulComponents(n)
	gamma := math.Sqrt(n.Dot(k))
	k = k.Scale(1 / gamma)

	return k.Add(n.Scale(c.Height))
}

// ToCartesianArray converts every position, preserving order
func (e Ellipsoid) ToCartesianArray(cs []Cartographic) []Cartesian {
	out := make([]Cartesian, len(cs))
	for i, c := range cs {
		out[i] = e.ToCartesian(c)
	}
	return out
}

// ToCartographic converts an ECEF position to geodetic coordinates.
// ok is false for positions at the centre of the ellipsoid.
func (e Ellipsoid) ToCartographic(p Cartesian) (Cartographic, bool) {
	surface, ok := e.scaleToGeodeticSurface(p)
	if !ok {
		return Cartographic{}, false
	}

	n := surface.mulComponents(e.oneOverRadiiSquared).Normalize()
	h := p.Sub(surface)

	height := h.Magnitude()
	if h.Dot(p) < 0 {
		height = -height
	}

	return Cartographic{
		Longitude: toDegrees(math.Atan2(n.Y, n.X)),
		Latitude:  toDegrees(math.Asin(n.Z)),
		Height:    height,
	}, true
}

// scaleToGeodeticSurface projects p along the geodetic normal onto the surface
func (e Ellipsoid) scaleToGeodeticSurface(p Cartesian) (Cartesian, bool) {
	x2 := p.X * p.X * e.oneOverRadii.X * e.oneOverRadii.X
	y2 := p.Y * p.Y * e.oneOverRadii.Y * e.oneOverRadii.Y
	z2 := p.Z * p.Z * e.oneOverRadii.Z * e.oneOverRadii.Z

	squaredNorm := x2 + y2 + z2
	ratio := math.Sqrt(1 / squaredNorm)
	intersection := p.Scale(ratio)

	if squaredNorm < centerToleranceSquared {
		if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
			return Cartesian{}, false
		}
		return intersection, true
	}

	oo := e.oneOverRadiiSquared
	gradient := Cartesian{
		intersection.X * oo.X * 2,
		intersection.Y * oo.Y * 2,
		intersection.Z * oo.Z * 2,
	}

	lambda := (1 - ratio) * p.Magnitude() / (0.5 * gradient.Magnitude())
	correction := 0.0

	var xm, ym, zm, fn float64
	for i := 0; i < maxSurfaceIterations; i++ {
		lambda -= correction

		xm = 1 / (1 + lambda*oo.X)
		ym = 1 / (1 + lambda*oo.Y)
		zm = 1 / (1 + lambda*oo.Z)

		xm2, ym2, zm2 := xm*xm, ym*ym, zm*zm
		xm3, ym3, zm3 := xm2*xm, ym2*ym, zm2*zm

		fn = x2*xm2 + y2*ym2 + z2*zm2 - 1

		denominator := x2*xm3*oo.X + y2*ym3*oo.Y + z2*zm3*oo.Z
		derivative := -2 * denominator
		correction = fn / derivative

		if math.Abs(fn) <= epsilon12 {
			break
		}
	}
	if math.IsNaN(fn) {
		return Cartesian{}, false
	}

	return Cartesian{p.X * xm, p.Y * ym, p.Z * zm}, true
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
