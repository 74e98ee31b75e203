package geo

import "math"

type BoundingSphere struct {
	Center Cartesian
	Radius float64
}

// BoundingSphereFromPoints computes a tight sphere around points.
// Both Ritter's sphere and the sphere around the axis aligned box are
// computed, the smaller one is returned.
func BoundingSphereFromPoints(points []Cartesian) BoundingSphere {
	if len(points) == 0 {
		return BoundingSphere{}
	}

	xMin, yMin, zMin := points[0], points[0], points[0]
	xMax, yMax, zMax := points[0], points[0], points[0]
	for _, p := range points[1:] {
		if p.X < xMin.X {
			xMin = p
		}
		if p.X > xMax.X {
			xMax = p
		}
		if p.Y < yMin.Y {
			yMin = p
		}
		if p.Y > yMax.Y {
			yMax = p
		}
		if p.Z < zMin.Z {
			zMin = p
		}
		if p.Z > zMax.Z {
			zMax = p
		}
	}

	// Seed Ritter with the pair spanning the widest axis
	xSpan := xMax.Sub(xMin).MagnitudeSquared()
	ySpan := yMax.Sub(yMin).MagnitudeSquared()
	zSpan := zMax.Sub(zMin).MagnitudeSquared()

	d1, d2, maxSpan := xMin, xMax, xSpan
	if ySpan > maxSpan {
		d1, d2, maxSpan = yMin, yMax, ySpan
	}
	if zSpan > maxSpan {
		d1, d2 = zMin, zMax
	}

	ritterCenter := d1.Add(d2).Scale(0.5)
	radiusSquared := d2.Sub(ritterCenter).MagnitudeSquared()
	ritterRadius := math.Sqrt(radiusSquared)

	minBox := Cartesian{xMin.X, yMin.Y, zMin.Z}
	maxBox := Cartesian{xMax.X, yMax.Y, zMax.Z}
	naiveCenter := minBox.Add(maxBox).Scale(0.5)
	naiveRadius := 0.0

	for _, p := range points {
		if r := p.Sub(naiveCenter).Magnitude(); r > naiveRadius {
			naiveRadius = r
		}

		oldCenterToPointSquared := p.Sub(ritterCenter).MagnitudeSquared()
		if oldCenterToPointSquared > radiusSquared {
			oldCenterToPoint := math.Sqrt(oldCenterToPointSquared)
			ritterRadius = (ritterRadius + oldCenterToPoint) * 0.5
			radiusSquared = ritterRadius * ritterRadius

			oldToNew := oldCenterToPoint - ritterRadius
			ritterCenter = ritterCenter.Scale(ritterRadius).Add(p.Scale(oldToNew)).Scale(1 / oldCenterToPoint)
		}
	}

	if ritterRadius < naiveRadius {
		return BoundingSphere{Center: ritterCenter, Radius: ritterRadius}
	}
	return BoundingSphere{Center: naiveCenter, Radius: naiveRadius}
}
