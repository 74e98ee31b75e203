// Package geo holds the small amount of geodesy the catalog needs to frame a
// layer: WGS84 cartographic/cartesian conversion, rectangle sample points and
// bounding spheres. The algorithms match the ones used by Cesium so that
// framings computed here agree with what the viewer would compute itself.
package geo
