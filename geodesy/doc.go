// Package geodesy holds the small geometric toolkit the planner is built on:
// angle conversion, point-in-polygon, interpolation, planar vectors, the
// equirectangular metres/angle approximation, ECEF positions, and polygon
// area. Nothing here depends on a rendering engine.
package geodesy
