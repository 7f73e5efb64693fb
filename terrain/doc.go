// Package terrain provides ground elevation sources for the coverage planner.
//
// Every provider implements core.TerrainProvider: it receives all waypoints
// of a planning run in one call and answers with one elevation in metres per
// point, NaN where the point cannot be resolved.
package terrain
