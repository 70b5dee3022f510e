package sandbox

import (
	"math"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

// CellSize is the nav grid resolution in world units.
const CellSize = 1.0

// NavGrid is a walkability grid over the XZ plane where true = blocked.
type NavGrid struct {
	cols    int
	rows    int
	blocked []bool
}

// NewNavGrid builds a walkability grid from the map dimensions and obstacles.
// Each cell that overlaps an obstacle (padded by the body radius) is blocked.
func NewNavGrid(width, depth float64, obstacles []Box, bodyRadius float64) *NavGrid {
	cols := int(math.Ceil(width / CellSize))
	rows := int(math.Ceil(depth / CellSize))
	ng := &NavGrid{
		cols:    cols,
		rows:    rows,
		blocked: make([]bool, cols*rows),
	}
	for _, b := range obstacles {
		cMinX, cMinZ := WorldToCell(b.Min.X-bodyRadius, b.Min.Z-bodyRadius)
		cMaxX, cMaxZ := WorldToCell(b.Max.X+bodyRadius-1e-9, b.Max.Z+bodyRadius-1e-9)
		cMinX, cMinZ = max(0, cMinX), max(0, cMinZ)
		cMaxX, cMaxZ = min(cols-1, cMaxX), min(rows-1, cMaxZ)
		for cz := cMinZ; cz <= cMaxZ; cz++ {
			for cx := cMinX; cx <= cMaxX; cx++ {
				ng.blocked[cz*cols+cx] = true
			}
		}
	}
	return ng
}

func (ng *NavGrid) Cols() int { return ng.cols }
func (ng *NavGrid) Rows() int { return ng.rows }

// IsBlocked returns true if the cell at (cx, cz) is not walkable.
func (ng *NavGrid) IsBlocked(cx, cz int) bool {
	if cx < 0 || cz < 0 || cx >= ng.cols || cz >= ng.rows {
		return true
	}
	return ng.blocked[cz*ng.cols+cx]
}

// Walkable reports whether the point lies on an open cell.
func (ng *NavGrid) Walkable(p geom.Vec3) bool {
	cx, cz := WorldToCell(p.X, p.Z)
	return !ng.IsBlocked(cx, cz)
}

// WorldToCell converts world XZ coordinates to grid cell coordinates.
func WorldToCell(wx, wz float64) (int, int) {
	return int(math.Floor(wx / CellSize)), int(math.Floor(wz / CellSize))
}

// CellToWorld converts grid cell coordinates to the world-space cell center.
func CellToWorld(cx, cz int) geom.Vec3 {
	return geom.V((float64(cx)+0.5)*CellSize, 0, (float64(cz)+0.5)*CellSize)
}

// SamplePosition returns the nearest walkable point within radius of p.
// A walkable p is returned unchanged (flattened onto the ground); otherwise
// the closest open cell center wins.
func (ng *NavGrid) SamplePosition(p geom.Vec3, radius float64) (geom.Vec3, bool) {
	p.Y = 0
	if ng.Walkable(p) {
		return p, true
	}
	reach := int(math.Ceil(radius / CellSize))
	pcx, pcz := WorldToCell(p.X, p.Z)
	best, bestD := geom.Vec3{}, math.Inf(1)
	for cz := pcz - reach; cz <= pcz+reach; cz++ {
		for cx := pcx - reach; cx <= pcx+reach; cx++ {
			if ng.IsBlocked(cx, cz) {
				continue
			}
			c := CellToWorld(cx, cz)
			if d := geom.Dist(c, p); d <= radius && d < bestD {
				best, bestD = c, d
			}
		}
	}
	return best, !math.IsInf(bestD, 1)
}

// ClearSegment reports the furthest walkable point along a straight line
// from a to b, sampled at quarter-cell steps.
func (ng *NavGrid) ClearSegment(a, b geom.Vec3) geom.Vec3 {
	d := b.Sub(a)
	steps := int(math.Ceil(d.Len() / (CellSize / 4)))
	last := a
	for i := 1; i <= steps; i++ {
		p := a.Add(d.Scale(float64(i) / float64(steps)))
		if !ng.Walkable(p) {
			return last
		}
		last = p
	}
	return b
}
