package sandbox

import (
	"math"

	"github.com/Garsondee/Companion-Sense/internal/geom"
)

// Box is an axis-aligned obstacle. Boxes block both walking and sight.
type Box struct {
	Min, Max geom.Vec3
}

// NewBox builds a box standing on the ground at (x,z) with the given
// footprint and height.
func NewBox(x, z, w, d, h float64) Box {
	return Box{Min: geom.V(x, 0, z), Max: geom.V(x+w, h, z+d)}
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p geom.Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// HasLineOfSight returns true if the segment from a to b does not intersect
// any obstacle. Uses simple segment-vs-AABB slab tests.
func HasLineOfSight(a, b geom.Vec3, obstacles []Box) bool {
	for _, o := range obstacles {
		if _, hit := segmentBoxHitT(a, b, o); hit {
			return false
		}
	}
	return true
}

// segmentBoxHitT returns the first segment parameter t in [0,1] where the
// line a->b enters the box. The bool is false when no hit exists.
func segmentBoxHitT(a, b geom.Vec3, box Box) (float64, bool) {
	d := b.Sub(a)
	tMin, tMax := 0.0, 1.0

	slab := func(o, dir, lo, hi float64) bool {
		if math.Abs(dir) < 1e-12 {
			return o >= lo && o <= hi
		}
		inv := 1.0 / dir
		t1 := (lo - o) * inv
		t2 := (hi - o) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		return tMin <= tMax
	}

	if !slab(a.X, d.X, box.Min.X, box.Max.X) ||
		!slab(a.Y, d.Y, box.Min.Y, box.Max.Y) ||
		!slab(a.Z, d.Z, box.Min.Z, box.Max.Z) {
		return 0, false
	}
	if tMax < 0 || tMin > 1 {
		return 0, false
	}
	return tMin, true
}
