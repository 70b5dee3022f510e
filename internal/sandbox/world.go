package sandbox

import (
	"github.com/Garsondee/Companion-Sense/internal/companion"
	"github.com/Garsondee/Companion-Sense/internal/geom"
)

const (
	hostileReach    = 1.2 // melee range against the player
	hostileCooldown = 1.5
	hostileDamage   = 6.0
	hitSlowDuration = 1.0
)

// --- Hostile ---

// Hostile is a sandbox enemy. It idles until the player enters its aggro
// radius, then chases and strikes in melee range.
type Hostile struct {
	ID        companion.EntityID
	Pos       geom.Vec3
	HP        float64
	MaxHP     float64
	Behavior  companion.HostileBehavior
	Destroyed bool

	// Immune hostiles ignore companion weapons.
	Immune bool

	// Patrol, when set, is walked in a loop while the player is out of range.
	Patrol []geom.Vec3

	patrolIdx  int
	lastStrike float64
}

// HealthFraction returns HP / MaxHP.
func (h *Hostile) HealthFraction() float64 {
	if h.MaxHP <= 0 {
		return 0
	}
	return h.HP / h.MaxHP
}

// --- Player ---

// Player is the protectee. It walks an optional route and takes hostile hits.
type Player struct {
	Pos       geom.Vec3
	Fwd       geom.Vec3
	HP        float64
	MaxHP     float64
	Crouching bool
	Speed     float64
	Present   bool

	route    []geom.Vec3
	routeIdx int
	slowLeft float64
	stunLeft float64
}

func (p *Player) Position() geom.Vec3 { return p.Pos }
func (p *Player) Forward() geom.Vec3  { return p.Fwd }
func (p *Player) IsCrouching() bool   { return p.Crouching }

// HealthFraction returns HP / MaxHP.
func (p *Player) HealthFraction() float64 {
	if p.MaxHP <= 0 {
		return 0
	}
	return p.HP / p.MaxHP
}

// MovementStatus reports stun before slow.
func (p *Player) MovementStatus() companion.MovementStatus {
	switch {
	case p.stunLeft > 0:
		return companion.MovementStunned
	case p.slowLeft > 0:
		return companion.MovementSlowed
	default:
		return companion.MovementNormal
	}
}

// FindProtectee reports the player while it is present and alive.
func (p *Player) FindProtectee() (companion.Protectee, bool) {
	if !p.Present || p.HP <= 0 {
		return nil, false
	}
	return p, true
}

// Stun freezes the player for d seconds.
func (p *Player) Stun(d float64) { p.stunLeft = max(p.stunLeft, d) }

// SetRoute replaces the walking route.
func (p *Player) SetRoute(points ...geom.Vec3) {
	p.route = points
	p.routeIdx = 0
}

// RouteDone reports whether the player has walked its whole route.
func (p *Player) RouteDone() bool { return p.routeIdx >= len(p.route) }

func (p *Player) takeHit(amount float64) {
	p.HP = max(0, p.HP-amount)
	p.slowLeft = hitSlowDuration
}

func (p *Player) step(dt float64, grid *NavGrid) {
	p.slowLeft = max(0, p.slowLeft-dt)
	if p.stunLeft > 0 {
		p.stunLeft = max(0, p.stunLeft-dt)
		return
	}
	if p.RouteDone() || p.HP <= 0 {
		return
	}
	speed := p.Speed
	if p.slowLeft > 0 {
		speed *= 0.5
	}
	goal := p.route[p.routeIdx]
	to := goal.Sub(p.Pos).Flat()
	if to.Len() <= speed*dt {
		p.Pos = goal
		p.routeIdx++
	} else {
		p.Pos = grid.ClearSegment(p.Pos, p.Pos.Add(to.Normalize().Scale(speed*dt)))
	}
	if !to.IsZero() {
		p.Fwd = to.Normalize()
	}
}

// --- World ---

// World is the sandbox spatial registry. It implements companion.World.
type World struct {
	Grid      *NavGrid
	Obstacles []Box

	// Aggro is the radius at which hostiles notice the player.
	Aggro        float64
	HostileSpeed float64

	hostiles []*Hostile
	byID     map[companion.EntityID]*Hostile
	now      float64

	// OnDestroyed observes every hostile kill.
	OnDestroyed func(h *Hostile)
}

var _ companion.World = (*World)(nil)

// NewWorld returns an empty world over grid.
func NewWorld(grid *NavGrid, obstacles []Box) *World {
	return &World{
		Grid:         grid,
		Obstacles:    obstacles,
		Aggro:        12,
		HostileSpeed: 2.5,
		byID:         make(map[companion.EntityID]*Hostile),
	}
}

// AddHostile registers a hostile. A duplicate ID replaces the old entry.
func (w *World) AddHostile(h *Hostile) {
	if old, ok := w.byID[h.ID]; ok {
		for i, o := range w.hostiles {
			if o == old {
				w.hostiles = append(w.hostiles[:i], w.hostiles[i+1:]...)
				break
			}
		}
	}
	w.hostiles = append(w.hostiles, h)
	w.byID[h.ID] = h
}

// Hostile returns the hostile with the given ID.
func (w *World) Hostile(id companion.EntityID) (*Hostile, bool) {
	h, ok := w.byID[id]
	return h, ok
}

// Hostiles returns every registered hostile in insertion order, including
// destroyed ones.
func (w *World) Hostiles() []*Hostile { return w.hostiles }

// Alive counts hostiles that are not destroyed.
func (w *World) Alive() int {
	n := 0
	for _, h := range w.hostiles {
		if !h.Destroyed {
			n++
		}
	}
	return n
}

// Overlap returns hostile handles within radius of center. Only
// LayerHostile and LayerDestructible carry entities in the sandbox.
func (w *World) Overlap(center geom.Vec3, radius float64, layer companion.Layer) []companion.EntityID {
	if layer&(companion.LayerHostile|companion.LayerDestructible) == 0 {
		return nil
	}
	var out []companion.EntityID
	for _, h := range w.hostiles {
		if h.Destroyed {
			continue
		}
		if geom.Dist(h.Pos, center) <= radius {
			out = append(out, h.ID)
		}
	}
	return out
}

// Occluded reports whether an obstacle blocks the segment.
func (w *World) Occluded(from, to geom.Vec3) bool {
	return !HasLineOfSight(from, to, w.Obstacles)
}

// Lookup resolves a handle.
func (w *World) Lookup(id companion.EntityID) (companion.Entity, bool) {
	h, ok := w.byID[id]
	if !ok {
		return companion.Entity{}, false
	}
	return companion.Entity{ID: h.ID, Position: h.Pos, Behavior: h.Behavior, Destroyed: h.Destroyed}, true
}

func (w *World) CanBeDamagedBy(id companion.EntityID, wc companion.WeaponClass) bool {
	h, ok := w.byID[id]
	if !ok || h.Destroyed {
		return false
	}
	return !(h.Immune && wc == companion.WeaponCompanion)
}

func (w *World) TakeDamage(id companion.EntityID, amount float64, _ companion.WeaponClass) {
	h, ok := w.byID[id]
	if !ok || h.Destroyed {
		return
	}
	h.HP -= amount
	if h.HP <= 0 {
		h.HP = 0
		h.Destroyed = true
		h.Behavior = companion.HostileIdle
		if w.OnDestroyed != nil {
			w.OnDestroyed(h)
		}
	}
}

// step advances hostile behaviour by dt against the player.
func (w *World) step(dt float64, p *Player) {
	w.now += dt
	for _, h := range w.hostiles {
		if h.Destroyed {
			continue
		}
		present := p.Present && p.HP > 0
		dist := geom.Dist(h.Pos, p.Pos)
		switch {
		case present && dist <= hostileReach:
			h.Behavior = companion.HostileAttack
			if w.now-h.lastStrike >= hostileCooldown {
				h.lastStrike = w.now
				p.takeHit(hostileDamage)
			}
		case present && dist <= w.Aggro:
			h.Behavior = companion.HostileChase
			w.moveToward(h, p.Pos, hostileReach*0.8, dt)
		case len(h.Patrol) > 0:
			h.Behavior = companion.HostilePatrol
			goal := h.Patrol[h.patrolIdx%len(h.Patrol)]
			if geom.Dist(h.Pos, goal) < 0.5 {
				h.patrolIdx++
			}
			w.moveToward(h, goal, 0, dt)
		default:
			h.Behavior = companion.HostileIdle
		}
	}
}

// moveToward steps h toward goal, stopping short by standoff.
func (w *World) moveToward(h *Hostile, goal geom.Vec3, standoff, dt float64) {
	to := goal.Sub(h.Pos).Flat()
	step := min(w.HostileSpeed*dt, to.Len()-standoff)
	if step <= 0 {
		return
	}
	h.Pos = w.Grid.ClearSegment(h.Pos, h.Pos.Add(to.Normalize().Scale(step)))
}
