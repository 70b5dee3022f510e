package sandbox

import (
	"github.com/Garsondee/Companion-Sense/internal/companion"
	"github.com/Garsondee/Companion-Sense/internal/geom"
)

const (
	arriveEpsilon = 0.05
	attackWindup  = 0.3
	dodgeDuration = 0.4
)

// Avatar is the sandbox navigation service for one companion body. It steers
// straight toward its destination and stops at the first blocked cell.
type Avatar struct {
	grid    *NavGrid
	pos     geom.Vec3
	fwd     geom.Vec3
	speed   float64
	dest    geom.Vec3
	hasPath bool
}

var _ companion.Navigator = (*Avatar)(nil)

// NewAvatar places an avatar at pos facing fwd.
func NewAvatar(grid *NavGrid, pos, fwd geom.Vec3) *Avatar {
	return &Avatar{grid: grid, pos: pos, fwd: fwd.Flat().Normalize()}
}

func (av *Avatar) Position() geom.Vec3 { return av.pos }
func (av *Avatar) Forward() geom.Vec3  { return av.fwd }
func (av *Avatar) HasPath() bool       { return av.hasPath }
func (av *Avatar) SetSpeed(v float64)  { av.speed = v }
func (av *Avatar) ResetPath()          { av.hasPath = false }
func (av *Avatar) Speed() float64      { return av.speed }

// Destination returns the current steering goal, if any.
func (av *Avatar) Destination() (geom.Vec3, bool) { return av.dest, av.hasPath }

func (av *Avatar) SetDestination(p geom.Vec3) {
	av.dest = p
	av.hasPath = geom.Dist(av.pos, p) > arriveEpsilon
}

func (av *Avatar) Warp(p geom.Vec3) {
	av.pos = p
	av.hasPath = false
}

func (av *Avatar) SamplePosition(p geom.Vec3, radius float64) (geom.Vec3, bool) {
	return av.grid.SamplePosition(p, radius)
}

func (av *Avatar) RemainingDistance() float64 {
	if !av.hasPath {
		return 0
	}
	return geom.Dist(av.pos, av.dest)
}

func (av *Avatar) FaceTowards(p geom.Vec3) {
	if d := p.Sub(av.pos).Flat(); !d.IsZero() {
		av.fwd = d.Normalize()
	}
}

// move advances the avatar by dt. A blocked step drops the path.
func (av *Avatar) move(dt float64) {
	if !av.hasPath {
		return
	}
	to := av.dest.Sub(av.pos).Flat()
	step := av.speed * dt
	if to.Len() <= step {
		av.pos = av.grid.ClearSegment(av.pos, av.dest)
		av.hasPath = false
		return
	}
	dir := to.Normalize()
	av.fwd = dir
	next := av.grid.ClearSegment(av.pos, av.pos.Add(dir.Scale(step)))
	if geom.Dist(next, av.pos) < 1e-9 {
		av.hasPath = false
	}
	av.pos = next
}

// Body is the sandbox animation sink. It times dodges and attack wind-ups.
type Body struct {
	State     companion.State
	Running   bool
	Crouching bool
	Attacks   int
	Dodges    int

	// OnStrike fires when an attack wind-up completes.
	OnStrike func()

	dodgeLeft  float64
	windupLeft float64
}

var _ companion.Animator = (*Body)(nil)

func (b *Body) TriggerAttack() {
	b.Attacks++
	b.windupLeft = attackWindup
}

func (b *Body) TriggerDodge() {
	b.Dodges++
	b.dodgeLeft = dodgeDuration
}

func (b *Body) SetMovementState(s companion.State, running, crouching bool) {
	b.State, b.Running, b.Crouching = s, running, crouching
}

func (b *Body) IsDodging() bool { return b.dodgeLeft > 0 }

func (b *Body) step(dt float64) {
	b.dodgeLeft = max(0, b.dodgeLeft-dt)
	if b.windupLeft <= 0 {
		return
	}
	b.windupLeft -= dt
	if b.windupLeft <= 0 && b.OnStrike != nil {
		b.OnStrike()
	}
}
