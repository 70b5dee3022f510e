package companion

import (
	"github.com/Garsondee/Companion-Sense/internal/geom"
)

// --- Test doubles ---

type stubNav struct {
	pos, fwd   geom.Vec3
	dest       geom.Vec3
	hasPath    bool
	speed      float64
	faced      geom.Vec3
	resets     int
	blocked    func(geom.Vec3) bool // nil = everything navigable
	setDestLog []geom.Vec3
}

func newStubNav(pos geom.Vec3) *stubNav {
	return &stubNav{pos: pos, fwd: geom.V(1, 0, 0)}
}

func (n *stubNav) Position() geom.Vec3 { return n.pos }
func (n *stubNav) Forward() geom.Vec3  { return n.fwd }
func (n *stubNav) SetDestination(p geom.Vec3) {
	n.dest, n.hasPath = p, true
	n.setDestLog = append(n.setDestLog, p)
}
func (n *stubNav) Warp(p geom.Vec3) { n.pos = p }
func (n *stubNav) SamplePosition(p geom.Vec3, _ float64) (geom.Vec3, bool) {
	if n.blocked != nil && n.blocked(p) {
		return geom.Vec3{}, false
	}
	return p, true
}
func (n *stubNav) HasPath() bool { return n.hasPath }
func (n *stubNav) RemainingDistance() float64 {
	if !n.hasPath {
		return 0
	}
	return geom.Dist(n.pos, n.dest)
}

func (n *stubNav) SetSpeed(v float64)      { n.speed = v }
func (n *stubNav) ResetPath()              { n.hasPath = false; n.resets++ }
func (n *stubNav) FaceTowards(p geom.Vec3) { n.faced = p }

type stubIdentity struct {
	trust int
	role  Role
	busy  bool
}

func (i *stubIdentity) Trust() int { return i.trust }
func (i *stubIdentity) ChangeTrust(d int) {
	i.trust = int(geom.Clamp(float64(i.trust+d), 0, 100))
}
func (i *stubIdentity) Role() Role        { return i.role }
func (i *stubIdentity) IsAvailable() bool { return !i.busy }

type stubProtectee struct {
	pos, fwd  geom.Vec3
	health    float64
	status    MovementStatus
	crouching bool
	missing   bool
}

func (p *stubProtectee) Position() geom.Vec3            { return p.pos }
func (p *stubProtectee) Forward() geom.Vec3             { return p.fwd }
func (p *stubProtectee) HealthFraction() float64        { return p.health }
func (p *stubProtectee) MovementStatus() MovementStatus { return p.status }
func (p *stubProtectee) IsCrouching() bool              { return p.crouching }
func (p *stubProtectee) FindProtectee() (Protectee, bool) {
	if p.missing {
		return nil, false
	}
	return p, true
}

type stubWorld struct {
	entities map[EntityID]*Entity
	order    []EntityID
	walls    func(from, to geom.Vec3) bool
	immune   map[EntityID]bool
	damage   map[EntityID]float64
}

func newStubWorld() *stubWorld {
	return &stubWorld{
		entities: map[EntityID]*Entity{},
		immune:   map[EntityID]bool{},
		damage:   map[EntityID]float64{},
	}
}

func (w *stubWorld) addHostile(id EntityID, pos geom.Vec3, b HostileBehavior) {
	w.entities[id] = &Entity{ID: id, Position: pos, Behavior: b}
	w.order = append(w.order, id)
}

func (w *stubWorld) Overlap(center geom.Vec3, radius float64, layer Layer) []EntityID {
	if layer != LayerHostile {
		return nil
	}
	var out []EntityID
	for _, id := range w.order {
		e := w.entities[id]
		if e != nil && geom.Dist(e.Position, center) <= radius {
			out = append(out, id)
		}
	}
	return out
}

func (w *stubWorld) Occluded(from, to geom.Vec3) bool {
	return w.walls != nil && w.walls(from, to)
}

func (w *stubWorld) Lookup(id EntityID) (Entity, bool) {
	e, ok := w.entities[id]
	if !ok {
		return Entity{}, false
	}
	return *e, true
}

func (w *stubWorld) CanBeDamagedBy(id EntityID, wc WeaponClass) bool {
	return wc == WeaponCompanion && !w.immune[id]
}

func (w *stubWorld) TakeDamage(id EntityID, amount float64, _ WeaponClass) {
	w.damage[id] += amount
}

type stubAnim struct {
	attacks, dodges int
	dodging         bool
	lastRun         bool
	lastCrouch      bool
}

func (s *stubAnim) TriggerAttack() { s.attacks++ }
func (s *stubAnim) TriggerDodge()  { s.dodges++ }
func (s *stubAnim) SetMovementState(_ State, run, crouch bool) {
	s.lastRun, s.lastCrouch = run, crouch
}
func (s *stubAnim) IsDodging() bool { return s.dodging }

// seqRand replays draws in order and then repeats the last one.
type seqRand struct {
	vals []float64
	i    int
}

func (r *seqRand) Float64() float64 {
	if len(r.vals) == 0 {
		return 0.99
	}
	v := r.vals[r.i]
	if r.i < len(r.vals)-1 {
		r.i++
	}
	return v
}

type rig struct {
	agent *Agent
	nav   *stubNav
	id    *stubIdentity
	prot  *stubProtectee
	world *stubWorld
	anim  *stubAnim
	rng   *seqRand
	log   []StateChange
}

// newRig builds an agent at the origin facing +X with the protectee one unit
// behind it, already spawned into Follow.
func newRig(trust int, role Role) *rig {
	r := &rig{
		nav:   newStubNav(geom.V(0, 0, 0)),
		id:    &stubIdentity{trust: trust, role: role},
		prot:  &stubProtectee{pos: geom.V(-1, 0, 0), fwd: geom.V(1, 0, 0), health: 1},
		world: newStubWorld(),
		anim:  &stubAnim{},
		rng:   &seqRand{vals: []float64{0.99}},
	}
	r.agent = NewAgent(1, Deps{
		Nav:       r.nav,
		Identity:  r.id,
		Protectee: r.prot,
		World:     r.world,
		Animator:  r.anim,
		Rand:      r.rng,
	}, DefaultParams(), AllCapabilities())
	r.agent.OnStateChange(func(ev StateChange) { r.log = append(r.log, ev) })
	r.agent.Tick(0)
	return r
}
