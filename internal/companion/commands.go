package companion

import "github.com/Garsondee/Companion-Sense/internal/geom"

// Command is a high-level order issued by an external dispatcher.
type Command int

const (
	CommandFollow Command = iota
	CommandStay
	CommandAttack
	CommandDefend
	CommandMoveTo
	CommandScout
	CommandFlank
	CommandSupport
	CommandRetreat
	CommandAdvanced
	commandCount
)

var commandNames = [commandCount]string{
	"follow", "stay", "attack", "defend", "move_to",
	"scout", "flank", "support", "retreat", "advanced",
}

func (c Command) String() string {
	if c < 0 || c >= commandCount {
		return "unknown"
	}
	return commandNames[c]
}

// ParseCommand maps a command name to its Command.
func ParseCommand(s string) (Command, bool) {
	for c := Command(0); c < commandCount; c++ {
		if commandNames[c] == s {
			return c, true
		}
	}
	return 0, false
}

var requiredTier = [commandCount]Tier{
	CommandFollow:   1,
	CommandStay:     1,
	CommandAttack:   2,
	CommandDefend:   2,
	CommandMoveTo:   3,
	CommandScout:    3,
	CommandFlank:    4,
	CommandSupport:  4,
	CommandRetreat:  5,
	CommandAdvanced: 5,
}

// RequiredTier returns the competence a command needs. Unknown commands can
// never be executed.
func RequiredTier(c Command) Tier {
	if c < 0 || c >= commandCount {
		return MaxTier + 1
	}
	return requiredTier[c]
}

// CommandArgs carries the optional arguments of a command.
type CommandArgs struct {
	Position *geom.Vec3
	Target   EntityID
}

// At is shorthand for args with a destination.
func At(p geom.Vec3) CommandArgs { return CommandArgs{Position: &p} }

// On is shorthand for args with a target.
func On(id EntityID) CommandArgs { return CommandArgs{Target: id} }

// CanExecute reports whether the agent's current tier allows the command.
func (a *Agent) CanExecute(c Command) bool {
	return a.Tier() >= RequiredTier(c)
}

// AvailableCommands lists the commands the current tier allows, in
// declaration order.
func (a *Agent) AvailableCommands() []Command {
	var out []Command
	for c := Command(0); c < commandCount; c++ {
		if a.CanExecute(c) {
			out = append(out, c)
		}
	}
	return out
}

// Execute validates and applies a command. It returns false without touching
// any state when the tier is too low or a required argument is missing.
func (a *Agent) Execute(c Command, args CommandArgs) bool {
	if !a.CanExecute(c) {
		a.log.Debug("command rejected", "agent", a.ID, "command", c, "tier", a.Tier())
		return false
	}
	switch c {
	case CommandFollow:
		a.clearTarget()
		a.setState(StateFollow, "ordered: follow")
	case CommandStay:
		a.clearTarget()
		a.setState(StateIdle, "ordered: stay")
	case CommandSupport, CommandDefend:
		a.clearTarget()
		a.setState(StateSupport, "ordered: "+c.String())
	case CommandAttack, CommandFlank:
		if !a.validTarget(args.Target) {
			a.log.Debug("command missing target", "agent", a.ID, "command", c)
			return false
		}
		a.target = args.Target
		a.setState(StateCombat, "ordered: "+c.String())
		a.forceFlank = c == CommandFlank
	case CommandMoveTo:
		if args.Position == nil {
			a.log.Debug("command missing position", "agent", a.ID, "command", c)
			return false
		}
		a.clearTarget()
		a.setState(StateExplore, "ordered: move_to")
		a.exploreAnchor, a.hasExploreAnchor = *args.Position, true
		a.nav.SetDestination(*args.Position)
	case CommandScout:
		a.clearTarget()
		a.setState(StateExplore, "ordered: scout")
		a.hasExploreAnchor = false
		a.nav.ResetPath()
	case CommandRetreat:
		a.retreat()
	case CommandAdvanced:
		if a.OnAdvanced != nil {
			return a.OnAdvanced(a, args)
		}
	}
	return true
}

func (a *Agent) validTarget(id EntityID) bool {
	if id == NoEntity {
		return false
	}
	e, ok := a.world.Lookup(id)
	return ok && !e.Destroyed
}

// retreat breaks off from the current target, or the nearest hostile, and
// falls back toward the protectee.
func (a *Agent) retreat() {
	self := a.nav.Position()
	threat, ok := a.resolveTarget()
	if !ok {
		threat, ok = a.nearestHostile(self)
	}
	a.clearTarget()
	a.setState(StateFollow, "ordered: retreat")
	if ok {
		a.nav.SetDestination(RetreatPoint(self, threat.Position))
	}
}

func (a *Agent) nearestHostile(self geom.Vec3) (Entity, bool) {
	var best Entity
	found := false
	for _, e := range livingHostiles(a.world, self, a.params.BaseDetectionRange) {
		if !found || geom.Dist(self, e.Position) < geom.Dist(self, best.Position) {
			best, found = e, true
		}
	}
	return best, found
}
