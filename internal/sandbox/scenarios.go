package sandbox

import (
	"fmt"
	"sort"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

type scenario struct {
	opts  func() []SimOption
	setup func(*Sim)
}

// scenarios are the named setups shared by the report runner, the viewer and
// the daemon.
var scenarios = map[string]scenario{
	"escort": {opts: func() []SimOption {
		return []SimOption{
			WithObstacle(12, 8, 2, 8, 3),
			WithObstacle(24, 22, 6, 2, 3),
			WithProtectee(4, 20),
			WithProtecteeRoute([2]float64{18, 20}, [2]float64{30, 18}, [2]float64{36, 30}),
			WithCompanion(1, 2, 18, 35, companion.RoleFighter),
			WithCompanion(2, 2, 22, 70, companion.RoleScout),
			WithHostile(101, 20, 26),
			WithHostile(102, 28, 12),
			WithHostile(103, 34, 34),
		}
	}},
	"ambush": {opts: func() []SimOption {
		return []SimOption{
			WithObstacle(14, 14, 2, 2, 3),
			WithObstacle(24, 24, 2, 2, 3),
			WithProtectee(20, 20),
			WithCompanion(1, 18, 19, 50, companion.RoleFighter),
			WithCompanion(2, 22, 19, 75, companion.RoleEngineer),
			WithCompanion(3, 20, 17, 95, companion.RoleScout),
			WithHostile(101, 30, 20),
			WithHostile(102, 10, 20),
			WithHostile(103, 20, 30),
			WithHostile(104, 28, 8),
		}
	}},
	"wounded": {opts: func() []SimOption {
		return []SimOption{
			WithProtectee(20, 20),
			WithCompanion(1, 17, 20, 90, companion.RoleMedic),
			WithHostile(101, 27, 22),
			WithHostile(102, 14, 27),
		}
	}, setup: func(s *Sim) { s.Player.HP = 25 }},
	"squad": {opts: func() []SimOption {
		return []SimOption{
			WithProtectee(10, 20),
			WithCompanion(1, 8, 18, 92, companion.RoleFighter),
			WithCompanion(2, 8, 22, 88, companion.RoleFighter),
			WithCompanion(3, 12, 18, 96, companion.RoleScout),
			WithCompanion(4, 12, 22, 85, companion.RoleEngineer),
			WithHostile(101, 20, 20),
			WithHostile(102, 21, 23),
		}
	}},
}

// ScenarioNames lists the built-in scenarios in sorted order.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewScenario builds a named scenario. Extra options are applied after the
// scenario's own, so they can override tuning, seed or add entities.
func NewScenario(name string, extra ...SimOption) (*Sim, error) {
	sc, ok := scenarios[name]
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (supported: %v)", name, ScenarioNames())
	}
	s := NewSim(append(sc.opts(), extra...)...)
	if sc.setup != nil {
		sc.setup(s)
	}
	return s, nil
}
