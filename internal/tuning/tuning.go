// Package tuning loads companion and host settings from YAML with
// COMPANION_* environment overrides.
package tuning

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "COMPANION_"

type Tuning struct {
	Agent AgentTuning `yaml:"agent" envPrefix:"AGENT_"`
	Host  HostTuning  `yaml:"host" envPrefix:"HOST_"`
}

// AgentTuning mirrors companion.Params.
type AgentTuning struct {
	DetectionRange         float64 `yaml:"detection_range" env:"DETECTION_RANGE"`
	DetectionAngle         float64 `yaml:"detection_angle" env:"DETECTION_ANGLE"`
	EyeHeight              float64 `yaml:"eye_height" env:"EYE_HEIGHT"`
	FollowDistance         float64 `yaml:"follow_distance" env:"FOLLOW_DISTANCE"`
	ExploreRadius          float64 `yaml:"explore_radius" env:"EXPLORE_RADIUS"`
	SampleRadius           float64 `yaml:"sample_radius" env:"SAMPLE_RADIUS"`
	ArriveDistance         float64 `yaml:"arrive_distance" env:"ARRIVE_DISTANCE"`
	WalkSpeed              float64 `yaml:"walk_speed" env:"WALK_SPEED"`
	RunSpeed               float64 `yaml:"run_speed" env:"RUN_SPEED"`
	CrouchSpeed            float64 `yaml:"crouch_speed" env:"CROUCH_SPEED"`
	CombatSpeed            float64 `yaml:"combat_speed" env:"COMBAT_SPEED"`
	AttackCooldown         float64 `yaml:"attack_cooldown" env:"ATTACK_COOLDOWN"`
	BaseDamage             float64 `yaml:"base_damage" env:"BASE_DAMAGE"`
	DecisionInterval       float64 `yaml:"decision_interval" env:"DECISION_INTERVAL"`
	DamageOnAnimationEvent bool    `yaml:"damage_on_animation_event" env:"DAMAGE_ON_ANIMATION_EVENT"`
}

// HostTuning configures the sandbox and daemon hosts.
type HostTuning struct {
	TickRateHz   int           `yaml:"tick_rate_hz" env:"TICK_RATE_HZ"`
	HostileAggro float64       `yaml:"hostile_aggro" env:"HOSTILE_AGGRO"`
	HostileSpeed float64       `yaml:"hostile_speed" env:"HOSTILE_SPEED"`
	HostileHP    float64       `yaml:"hostile_hp" env:"HOSTILE_HP"`
	ListenAddr   string        `yaml:"listen_addr" env:"LISTEN_ADDR"`
	DBPath       string        `yaml:"db_path" env:"DB_PATH"`
	SaveEvery    time.Duration `yaml:"save_every" env:"SAVE_EVERY"`
}

// Defaults returns the built-in tuning.
func Defaults() Tuning {
	p := companion.DefaultParams()
	return Tuning{
		Agent: FromParams(p),
		Host: HostTuning{
			TickRateHz:   30,
			HostileAggro: 12,
			HostileSpeed: 2.5,
			HostileHP:    60,
			ListenAddr:   ":8090",
			DBPath:       "data/companions.db",
			SaveEvery:    10 * time.Second,
		},
	}
}

// FromParams converts engine params into their tuning form.
func FromParams(p companion.Params) AgentTuning {
	return AgentTuning{
		DetectionRange:         p.BaseDetectionRange,
		DetectionAngle:         p.BaseDetectionAngle,
		EyeHeight:              p.EyeHeight,
		FollowDistance:         p.FollowDistance,
		ExploreRadius:          p.ExploreRadius,
		SampleRadius:           p.SampleRadius,
		ArriveDistance:         p.ArriveDistance,
		WalkSpeed:              p.WalkSpeed,
		RunSpeed:               p.RunSpeed,
		CrouchSpeed:            p.CrouchSpeed,
		CombatSpeed:            p.CombatSpeed,
		AttackCooldown:         p.AttackCooldown,
		BaseDamage:             p.BaseDamage,
		DecisionInterval:       p.BaseDecisionInterval,
		DamageOnAnimationEvent: p.DamageOnAnimationEvent,
	}
}

// Params converts the agent section into engine params.
func (a AgentTuning) Params() companion.Params {
	return companion.Params{
		BaseDetectionRange:     a.DetectionRange,
		BaseDetectionAngle:     a.DetectionAngle,
		EyeHeight:              a.EyeHeight,
		FollowDistance:         a.FollowDistance,
		ExploreRadius:          a.ExploreRadius,
		SampleRadius:           a.SampleRadius,
		ArriveDistance:         a.ArriveDistance,
		WalkSpeed:              a.WalkSpeed,
		RunSpeed:               a.RunSpeed,
		CrouchSpeed:            a.CrouchSpeed,
		CombatSpeed:            a.CombatSpeed,
		AttackCooldown:         a.AttackCooldown,
		BaseDamage:             a.BaseDamage,
		BaseDecisionInterval:   a.DecisionInterval,
		DamageOnAnimationEvent: a.DamageOnAnimationEvent,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// ApplyEnv overlays COMPANION_* environment variables. Unset variables leave
// the current value untouched.
func (t *Tuning) ApplyEnv() error {
	if err := env.ParseWithOptions(t, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Resolve loads path (when non-empty), applies env overrides and validates.
func Resolve(path string) (Tuning, error) {
	t := Defaults()
	if path != "" {
		var err error
		if t, err = Load(path); err != nil {
			return t, err
		}
	}
	if err := t.ApplyEnv(); err != nil {
		return t, err
	}
	return t, t.Validate()
}

// Validate rejects settings the engine cannot run with.
func (t Tuning) Validate() error {
	a := t.Agent
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("agent.%s must be > 0, got %v", name, v))
		}
	}
	positive("detection_range", a.DetectionRange)
	positive("follow_distance", a.FollowDistance)
	positive("explore_radius", a.ExploreRadius)
	positive("sample_radius", a.SampleRadius)
	positive("walk_speed", a.WalkSpeed)
	positive("run_speed", a.RunSpeed)
	positive("crouch_speed", a.CrouchSpeed)
	positive("combat_speed", a.CombatSpeed)
	positive("decision_interval", a.DecisionInterval)
	if a.DetectionAngle <= 0 || a.DetectionAngle > 360 {
		errs = append(errs, fmt.Errorf("agent.detection_angle must be in (0,360], got %v", a.DetectionAngle))
	}
	if a.CrouchSpeed > a.WalkSpeed || a.WalkSpeed > a.RunSpeed {
		errs = append(errs, fmt.Errorf("agent speeds must satisfy crouch <= walk <= run, got %v/%v/%v", a.CrouchSpeed, a.WalkSpeed, a.RunSpeed))
	}
	if a.AttackCooldown < 0 || a.BaseDamage < 0 {
		errs = append(errs, errors.New("agent.attack_cooldown and agent.base_damage must be >= 0"))
	}
	if t.Host.TickRateHz <= 0 {
		errs = append(errs, fmt.Errorf("host.tick_rate_hz must be > 0, got %d", t.Host.TickRateHz))
	}
	if t.Host.SaveEvery <= 0 {
		errs = append(errs, fmt.Errorf("host.save_every must be > 0, got %s", t.Host.SaveEvery))
	}
	return errors.Join(errs...)
}
