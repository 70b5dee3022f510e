package tuning

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestDefaults_RoundTripParams(t *testing.T) {
	d := Defaults()
	if err := d.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if d.Agent.Params() != companion.DefaultParams() {
		t.Fatal("default agent tuning should convert back to the default params")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := writeYAML(t, `
agent:
  follow_distance: 4.5
  damage_on_animation_event: true
host:
  tick_rate_hz: 60
  save_every: 2s
`)
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Agent.FollowDistance != 4.5 || !got.Agent.DamageOnAnimationEvent {
		t.Fatalf("file values not applied: %+v", got.Agent)
	}
	if got.Agent.RunSpeed != Defaults().Agent.RunSpeed {
		t.Fatalf("missing key should keep default, got %v", got.Agent.RunSpeed)
	}
	if got.Host.TickRateHz != 60 || got.Host.SaveEvery != 2*time.Second {
		t.Fatalf("host values not applied: %+v", got.Host)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeYAML(t, "agent: [unterminated")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "tuning.yaml") {
		t.Fatalf("expected wrapped yaml error, got %v", err)
	}
}

func TestResolve_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "agent:\n  detection_range: 20\n")
	t.Setenv("COMPANION_AGENT_DETECTION_RANGE", "25")
	t.Setenv("COMPANION_HOST_LISTEN_ADDR", "127.0.0.1:9000")
	got, err := Resolve(path)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Agent.DetectionRange != 25 {
		t.Fatalf("env should win over file, got %v", got.Agent.DetectionRange)
	}
	if got.Host.ListenAddr != "127.0.0.1:9000" {
		t.Fatalf("expected env listen addr, got %q", got.Host.ListenAddr)
	}
}

func TestValidate_RejectsNonsense(t *testing.T) {
	tu := Defaults()
	tu.Agent.DetectionAngle = 400
	tu.Agent.WalkSpeed = 0
	tu.Host.TickRateHz = 0
	err := tu.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"detection_angle", "walk_speed", "tick_rate_hz"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err, want)
		}
	}
}

func TestValidate_SpeedOrderAndSaveInterval(t *testing.T) {
	tu := Defaults()
	tu.Agent.CrouchSpeed = tu.Agent.RunSpeed + 1
	tu.Host.SaveEvery = 0
	err := tu.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, want := range []string{"crouch <= walk <= run", "save_every"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q should mention %s", err, want)
		}
	}
}
