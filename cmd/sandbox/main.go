package main

import (
	"flag"
	"log"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/Garsondee/Companion-Sense/internal/sandbox"
	"github.com/Garsondee/Companion-Sense/internal/tuning"
)

func main() {
	var scenario string
	var seed int64
	var configPath string

	flag.StringVar(&scenario, "scenario", "escort", "scenario name ("+strings.Join(sandbox.ScenarioNames(), ", ")+")")
	flag.Int64Var(&seed, "seed", 42, "RNG seed")
	flag.StringVar(&configPath, "config", "", "optional tuning.yaml")
	flag.Parse()

	tu, err := tuning.Resolve(configPath)
	if err != nil {
		log.Fatal(err)
	}
	sim, err := sandbox.NewScenario(scenario, sandbox.WithSeed(seed), sandbox.WithTuning(tu))
	if err != nil {
		log.Fatal(err)
	}

	v := NewViewer(sim)
	ebiten.SetWindowTitle("Companion Sense: " + scenario)
	ebiten.SetWindowSize(v.Layout(0, 0))
	if err := ebiten.RunGame(v); err != nil {
		log.Fatal(err)
	}
}
