package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/Garsondee/Companion-Sense/internal/identity"
	"github.com/Garsondee/Companion-Sense/internal/sandbox"
	"github.com/Garsondee/Companion-Sense/internal/tuning"
)

type companionResult struct {
	label      string
	role       string
	trustStart int
	trustEnd   int
	tierEnd    int
	hits       int
	finalState string
}

type runStats struct {
	runIndex int
	seed     int64

	firstSpawnTick   int
	firstCombatTick  int
	firstProtectTick int
	firstKillTick    int

	stateChanges int
	trustChanges int
	hits         int
	kills        int

	hostilesTotal   int
	hostilesAlive   int
	protecteeHealth float64

	companions []companionResult
	trustLog   []identity.TrustChange
	records    []*identity.Record
}

func main() {
	var runs int
	var ticks int
	var seedBase int64
	var seedStep int64
	var scenario string
	var configPath string
	var dbPath string
	var copyOut bool

	flag.IntVar(&runs, "runs", 5, "number of headless simulation runs")
	flag.IntVar(&ticks, "ticks", 1800, "ticks per run")
	flag.Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	flag.Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	flag.StringVar(&scenario, "scenario", "escort", "scenario name ("+strings.Join(sandbox.ScenarioNames(), ", ")+")")
	flag.StringVar(&configPath, "config", "", "optional tuning.yaml")
	flag.StringVar(&dbPath, "db", "", "optional sqlite file to persist final trust into")
	flag.BoolVar(&copyOut, "copy", false, "also copy the report to the clipboard")
	flag.Parse()

	if runs <= 0 {
		fmt.Println("error: -runs must be > 0")
		return
	}
	if ticks <= 0 {
		fmt.Println("error: -ticks must be > 0")
		return
	}
	tu, err := tuning.Resolve(configPath)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Headless Companion Report ===\n")
	fmt.Fprintf(&sb, "scenario=%s runs=%d ticks=%d seed_base=%d seed_step=%d\n\n", scenario, runs, ticks, seedBase, seedStep)

	all := make([]runStats, 0, runs)
	for i := 0; i < runs; i++ {
		seed := seedBase + int64(i)*seedStep
		stats, err := runScenario(scenario, tu, i+1, seed, ticks)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		all = append(all, stats)
		printRun(&sb, stats)
	}
	printAggregate(&sb, all)

	if dbPath != "" {
		if err := persist(context.Background(), dbPath, all[len(all)-1]); err != nil {
			fmt.Printf("error: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(&sb, "\npersisted final trust of run %d to %s\n", len(all), dbPath)
	}

	fmt.Print(sb.String())
	if copyOut {
		if err := clipboard.WriteAll(sb.String()); err != nil {
			fmt.Printf("clipboard: %v\n", err)
		}
	}
}

func runScenario(name string, tu tuning.Tuning, runIndex int, seed int64, ticks int) (runStats, error) {
	s, err := sandbox.NewScenario(name, sandbox.WithSeed(seed), sandbox.WithTuning(tu))
	if err != nil {
		return runStats{}, err
	}

	rs := runStats{runIndex: runIndex, seed: seed}
	start := map[string]int{}
	for _, c := range s.Companions {
		start[c.Label] = c.Record.Trust()
		prev := c.Record.OnTrustChange
		c.Record.OnTrustChange = func(tc identity.TrustChange) {
			if prev != nil {
				prev(tc)
			}
			rs.trustLog = append(rs.trustLog, tc)
		}
		rs.records = append(rs.records, c.Record)
	}

	s.RunTicks(ticks)

	sl := s.SimLog
	rs.firstSpawnTick = sl.FirstTick("state", "change", "protectee located")
	rs.firstCombatTick = sl.FirstTick("state", "change", "→ combat")
	rs.firstProtectTick = sl.FirstTick("state", "change", "(protecting)")
	rs.firstKillTick = sl.FirstTick("world", "hostile_destroyed", "")
	rs.stateChanges = sl.CountCategory("state", "change")
	rs.trustChanges = sl.CountCategory("trust", "change")
	rs.hits = sl.CountCategory("combat", "hit")
	rs.kills = sl.CountCategory("world", "hostile_destroyed")
	rs.hostilesTotal = len(s.World.Hostiles())
	rs.hostilesAlive = s.World.Alive()
	rs.protecteeHealth = s.Player.HealthFraction()

	for _, c := range s.Companions {
		rs.companions = append(rs.companions, companionResult{
			label:      c.Label,
			role:       c.Record.Role().String(),
			trustStart: start[c.Label],
			trustEnd:   c.Record.Trust(),
			tierEnd:    int(c.Record.Tier()),
			hits:       sl.Count(c.Label, "combat", "hit"),
			finalState: c.Agent.State().String(),
		})
	}
	return rs, nil
}

// detectOutcome classifies a finished run.
func detectOutcome(rs runStats) (string, string) {
	switch {
	case rs.protecteeHealth <= 0:
		return "protectee_down", fmt.Sprintf("protectee_down hostiles_left=%d", rs.hostilesAlive)
	case rs.hostilesTotal > 0 && rs.hostilesAlive == 0:
		return "cleared", fmt.Sprintf("all_hostiles_destroyed protectee_health=%.0f%%", rs.protecteeHealth*100)
	case rs.firstCombatTick < 0:
		return "no_contact", "no_engagement_recorded"
	case rs.protecteeHealth >= 0.5:
		return "contained", fmt.Sprintf("hostiles_left=%d protectee_health=%.0f%%", rs.hostilesAlive, rs.protecteeHealth*100)
	default:
		return "pressed", fmt.Sprintf("hostiles_left=%d protectee_health=%.0f%%", rs.hostilesAlive, rs.protecteeHealth*100)
	}
}

func printRun(w io.Writer, rs runStats) {
	outcome, reason := detectOutcome(rs)
	fmt.Fprintf(w, "--- Run %d (seed=%d) ---\n", rs.runIndex, rs.seed)
	fmt.Fprintf(w, "outcome=%s (%s)\n", outcome, reason)
	fmt.Fprintf(w, "phase_markers: spawn=%d first_combat=%d first_protect=%d first_kill=%d\n",
		rs.firstSpawnTick, rs.firstCombatTick, rs.firstProtectTick, rs.firstKillTick)
	fmt.Fprintf(w, "event_totals: state_change=%d trust_change=%d hits=%d kills=%d/%d\n",
		rs.stateChanges, rs.trustChanges, rs.hits, rs.kills, rs.hostilesTotal)
	for _, c := range rs.companions {
		fmt.Fprintf(w, "  %s %-8s trust %d→%d (%+d) tier=%d hits=%d state=%s\n",
			c.label, c.role, c.trustStart, c.trustEnd, c.trustEnd-c.trustStart, c.tierEnd, c.hits, c.finalState)
	}
	fmt.Fprintln(w)
}

func printAggregate(w io.Writer, all []runStats) {
	totalState := 0
	totalTrust := 0
	totalHits := 0
	totalKills := 0
	totalHostiles := 0
	healthSum := 0.0

	spawnTicks := make([]int, 0, len(all))
	combatTicks := make([]int, 0, len(all))
	protectTicks := make([]int, 0, len(all))
	killTicks := make([]int, 0, len(all))
	outcomes := map[string]int{}

	type companionAgg struct {
		role     string
		gainSum  int
		count    int
		finalSum int
		states   map[string]int
	}
	aggs := map[string]*companionAgg{}

	for _, rs := range all {
		totalState += rs.stateChanges
		totalTrust += rs.trustChanges
		totalHits += rs.hits
		totalKills += rs.kills
		totalHostiles += rs.hostilesTotal
		healthSum += rs.protecteeHealth
		if rs.firstSpawnTick >= 0 {
			spawnTicks = append(spawnTicks, rs.firstSpawnTick)
		}
		if rs.firstCombatTick >= 0 {
			combatTicks = append(combatTicks, rs.firstCombatTick)
		}
		if rs.firstProtectTick >= 0 {
			protectTicks = append(protectTicks, rs.firstProtectTick)
		}
		if rs.firstKillTick >= 0 {
			killTicks = append(killTicks, rs.firstKillTick)
		}
		outcome, _ := detectOutcome(rs)
		outcomes[outcome]++

		for _, c := range rs.companions {
			ag, ok := aggs[c.label]
			if !ok {
				ag = &companionAgg{role: c.role, states: map[string]int{}}
				aggs[c.label] = ag
			}
			ag.gainSum += c.trustEnd - c.trustStart
			ag.finalSum += c.trustEnd
			ag.count++
			ag.states[c.finalState]++
		}
	}

	fmt.Fprintln(w, "=== Aggregate ===")
	fmt.Fprintf(w, "runs=%d outcomes=[%s]\n", len(all), joinCounts(outcomes))
	fmt.Fprintf(w, "avg_events_per_run: state_change=%.1f trust_change=%.1f hits=%.1f kills=%.1f\n",
		avg(totalState, len(all)), avg(totalTrust, len(all)), avg(totalHits, len(all)), avg(totalKills, len(all)))
	fmt.Fprintf(w, "kill_rate=%.0f%% avg_protectee_health=%.0f%%\n",
		avg(totalKills*100, totalHostiles), healthSum/float64(max(len(all), 1))*100)
	fmt.Fprintf(w, "phase_marker_avg_ticks: spawn=%s first_combat=%s first_protect=%s first_kill=%s\n",
		avgTickString(spawnTicks), avgTickString(combatTicks), avgTickString(protectTicks), avgTickString(killTicks))

	fmt.Fprintln(w, "\n=== Companion Trust ===")
	labels := make([]string, 0, len(aggs))
	for label := range aggs {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		ag := aggs[label]
		fmt.Fprintf(w, "  %s %-8s avg_gain=%+.1f avg_final=%.1f usual_end=%s\n",
			label, ag.role, avg(ag.gainSum, ag.count), avg(ag.finalSum, ag.count), mostCommon(ag.states))
	}
}

// persist writes the companions of rs and their trust history to dbPath.
func persist(ctx context.Context, dbPath string, rs runStats) error {
	store, err := identity.OpenSQLite(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, r := range rs.records {
		if err := store.Save(ctx, r); err != nil {
			return err
		}
	}
	for _, tc := range rs.trustLog {
		if err := store.AppendTrustEvent(ctx, tc); err != nil {
			return err
		}
	}
	return nil
}

func avg(sum int, n int) float64 {
	if n <= 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

func avgTickString(vals []int) string {
	if len(vals) == 0 {
		return "n/a"
	}
	sum := 0
	for _, v := range vals {
		sum += v
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(vals)))
}

// mostCommon returns the key with the highest count, breaking ties by name.
func mostCommon(counts map[string]int) string {
	best := ""
	bestN := 0
	for k, v := range counts {
		if v > bestN || (v == bestN && k < best) {
			best = k
			bestN = v
		}
	}
	return best
}

func joinCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	return strings.Join(parts, " ")
}
