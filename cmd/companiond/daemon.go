package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Garsondee/Companion-Sense/internal/companion"
	"github.com/Garsondee/Companion-Sense/internal/geom"
	"github.com/Garsondee/Companion-Sense/internal/identity"
	"github.com/Garsondee/Companion-Sense/internal/sandbox"
	"github.com/Garsondee/Companion-Sense/internal/stream"
	"github.com/Garsondee/Companion-Sense/internal/tuning"
)

// daemon runs one scenario in real time, persists companion identities and
// streams decisions to websocket observers.
type daemon struct {
	log   *slog.Logger
	tu    tuning.Tuning
	store *identity.SQLStore
	hub   *stream.Hub

	mu      sync.Mutex // guards sim and pending
	sim     *sandbox.Sim
	pending []identity.TrustChange

	flushMu sync.Mutex // one flush at a time keeps trust events in order
}

func newDaemon(ctx context.Context, tu tuning.Tuning, scenario string, seed int64, store *identity.SQLStore, logger *slog.Logger) (*daemon, error) {
	saved, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load companions: %w", err)
	}
	byID := make(map[companion.AgentID]*identity.Record, len(saved))
	for _, r := range saved {
		byID[r.ID] = r
	}

	d := &daemon{
		log:   logger,
		tu:    tu,
		store: store,
		hub:   stream.NewHub(logger.With("component", "stream")),
	}
	sim, err := sandbox.NewScenario(scenario,
		sandbox.WithSeed(seed),
		sandbox.WithTuning(tu),
		sandbox.WithLogger(logger.With("component", "engine")),
		sandbox.WithRecordSource(func(id companion.AgentID) (*identity.Record, bool) {
			r, ok := byID[id]
			return r, ok
		}),
	)
	if err != nil {
		return nil, err
	}
	d.sim = sim
	sim.OnStateChange(d.hub.PublishState)
	for _, c := range sim.Companions {
		d.watchTrust(c.Record)
		if _, ok := byID[c.ID]; ok {
			logger.Info("companion restored", "companion", c.Label, "trust", c.Record.Trust(), "role", c.Record.Role())
		}
	}
	return d, nil
}

// watchTrust queues trust changes for persistence and forwards them to
// observers. Callers hold d.mu, since trust only moves inside Step or Command.
func (d *daemon) watchTrust(r *identity.Record) {
	prev := r.OnTrustChange
	r.OnTrustChange = func(tc identity.TrustChange) {
		if prev != nil {
			prev(tc)
		}
		d.pending = append(d.pending, tc)
		trust := tc.Trust
		_ = d.hub.Publish(stream.Event{
			Type:   "trust_change",
			Agent:  int(tc.Companion),
			Reason: tc.Reason,
			Time:   d.sim.Time(),
			Trust:  &trust,
		})
	}
}

// run steps the sim at the tuned rate and saves periodically until ctx ends.
// A final save runs on the way out.
func (d *daemon) run(ctx context.Context) error {
	step := time.Second / time.Duration(d.tu.Host.TickRateHz)
	ticker := time.NewTicker(step)
	defer ticker.Stop()
	save := time.NewTicker(d.tu.Host.SaveEvery)
	defer save.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return d.flush(flushCtx)
		case <-ticker.C:
			d.mu.Lock()
			d.sim.Step()
			d.mu.Unlock()
		case <-save.C:
			if err := d.flush(ctx); err != nil {
				d.log.Error("save failed", "err", err)
			}
		}
	}
}

// flush writes every companion record and the queued trust events. Records
// are copied under d.mu so the sim can keep stepping while sqlite writes.
func (d *daemon) flush(ctx context.Context) error {
	d.flushMu.Lock()
	defer d.flushMu.Unlock()

	d.mu.Lock()
	events := d.pending
	d.pending = nil
	records := make([]*identity.Record, len(d.sim.Companions))
	for i, c := range d.sim.Companions {
		records[i] = c.Record.Clone()
	}
	d.mu.Unlock()

	for _, r := range records {
		if err := d.store.Save(ctx, r); err != nil {
			d.requeue(events)
			return fmt.Errorf("save %d: %w", r.ID, err)
		}
	}
	for i, ev := range events {
		if err := d.store.AppendTrustEvent(ctx, ev); err != nil {
			d.requeue(events[i:])
			return fmt.Errorf("append trust event: %w", err)
		}
	}
	if len(events) > 0 {
		d.log.Debug("saved", "companions", len(records), "trust_events", len(events))
	}
	return nil
}

// requeue puts unwritten events back ahead of anything queued since.
func (d *daemon) requeue(events []identity.TrustChange) {
	if len(events) == 0 {
		return
	}
	d.mu.Lock()
	d.pending = append(append([]identity.TrustChange(nil), events...), d.pending...)
	d.mu.Unlock()
}

// --- HTTP ---

type commandRequest struct {
	Command string      `json:"command"`
	Target  uint64      `json:"target,omitempty"`
	Point   *[2]float64 `json:"point,omitempty"`
}

type commandResponse struct {
	Accepted  bool     `json:"accepted"`
	State     string   `json:"state"`
	Tier      int      `json:"tier"`
	Available []string `json:"available"`
}

type companionView struct {
	ID     int        `json:"id"`
	Label  string     `json:"label"`
	State  string     `json:"state"`
	Trust  int        `json:"trust"`
	Tier   int        `json:"tier"`
	Target uint64     `json:"target,omitempty"`
	Pos    [2]float64 `json:"pos"`
}

type snapshotView struct {
	Tick       int             `json:"tick"`
	Protectee  [2]float64      `json:"protectee"`
	Alive      int             `json:"hostiles_alive"`
	Companions []companionView `json:"companions"`
}

func (d *daemon) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /snapshot", d.handleSnapshot)
	mux.HandleFunc("POST /companions/{id}/command", d.handleCommand)
	mux.HandleFunc("GET /companions/{id}/trust", d.handleTrustHistory)
	mux.HandleFunc("/events", d.hub.Handler())
	return mux
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func (d *daemon) handleSnapshot(rw http.ResponseWriter, _ *http.Request) {
	d.mu.Lock()
	snap := d.sim.Snapshot()
	alive := d.sim.World.Alive()
	d.mu.Unlock()

	out := snapshotView{
		Tick:      snap.Tick,
		Protectee: [2]float64{snap.Protectee.X, snap.Protectee.Z},
		Alive:     alive,
	}
	for _, c := range snap.Companions {
		out.Companions = append(out.Companions, companionView{
			ID:     int(c.ID),
			Label:  c.Label,
			State:  c.State.String(),
			Trust:  c.Trust,
			Tier:   int(c.Tier),
			Target: uint64(c.Target),
			Pos:    [2]float64{c.Position.X, c.Position.Z},
		})
	}
	writeJSON(rw, http.StatusOK, out)
}

func (d *daemon) handleCommand(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(rw, "bad companion id", http.StatusBadRequest)
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(rw, "bad request body", http.StatusBadRequest)
		return
	}
	cmd, ok := companion.ParseCommand(req.Command)
	if !ok {
		http.Error(rw, fmt.Sprintf("unknown command %q", req.Command), http.StatusBadRequest)
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	c, ok := d.sim.Companion(companion.AgentID(id))
	if !ok {
		http.Error(rw, "companion not found", http.StatusNotFound)
		return
	}
	var point geom.Vec3
	if req.Point != nil {
		point = geom.V(req.Point[0], 0, req.Point[1])
	}
	args := d.sim.ArgsFor(c.ID, cmd, point)
	if req.Target != 0 {
		args.Target = companion.EntityID(req.Target)
	}
	if cmd == companion.CommandMoveTo && req.Point == nil {
		args.Position = nil
	}

	resp := commandResponse{
		Accepted: d.sim.Command(c.ID, cmd, args),
		State:    c.Agent.State().String(),
		Tier:     int(c.Agent.Tier()),
	}
	for _, ac := range c.Agent.AvailableCommands() {
		resp.Available = append(resp.Available, ac.String())
	}
	d.log.Info("command", "companion", c.Label, "command", cmd, "accepted", resp.Accepted)
	status := http.StatusOK
	if !resp.Accepted {
		status = http.StatusConflict
	}
	writeJSON(rw, status, resp)
}

func (d *daemon) handleTrustHistory(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.Error(rw, "bad companion id", http.StatusBadRequest)
		return
	}
	if err := d.flush(r.Context()); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	hist, err := d.store.TrustHistory(r.Context(), companion.AgentID(id))
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(hist) == 0 {
		http.Error(rw, "no trust history", http.StatusNotFound)
		return
	}
	writeJSON(rw, http.StatusOK, hist)
}
