package identity

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Garsondee/Companion-Sense/internal/companion"
)

var (
	_ companion.Identity      = (*Record)(nil)
	_ companion.ReasonedTrust = (*Record)(nil)
)

func TestRecord_TrustClamped(t *testing.T) {
	r := NewRecord(1, "Ash", companion.RoleScout, 150)
	if r.Trust() != 100 {
		t.Fatalf("expected clamp to 100, got %d", r.Trust())
	}
	r.ChangeTrust(-250)
	if r.Trust() != 0 {
		t.Fatalf("expected clamp to 0, got %d", r.Trust())
	}
	if r.Tier() != 1 {
		t.Fatalf("trust 0 is tier 1, got %d", r.Tier())
	}
}

func TestRecord_TrustEventsObserved(t *testing.T) {
	r := NewRecord(2, "Bram", companion.RoleFighter, 99)
	var got []TrustChange
	r.OnTrustChange = func(c TrustChange) { got = append(got, c) }
	r.RecordAttackHit()
	r.RecordProtection()
	r.RecordSocial()
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].Trust != 100 || got[1].Trust != 100 || got[1].Delta != 2 {
		t.Fatalf("unexpected events %+v", got)
	}
	if got[1].Reason != "protection" {
		t.Fatalf("expected protection reason, got %q", got[1].Reason)
	}
}

func TestRecord_ChangeTrustForKeepsReason(t *testing.T) {
	r := NewRecord(4, "Dell", companion.RoleEngineer, 40)
	var got TrustChange
	r.OnTrustChange = func(c TrustChange) { got = c }
	r.ChangeTrustFor(1, companion.TrustReasonAttackHit)
	if got.Reason != "attack_hit" || got.Trust != 41 {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestRecord_CloneIsDetached(t *testing.T) {
	r := NewRecord(5, "Eve", companion.RoleNegotiator, 55)
	fired := 0
	r.OnTrustChange = func(TrustChange) { fired++ }
	c := r.Clone()
	c.ChangeTrust(10)
	r.ChangeTrust(-5)
	if c.Trust() != 65 || r.Trust() != 50 || fired != 1 {
		t.Fatalf("clone should not share state: clone=%d orig=%d fired=%d", c.Trust(), r.Trust(), fired)
	}
	if c.ID != 5 || c.Name != "Eve" || c.Role() != companion.RoleNegotiator {
		t.Fatalf("clone lost identity fields %+v", c)
	}
}

func TestRecord_Activity(t *testing.T) {
	r := NewRecord(3, "Cara", companion.RoleMedic, 50)
	if !r.IsAvailable() {
		t.Fatal("fresh record should be available")
	}
	r.BeginActivity("")
	if r.IsAvailable() || r.Activity() != "busy" {
		t.Fatalf("expected busy, got available=%v activity=%q", r.IsAvailable(), r.Activity())
	}
	r.EndActivity()
	if !r.IsAvailable() {
		t.Fatal("expected available after EndActivity")
	}
}

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	dir := t.TempDir()
	s, err := OpenSQLite(filepath.Join(dir, "companions.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLStore_SaveLoadList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := NewRecord(7, "Dell", companion.RoleEngineer, 42)
	b := NewRecord(3, "Eve", companion.RoleNegotiator, 88)
	for _, r := range []*Record{a, b} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	a.ChangeTrust(10)
	if err := s.Save(ctx, a); err != nil {
		t.Fatalf("Save update: %v", err)
	}

	got, err := s.Load(ctx, 7)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != "Dell" || got.Role() != companion.RoleEngineer || got.Trust() != 52 {
		t.Fatalf("unexpected record %+v trust=%d", got, got.Trust())
	}

	all, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 2 || all[0].ID != 3 || all[1].ID != 7 {
		t.Fatalf("expected records ordered by id, got %d", len(all))
	}
}

func TestSQLStore_LoadMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLStore_TrustHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	r := NewRecord(4, "Finn", companion.RoleFighter, 10)
	r.OnTrustChange = func(c TrustChange) {
		if err := s.AppendTrustEvent(ctx, c); err != nil {
			t.Fatalf("AppendTrustEvent: %v", err)
		}
	}
	r.RecordAttackHit()
	r.RecordProtection()

	hist, err := s.TrustHistory(ctx, 4)
	if err != nil {
		t.Fatalf("TrustHistory: %v", err)
	}
	if len(hist) != 2 || hist[0].Trust != 11 || hist[1].Trust != 13 {
		t.Fatalf("unexpected history %+v", hist)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
