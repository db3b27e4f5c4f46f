package alerts

import (
	"fmt"
	"testing"

	"resilience-alerting/internal/models"
)

func TestWindowCapEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for i := 0; i < 5; i++ {
		w.Add(models.Alert{ID: fmt.Sprintf("a-%d", i), OrgID: "org-1"})
	}

	got := w.List("org-1")
	if len(got) != 3 {
		t.Fatalf("window holds %d alerts, want 3", len(got))
	}
	// Newest first.
	for i, wantID := range []string{"a-4", "a-3", "a-2"} {
		if got[i].ID != wantID {
			t.Errorf("alert[%d].ID = %s, want %s", i, got[i].ID, wantID)
		}
	}
}

func TestWindowPartitionsByOrganization(t *testing.T) {
	w := NewWindow(3)
	w.Add(models.Alert{ID: "b-1", OrgID: "org-2", Title: "org2 incident"})
	// A busy tenant filling its own buffer must not evict org-2's alert.
	for i := 0; i < 5; i++ {
		w.Add(models.Alert{ID: fmt.Sprintf("a-%d", i), OrgID: "org-1"})
	}

	for _, a := range w.List("org-1") {
		if a.OrgID != "org-1" {
			t.Errorf("org-1 window contains alert %s owned by %s", a.ID, a.OrgID)
		}
	}
	got := w.List("org-2")
	if len(got) != 1 || got[0].ID != "b-1" {
		t.Errorf("org-2 window = %+v, want its single alert intact", got)
	}
	if w.Acknowledge("org-1", "b-1") {
		t.Error("Acknowledge() crossed organizations")
	}
	if got := w.List("org-3"); len(got) != 0 {
		t.Errorf("unknown org window = %+v, want empty", got)
	}
}

func TestWindowAcknowledge(t *testing.T) {
	w := NewWindow(DefaultCap)
	w.Add(models.Alert{ID: "a-1", OrgID: "org-1", Category: models.CategoryIncident})
	w.Add(models.Alert{ID: "a-2", OrgID: "org-1", Category: models.CategoryIncident})

	if !w.Acknowledge("org-1", "a-1") {
		t.Fatal("Acknowledge() returned false for a known alert")
	}
	if w.Acknowledge("org-1", "missing") {
		t.Error("Acknowledge() returned true for an unknown alert")
	}
	if n := w.CountUnacknowledged("org-1", models.CategoryIncident); n != 1 {
		t.Errorf("CountUnacknowledged() = %d, want 1", n)
	}
}

func TestWindowListIsSnapshot(t *testing.T) {
	w := NewWindow(DefaultCap)
	w.Add(models.Alert{ID: "a-1", OrgID: "org-1"})

	snap := w.List("org-1")
	snap[0].Acknowledged = true

	if w.List("org-1")[0].Acknowledged {
		t.Error("mutating a List() snapshot leaked into the window")
	}
}
