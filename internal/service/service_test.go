package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"resilience-alerting/internal/config"
	"resilience-alerting/internal/dispatch"
	"resilience-alerting/internal/escalation"
	"resilience-alerting/internal/models"
)

type channelLog struct {
	mu     sync.Mutex
	emails int
	sms    int
}

func (c *channelLog) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.emails, c.sms
}

func pipelineFixture(t *testing.T) (*Service, *channelLog, *escalation.MemoryStore, func()) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	calls := &channelLog{}
	dispatcher := dispatch.New(
		func(context.Context, string, string) error {
			calls.mu.Lock()
			calls.emails++
			calls.mu.Unlock()
			return nil
		},
		func(context.Context, models.Priority, string) error {
			calls.mu.Lock()
			calls.sms++
			calls.mu.Unlock()
			return nil
		},
		nil,
		logger,
	)

	store := escalation.NewMemoryStore()
	tracker := escalation.NewTracker(store, logger)

	cfg := config.Config{}
	cfg.Service.QueueSize = 16
	cfg.Service.MaxWorkers = 1
	cfg.Service.AlertWindow = 10

	svc := New(nil, logger, cfg, dispatcher, tracker)
	var wg sync.WaitGroup
	svc.Start(&wg)

	teardown := func() {
		svc.Stop()
		wg.Wait()
	}
	return svc, calls, store, teardown
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		if cond() {
			return
		}
		select {
		case <-deadline:
			t.Fatal("condition never satisfied")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPipelineCriticalIncidentEndToEnd(t *testing.T) {
	svc, calls, store, teardown := pipelineFixture(t)
	defer teardown()

	svc.HandleEvent(models.ChangeEvent{
		Table: models.TableIncidents,
		Type:  models.OpInsert,
		Record: map[string]interface{}{
			"id":       "inc-1",
			"org_id":   "org-1",
			"title":    "Core banking outage",
			"severity": "critical",
		},
		Timestamp: time.Now(),
	})

	waitFor(t, func() bool {
		e, s := calls.counts()
		return e == 1 && s == 1
	})

	window := svc.Window().List("org-1")
	if len(window) != 1 || window[0].Title != "New critical incident" {
		t.Errorf("window = %+v, want the classified critical incident", window)
	}

	// Critical alerts auto-escalate at level 1.
	waitFor(t, func() bool {
		list, _ := store.List(context.Background(), "org-1")
		return len(list) == 1
	})
	list, _ := store.List(context.Background(), "org-1")
	if list[0].Level != 1 || list[0].Status != models.EscalationActive {
		t.Errorf("auto-escalation = %+v", list[0])
	}
	if list[0].AlertTitle != "New critical incident" {
		t.Errorf("escalation alert title = %q", list[0].AlertTitle)
	}
}

func TestPipelineNonQualifyingEventIsDropped(t *testing.T) {
	svc, calls, store, teardown := pipelineFixture(t)
	defer teardown()

	svc.HandleEvent(models.ChangeEvent{
		Table:  models.TableIncidents,
		Type:   models.OpInsert,
		Record: map[string]interface{}{"id": "inc-2", "org_id": "org-1", "severity": "low"},
	})

	// Give the pool a moment; nothing should move.
	time.Sleep(50 * time.Millisecond)
	if e, s := calls.counts(); e != 0 || s != 0 {
		t.Errorf("channels called (email=%d sms=%d) for a non-qualifying event", e, s)
	}
	if got := svc.Window().List("org-1"); len(got) != 0 {
		t.Errorf("window = %+v, want empty", got)
	}
	if list, _ := store.List(context.Background(), "org-1"); len(list) != 0 {
		t.Errorf("escalations = %+v, want none", list)
	}
}

func TestPipelineHighSeverityGetsEmailOnly(t *testing.T) {
	svc, calls, store, teardown := pipelineFixture(t)
	defer teardown()

	svc.HandleEvent(models.ChangeEvent{
		Table: models.TableDependencies,
		Type:  models.OpUpdate,
		Record: map[string]interface{}{
			"id":                 "dep-1",
			"org_id":             "org-1",
			"dependency_name":    "Cloud payments provider",
			"tolerance_breached": true,
			"impact_level":       "high",
		},
	})

	waitFor(t, func() bool {
		e, _ := calls.counts()
		return e == 1
	})
	if _, s := calls.counts(); s != 0 {
		t.Errorf("sms called %d times for a high-severity alert, want 0", s)
	}
	if list, _ := store.List(context.Background(), "org-1"); len(list) != 0 {
		t.Errorf("high severity should not auto-escalate, got %+v", list)
	}
}
