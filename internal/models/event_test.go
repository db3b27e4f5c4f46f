package models

import "testing"

func TestDecodeChangeEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{
			name:    "valid insert",
			payload: `{"table":"incident_logs","type":"INSERT","record":{"id":"i-1","severity":"high"}}`,
		},
		{
			name:    "valid update with old record",
			payload: `{"table":"dependency_logs","type":"UPDATE","record":{"tolerance_breached":true},"old_record":{"tolerance_breached":false}}`,
		},
		{
			name:    "missing table",
			payload: `{"type":"INSERT","record":{}}`,
			wantErr: true,
		},
		{
			name:    "unknown operation",
			payload: `{"table":"incident_logs","type":"TRUNCATE","record":{}}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `not json at all`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeChangeEvent([]byte(tt.payload))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeChangeEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && ev.Timestamp.IsZero() {
				t.Error("decoded event has zero timestamp")
			}
		})
	}
}

func TestRowDecodersRespectTable(t *testing.T) {
	ev := ChangeEvent{Table: TableIncidents, Type: OpInsert, Record: map[string]interface{}{"id": "i-1"}}
	if _, ok := ev.BreachRow(); ok {
		t.Error("BreachRow() decoded an incident event")
	}
	if _, ok := ev.DependencyRow(); ok {
		t.Error("DependencyRow() decoded an incident event")
	}
	row, ok := ev.IncidentRow()
	if !ok {
		t.Fatal("IncidentRow() rejected an incident event")
	}
	if row.Title != "Untitled incident" {
		t.Errorf("missing title fallback = %q", row.Title)
	}
	if row.Severity != SeverityMedium {
		t.Errorf("missing severity fallback = %q", row.Severity)
	}
}

func TestParseSeverity(t *testing.T) {
	if got := ParseSeverity("critical"); got != SeverityCritical {
		t.Errorf("ParseSeverity(critical) = %v", got)
	}
	if got := ParseSeverity("catastrophic"); got != SeverityMedium {
		t.Errorf("ParseSeverity(unknown) = %v, want medium fallback", got)
	}
}

func TestTierForLevel(t *testing.T) {
	tests := []struct {
		level int
		want  Tier
	}{
		{1, TierOperational},
		{2, TierSeniorManagement},
		{3, TierBoard},
		{9, TierBoard},
	}
	for _, tt := range tests {
		if got := TierForLevel(tt.level); got != tt.want {
			t.Errorf("TierForLevel(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
