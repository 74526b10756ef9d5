package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nscan/internal/model"
)

func openTestStore(t *testing.T) *Store {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordThenHistoryRoundTrips(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := model.NewDeviceRecord()
	rec.MAC = "AA:BB:CC:DD:EE:FF"
	rec.IPv4 = "192.168.1.10"
	rec.Hostname = "test-host"
	rec.LastSeen = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	if err := s.Record(ctx, "session-1", rec); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	sightings, err := s.History(ctx, rec.MAC, 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(sightings) != 1 {
		t.Fatalf("len(sightings) = %d, want 1", len(sightings))
	}
	if sightings[0].Record.Hostname != "test-host" {
		t.Errorf("Hostname = %q, want test-host", sightings[0].Record.Hostname)
	}
	if sightings[0].SessionID != "session-1" {
		t.Errorf("SessionID = %q, want session-1", sightings[0].SessionID)
	}
}

func TestRecordWithoutMACIsIgnored(t *testing.T) {
	s := openTestStore(t)
	rec := model.NewDeviceRecord()
	rec.IPv4 = "192.168.1.20"

	if err := s.Record(context.Background(), "", rec); err != nil {
		t.Fatalf("Record() error: %v", err)
	}

	sightings, err := s.History(context.Background(), "", 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(sightings) != 0 {
		t.Errorf("len(sightings) = %d, want 0", len(sightings))
	}
}

func TestHistoryOrdersMostRecentFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mac := "11:22:33:44:55:66"

	for i, ts := range []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
	} {
		rec := model.NewDeviceRecord()
		rec.MAC = mac
		rec.Hostname = "host"
		rec.LastSeen = ts
		rec.Confidence = i
		if err := s.Record(ctx, "", rec); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	sightings, err := s.History(ctx, mac, 10)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(sightings) != 3 {
		t.Fatalf("len(sightings) = %d, want 3", len(sightings))
	}
	if !sightings[0].ObservedAt.Equal(time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("sightings[0].ObservedAt = %v, want the most recent timestamp", sightings[0].ObservedAt)
	}
}

func TestHistoryRespectsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mac := "77:88:99:AA:BB:CC"

	for i := 0; i < 5; i++ {
		rec := model.NewDeviceRecord()
		rec.MAC = mac
		rec.LastSeen = time.Date(2026, 1, 1, 0, 0, i, 0, time.UTC)
		if err := s.Record(ctx, "", rec); err != nil {
			t.Fatalf("Record() error: %v", err)
		}
	}

	sightings, err := s.History(ctx, mac, 2)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if len(sightings) != 2 {
		t.Errorf("len(sightings) = %d, want 2", len(sightings))
	}
}
