package orchestrator

import (
	"sync"
	"testing"
	"time"

	"nscan/internal/correlator"
	"nscan/internal/eventbus"
	"nscan/internal/model"
	"nscan/internal/oui"
)

func newTestOrchestrator(t *testing.T) *Orchestrator {
	resolver, err := oui.New()
	if err != nil {
		t.Fatalf("oui.New() error: %v", err)
	}
	return New(correlator.New(resolver), eventbus.New())
}

func TestConsumeCreatesRecordAndPublishesDiscovered(t *testing.T) {
	o := newTestOrchestrator(t)
	sub := o.bus.Subscribe()
	defer sub.Close()

	obsCh := make(chan model.Observation, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go o.consume(obsCh, &wg)

	obsCh <- model.Observation{Source: model.SourceARP, Timestamp: time.Now(), MAC: "AA:BB:CC:DD:EE:FF", IPv4: "10.0.0.5"}
	close(obsCh)
	wg.Wait()

	if o.corr.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", o.corr.Count())
	}

	select {
	case ev := <-sub.C():
		if ev.Type != eventbus.EventDeviceDiscovered {
			t.Errorf("event type = %q, want %q", ev.Type, eventbus.EventDeviceDiscovered)
		}
		if ev.Record == nil || ev.Record.MAC != "AA:BB:CC:DD:EE:FF" {
			t.Errorf("unexpected record on event: %+v", ev.Record)
		}
	default:
		t.Fatal("expected a discovered event on the bus")
	}
}

func TestConsumeDiscardsObservationWithoutIdentifier(t *testing.T) {
	o := newTestOrchestrator(t)
	obsCh := make(chan model.Observation, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go o.consume(obsCh, &wg)

	obsCh <- model.Observation{Source: model.SourceARP, Hostname: "no-id"}
	close(obsCh)
	wg.Wait()

	if o.corr.Count() != 0 {
		t.Errorf("Count() = %d, want 0", o.corr.Count())
	}
}

func TestKnownIPv4TargetsReflectsStoredRecords(t *testing.T) {
	o := newTestOrchestrator(t)
	o.corr.OnObservation(model.Observation{Source: model.SourceARP, Timestamp: time.Now(), MAC: "11:11:11:11:11:11", IPv4: "192.168.1.1"})
	o.corr.OnObservation(model.Observation{Source: model.SourceARP, Timestamp: time.Now(), MAC: "22:22:22:22:22:22", IPv4: "192.168.1.2"})

	targets := o.knownIPv4Targets()
	if len(targets) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(targets))
	}
}

func TestHostnamelessIPv4TargetsExcludesNamedRecords(t *testing.T) {
	o := newTestOrchestrator(t)
	o.corr.OnObservation(model.Observation{Source: model.SourceARP, Timestamp: time.Now(), MAC: "11:11:11:11:11:11", IPv4: "192.168.1.1"})
	o.corr.OnObservation(model.Observation{Source: model.SourceMDNS, Timestamp: time.Now(), MAC: "22:22:22:22:22:22", IPv4: "192.168.1.2", Hostname: "already-named"})

	targets := o.hostnamelessIPv4Targets()
	if len(targets) != 1 || targets[0] != "192.168.1.1" {
		t.Errorf("targets = %v, want only [192.168.1.1]", targets)
	}
}

func TestInitKeepsExplicitInterfaceAndCIDR(t *testing.T) {
	o := newTestOrchestrator(t)
	cfg, err := o.init(Config{Interface: "eth7", CIDR: "10.1.1.0/24", ScanLevel: "standard"})
	if err != nil {
		t.Fatalf("init() error: %v", err)
	}
	if cfg.Interface != "eth7" || cfg.CIDR != "10.1.1.0/24" {
		t.Errorf("init() overwrote explicit config: %+v", cfg)
	}
}

func TestInitDefaultsScanLevel(t *testing.T) {
	o := newTestOrchestrator(t)
	cfg, err := o.init(Config{Interface: "eth7", CIDR: "10.1.1.0/24"})
	if err != nil {
		t.Fatalf("init() error: %v", err)
	}
	if cfg.ScanLevel != "standard" {
		t.Errorf("ScanLevel = %q, want standard", cfg.ScanLevel)
	}
}

func TestPhaseDeadlineSecondsMatchesScanLevelFloor(t *testing.T) {
	tests := []struct {
		level string
		want  int
	}{
		{"quick", 5},
		{"fast", 5},
		{"standard", 30},
		{"thorough", 90},
		{"", 30},
	}
	for _, tt := range tests {
		if got := phaseDeadlineSeconds(tt.level); got != tt.want {
			t.Errorf("phaseDeadlineSeconds(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}
