package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"nscan/internal/correlator"
	"nscan/internal/driver"
	"nscan/internal/eventbus"
	"nscan/internal/model"
	"nscan/internal/netutil"
)

// Config carries the session-level knobs named in §6: target CIDR,
// interface, passive-only, watch, scan level, per-host timeout, IPv6.
type Config struct {
	Interface      string
	CIDR           string
	IPv6Enabled    bool
	ScanLevel      driver.ScanLevel
	PassiveOnly    bool
	Watch          bool
	HostTimeout    int
	SessionTimeout time.Duration // 0 derives the floor from ScanLevel
}

// Orchestrator drives the phase state machine of §4.5, feeding every
// Observation emitted by a driver into a single Correlator and broadcasting
// progress on an event bus.
type Orchestrator struct {
	corr *correlator.Correlator
	bus  *eventbus.Bus

	mu        sync.Mutex
	state     State
	sessionID string
}

// New builds an Orchestrator over an existing Correlator and Bus; both are
// expected to outlive a single Run call.
func New(corr *correlator.Correlator, bus *eventbus.Bus) *Orchestrator {
	return &Orchestrator{corr: corr, bus: bus, state: StateIdle}
}

// State reports the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// SessionID identifies the run currently in progress (or the most recent
// one), letting a history sink or UI observer correlate events that belong
// to the same scan.
func (o *Orchestrator) SessionID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sessionID
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	sessionID := o.sessionID
	o.mu.Unlock()
	o.bus.Publish(eventbus.Event{Type: eventbus.EventPhaseChange, SessionID: sessionID, Phase: string(s)})
}

// Run executes INIT through COMPLETE (or PHASE3, for watch mode) and
// returns once the scan has finished or ctx is cancelled. A fatal INIT
// error is returned directly; per-phase driver failures are logged and
// degrade the phase rather than aborting the run, per §4.4's failure
// semantics.
func (o *Orchestrator) Run(ctx context.Context, cfg Config) error {
	o.mu.Lock()
	o.sessionID = uuid.NewString()
	sessionID := o.sessionID
	o.mu.Unlock()

	o.setState(StateInit)
	cfg, err := o.init(cfg)
	if err != nil {
		o.setState(StateFailed)
		o.bus.Publish(eventbus.Event{Type: eventbus.EventScanError, SessionID: sessionID, Message: err.Error()})
		return err
	}
	o.bus.Publish(eventbus.Event{Type: eventbus.EventScanStarted, SessionID: sessionID})

	obsCh := make(chan model.Observation, 1000)
	var consumeWG sync.WaitGroup
	consumeWG.Add(1)
	go o.consume(obsCh, &consumeWG)

	driverCfg := driver.Config{
		Interface:   cfg.Interface,
		CIDR:        cfg.CIDR,
		IPv6Enabled: cfg.IPv6Enabled,
		ScanLevel:   cfg.ScanLevel,
		HostTimeout: cfg.HostTimeout,
	}

	deadline := time.Duration(phaseDeadlineSeconds(string(cfg.ScanLevel))) * time.Second
	if cfg.SessionTimeout > 0 && cfg.SessionTimeout < deadline {
		deadline = cfg.SessionTimeout
	}

	o.setState(StatePhase0)
	o.runPhase0(ctx, driverCfg, obsCh, deadline)

	o.setState(StatePhase1)
	captureCtx, stopCapture := context.WithCancel(ctx)
	defer stopCapture()
	capture := &driver.CaptureDriver{}
	o.runPhase1(ctx, captureCtx, driverCfg, obsCh, capture, deadline)

	if cfg.ScanLevel != driver.ScanQuick && !cfg.PassiveOnly {
		o.setState(StatePhase2)
		driverCfg.IPv4Targets = o.knownIPv4Targets()
		driverCfg.IPv6Targets = o.knownIPv6Targets()
		o.runPhase2(ctx, driverCfg, obsCh, deadline)
	}

	if cfg.Watch {
		o.setState(StatePhase3)
		o.runPhase3(ctx, obsCh)
	}
	stopCapture()
	_ = capture.Stop()

	o.setState(StateComplete)
	close(obsCh)
	consumeWG.Wait()
	o.bus.Publish(eventbus.Event{Type: eventbus.EventScanCompleted, SessionID: sessionID, Scanned: o.corr.Count()})
	return nil
}

// init resolves the interface and CIDR when not supplied and validates that
// a scan can proceed at all; failures here are the only ones treated as
// fatal, per §4.5's INIT transition.
func (o *Orchestrator) init(cfg Config) (Config, error) {
	if cfg.ScanLevel == "" {
		cfg.ScanLevel = driver.ScanStandard
	}
	if cfg.Interface != "" && cfg.CIDR != "" {
		return cfg, nil
	}

	ifaces, err := netutil.Interfaces()
	if err != nil {
		return cfg, fmt.Errorf("orchestrator: enumerate interfaces: %w", err)
	}
	primary, ok := netutil.PrimaryInterface(ifaces)
	if !ok {
		return cfg, fmt.Errorf("orchestrator: no usable network interface found")
	}
	if cfg.Interface == "" {
		cfg.Interface = primary.Name
	}
	if cfg.CIDR == "" {
		if primary.CIDR == "" {
			return cfg, fmt.Errorf("orchestrator: interface %s has no IPv4 address to derive a target CIDR from", cfg.Interface)
		}
		cfg.CIDR = primary.CIDR
	}
	return cfg, nil
}

// consume is the Correlator's sole caller: every Observation from every
// phase passes through here, in arrival order, before fan-out to the bus.
func (o *Orchestrator) consume(obsCh <-chan model.Observation, wg *sync.WaitGroup) {
	defer wg.Done()
	sessionID := o.SessionID()
	for obs := range obsCh {
		rec, result := o.corr.OnObservation(obs)
		if result == correlator.ResultDiscarded {
			continue
		}
		evType := eventbus.EventDeviceUpdated
		switch result {
		case correlator.ResultCreated:
			evType = eventbus.EventDeviceDiscovered
		case correlator.ResultEnriched:
			evType = eventbus.EventDeviceEnriched
		}
		o.bus.Publish(eventbus.Event{Type: evType, SessionID: sessionID, Record: rec})
	}
}

// knownIPv4Targets snapshots the IPv4 addresses collected so far; Run
// copies them into PHASE2's driver config.
func (o *Orchestrator) knownIPv4Targets() []string {
	var out []string
	for _, rec := range o.corr.GetDevices() {
		if rec.IPv4 != "" {
			out = append(out, rec.IPv4)
		}
	}
	return out
}

// hostnamelessIPv4Targets snapshots IPv4 addresses of records that have no
// hostname yet, per §4.5 PHASE1: NetBIOS resolution is only useful for a
// host the earlier passive sources haven't already named.
func (o *Orchestrator) hostnamelessIPv4Targets() []string {
	var out []string
	for _, rec := range o.corr.GetDevices() {
		if rec.IPv4 != "" && rec.Hostname == "" {
			out = append(out, rec.IPv4)
		}
	}
	return out
}

// knownIPv6Targets snapshots the IPv6 addresses collected in PHASE0/PHASE1
// (chiefly via NDP and passive capture), for PHASE2's active scan. There's
// no CIDR to sweep for IPv6, so these are the only targets it gets; loopback
// and multicast addresses are never useful scan targets and are excluded.
func (o *Orchestrator) knownIPv6Targets() []string {
	var out []string
	for _, rec := range o.corr.GetDevices() {
		for _, addr := range rec.IPv6 {
			if addr.Type == model.IPv6Loopback || addr.Type == model.IPv6Multicast {
				continue
			}
			out = append(out, addr.Addr)
		}
	}
	return out
}

// runWithDeadline launches fn under a context bounded by deadline (in
// addition to ctx's own cancellation) and logs, rather than propagates, a
// driver failure — per §4.4, a driver error never aborts the scan.
func runWithDeadline(ctx context.Context, deadline time.Duration, fn func(context.Context) error) {
	dctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	if err := fn(dctx); err != nil {
		log.Printf("orchestrator: phase step failed (non-fatal): %v", err)
	}
}

func runDriver(ctx context.Context, d driver.Driver, cfg driver.Config, out chan<- model.Observation) error {
	if err := d.Start(ctx, cfg, out); err != nil {
		return fmt.Errorf("%s: %w", d.Name(), err)
	}
	return nil
}

// runPhase0 launches the passive discovery drivers (mDNS, SSDP) in
// parallel and waits for both, or the phase deadline, whichever is sooner.
func (o *Orchestrator) runPhase0(ctx context.Context, cfg driver.Config, out chan<- model.Observation, deadline time.Duration) {
	runWithDeadline(ctx, deadline, func(dctx context.Context) error {
		g, gctx := errgroup.WithContext(dctx)
		mdns := &driver.MDNSDriver{}
		ssdp := &driver.SSDPDriver{}
		g.Go(func() error { return runDriver(gctx, mdns, cfg, out) })
		g.Go(func() error { return runDriver(gctx, ssdp, cfg, out) })
		return g.Wait()
	})
}

// runPhase1 starts the long-running capture driver in its own goroutine
// (left running across PHASE2 into PHASE3, cancelled only via captureCtx),
// then runs the neighbour-table driver and NetBIOS resolution to
// completion.
func (o *Orchestrator) runPhase1(ctx, captureCtx context.Context, cfg driver.Config, out chan<- model.Observation, capture *driver.CaptureDriver, deadline time.Duration) {
	go func() {
		if err := capture.Start(captureCtx, cfg, out); err != nil {
			log.Printf("orchestrator: capture driver failed to start (non-fatal): %v", err)
		}
	}()

	runWithDeadline(ctx, deadline, func(dctx context.Context) error {
		neighbor := &driver.NeighborDriver{}
		return runDriver(dctx, neighbor, cfg, out)
	})

	runWithDeadline(ctx, deadline, func(dctx context.Context) error {
		netbiosCfg := cfg
		netbiosCfg.IPv4Targets = o.hostnamelessIPv4Targets()
		netbios := &driver.NetBIOSDriver{}
		return runDriver(dctx, netbios, netbiosCfg, out)
	})
}

// runPhase2 runs the active port-scanner driver against the target CIDR
// (whose live IPv4 hosts the driver finds with its own ping sweep) and any
// IPv6 targets collected so far. MaxConcurrent is left unset
// so the driver's own default of 15 concurrent host scans applies.
func (o *Orchestrator) runPhase2(ctx context.Context, cfg driver.Config, out chan<- model.Observation, deadline time.Duration) {
	profile := driver.ProfileFor(cfg.ScanLevel)
	scanDeadline := deadline
	if profile.HostTimeout > 0 {
		scanDeadline = time.Duration(profile.HostTimeout) * time.Second
	}
	runWithDeadline(ctx, scanDeadline, func(dctx context.Context) error {
		scanner := &driver.ScannerDriver{}
		return runDriver(dctx, scanner, cfg, out)
	})
}

// runPhase3 holds the capture driver open (already running from PHASE1)
// until ctx is cancelled externally, publishing a scan_progress heartbeat
// every 5s; Observations keep reaching the correlator through obsCh as they
// arrive. There is no phase deadline in PHASE3 by design.
func (o *Orchestrator) runPhase3(ctx context.Context, out chan<- model.Observation) {
	sessionID := o.SessionID()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// The capture driver writes directly into obsCh; the tick exists
			// only to give watch mode a visible heartbeat in the event bus.
			o.bus.Publish(eventbus.Event{Type: eventbus.EventScanProgress, SessionID: sessionID, Scanned: o.corr.Count()})
		}
	}
}
