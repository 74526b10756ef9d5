// Command nscan is a small demonstration harness for the discovery engine:
// it wires the orchestrator, correlator, classifier, and event bus
// together, prints a human-readable log of scan progress, and dumps the
// final device snapshot. A real deployment would put a TUI or exporter
// where this file's event-printing loop and final dump are.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"nscan/internal/config"
	"nscan/internal/correlator"
	"nscan/internal/driver"
	"nscan/internal/eventbus"
	"nscan/internal/history"
	"nscan/internal/model"
	"nscan/internal/orchestrator"
	"nscan/internal/oui"
)

func main() {
	cidr := flag.String("cidr", "", "target CIDR, e.g. 192.168.1.0/24 (auto-detected if omitted)")
	iface := flag.String("interface", "", "network interface to use (auto-detected if omitted)")
	passiveOnly := flag.Bool("passive-only", false, "skip the active port-scanner phase")
	watch := flag.Bool("watch", false, "keep monitoring passively after the initial scan")
	scanLevel := flag.String("scan-level", "", "quick|standard|thorough (or fast as an alias for quick)")
	hostTimeout := flag.Int("host-timeout", 0, "per-host timeout in seconds, overrides the scan level default")
	ipv6 := flag.Bool("ipv6", true, "enable IPv6 discovery")
	historyPath := flag.String("history-db", "", "optional path to a SQLite file recording per-MAC scan history")
	flag.Parse()

	log.SetFlags(log.LstdFlags)

	cfg, path, err := config.Load()
	if err != nil {
		log.Fatalf("nscan: %v", err)
	}
	if path != "" {
		log.Printf("nscan: loaded config from %s", path)
	}

	var override config.Config
	override.CIDR = *cidr
	override.Interface = *iface
	override.PassiveOnly = *passiveOnly
	override.Watch = *watch
	override.ScanLevel = driver.ScanLevel(*scanLevel)
	override.HostTimeout = *hostTimeout
	cfg = cfg.Merge(override)
	cfg.IPv6Enabled = *ipv6

	resolver, err := oui.New()
	if err != nil {
		log.Fatalf("nscan: load OUI table: %v", err)
	}
	corr := correlator.New(resolver)
	bus := eventbus.New()

	var hist *history.Store
	if *historyPath != "" {
		hist, err = history.Open(*historyPath)
		if err != nil {
			log.Fatalf("nscan: open history database: %v", err)
		}
		defer hist.Close()
	}

	sub := bus.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("nscan: received interrupt, stopping")
		cancel()
	}()

	colorize := isatty.IsTerminal(os.Stdout.Fd())
	printer := newEventPrinter(colorize)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub.C() {
			printer.print(ev)
			if hist != nil && ev.Record != nil {
				if err := hist.Record(ctx, ev.SessionID, ev.Record); err != nil {
					log.Printf("nscan: history write failed: %v", err)
				}
			}
		}
	}()

	orc := orchestrator.New(corr, bus)
	runErr := orc.Run(ctx, orchestrator.Config{
		Interface:      cfg.Interface,
		CIDR:           cfg.CIDR,
		IPv6Enabled:    cfg.IPv6Enabled,
		ScanLevel:      cfg.ScanLevel,
		PassiveOnly:    cfg.PassiveOnly,
		Watch:          cfg.Watch,
		HostTimeout:    cfg.HostTimeout,
		SessionTimeout: 0,
	})
	cancel()
	sub.Close()
	<-done

	if runErr != nil {
		log.Printf("nscan: scan failed: %v", runErr)
		os.Exit(1)
	}

	devices := corr.GetDevices()
	fmt.Printf("\n%s device%s discovered:\n\n", humanize.Comma(int64(len(devices))), plural(len(devices)))
	if err := json.NewEncoder(os.Stdout).Encode(devices); err != nil {
		log.Printf("nscan: encode snapshot: %v", err)
		os.Exit(1)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// eventPrinter renders bus events as a one-line-per-event progress log,
// colorized only when stdout is a terminal.
type eventPrinter struct {
	colorize bool
}

func newEventPrinter(colorize bool) *eventPrinter {
	return &eventPrinter{colorize: colorize}
}

func (p *eventPrinter) print(ev eventbus.Event) {
	ts := time.Now().Format("15:04:05")
	switch ev.Type {
	case eventbus.EventPhaseChange:
		fmt.Printf("[%s] phase -> %s\n", ts, p.highlight(ev.Phase))
	case eventbus.EventDeviceDiscovered:
		fmt.Printf("[%s] discovered %s\n", ts, describe(ev.Record))
	case eventbus.EventDeviceUpdated:
		fmt.Printf("[%s] updated   %s\n", ts, describe(ev.Record))
	case eventbus.EventScanCompleted:
		fmt.Printf("[%s] scan complete (%s devices)\n", ts, humanize.Comma(int64(ev.Scanned)))
	case eventbus.EventScanError:
		fmt.Printf("[%s] error: %s\n", ts, ev.Message)
	}
}

// highlight wraps s in a bold ANSI escape when stdout is a terminal, and
// returns it unchanged otherwise (e.g. when redirected to a log file).
func (p *eventPrinter) highlight(s string) string {
	if !p.colorize {
		return s
	}
	return "\033[1m" + s + "\033[0m"
}

func describe(rec *model.DeviceRecord) string {
	id := rec.MAC
	if id == "" {
		id = rec.IPv4
	}
	name := rec.Hostname
	if name == "" {
		name = rec.Manufacturer
	}
	if name == "" {
		return id
	}
	return fmt.Sprintf("%s (%s)", id, name)
}
