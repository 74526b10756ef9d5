package driver

import (
	"context"
	"log"
	"net"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv6"

	"nscan/internal/model"
	"nscan/internal/parser"
)

// NeighborDriver is the one-shot ARP/NDP table reader described in §4.4. It
// shells out to the platform neighbour tool; failure to invoke it is
// non-fatal and yields zero Observations.
type NeighborDriver struct{}

func (d *NeighborDriver) Name() string { return "neighbor" }

func (d *NeighborDriver) Start(ctx context.Context, cfg Config, out chan<- model.Observation) error {
	if cfg.IPv6Enabled {
		if err := sendICMPv6Echo(cfg.Interface); err != nil {
			log.Printf("neighbor: icmpv6 echo to ff02::1 on %s failed (non-fatal): %v", cfg.Interface, err)
		}
	}

	ipv4Out, err := runNeighborTool(ctx, false)
	if err != nil {
		log.Printf("neighbor: ipv4 tool invocation failed (non-fatal): %v", err)
	} else {
		for _, o := range parser.ParseIPv4Neighbors(ipv4Out) {
			select {
			case out <- o:
			case <-ctx.Done():
				return nil
			}
		}
	}

	if cfg.IPv6Enabled {
		ipv6Out, err := runNeighborTool(ctx, true)
		if err != nil {
			log.Printf("neighbor: ipv6 tool invocation failed (non-fatal): %v", err)
		} else {
			for _, o := range parser.ParseIPv6Neighbors(ipv6Out) {
				select {
				case out <- o:
				case <-ctx.Done():
					return nil
				}
			}
		}
	}
	return nil
}

func (d *NeighborDriver) Stop() error { return nil }

func runNeighborTool(ctx context.Context, v6 bool) (string, error) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.CommandContext(ctx, "arp", "-a")
	default:
		if v6 {
			cmd = exec.CommandContext(ctx, "ip", "-6", "neigh")
		} else {
			cmd = exec.CommandContext(ctx, "ip", "neigh")
		}
	}
	outBytes, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return string(outBytes), nil
}

// sendICMPv6Echo pings the all-nodes multicast address to seed the kernel's
// IPv6 neighbour cache before it is read. Best-effort; errors are non-fatal
// to the caller.
func sendICMPv6Echo(iface string) error {
	conn, err := icmp.ListenPacket("udp6", "::")
	if err != nil {
		return err
	}
	defer conn.Close()

	msg := icmp.Message{
		Type: ipv6.ICMPTypeEchoRequest,
		Code: 0,
		Body: &icmp.Echo{
			ID:   1,
			Seq:  1,
			Data: []byte("nscan"),
		},
	}
	wb, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	dst := "ff02::1"
	if iface != "" {
		dst = dst + "%" + iface
	}
	addr, err := net.ResolveUDPAddr("udp6", net.JoinHostPort(dst, "0"))
	if err != nil {
		return err
	}
	if _, err := conn.WriteTo(wb, addr); err != nil {
		return err
	}

	_ = conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
	buf := make([]byte, 512)
	_, _, _ = conn.ReadFrom(buf)
	return nil
}
