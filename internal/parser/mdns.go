package parser

import (
	"net"
	"strings"
	"time"

	"golang.org/x/net/dns/dnsmessage"

	"nscan/internal/model"
	"nscan/internal/netutil"
)

// ParseMDNS decodes a raw mDNS packet and associates service instance names
// with a hostname, port, and address from the PTR, SRV, A and AAAA records
// of its answer section; TXT records are not read. Name-compression
// pointer-following is handled
// internally by dnsmessage, which is loop-safe by construction.
func ParseMDNS(payload []byte) []model.Observation {
	var msg dnsmessage.Message
	if err := msg.Unpack(payload); err != nil {
		return nil
	}

	now := time.Now()
	hostPort := make(map[string]int)   // service instance -> port (from SRV)
	hostTarget := make(map[string]string) // service instance -> target hostname (from SRV)
	addrs := make(map[string][]model.IPv6Address)
	v4addrs := make(map[string]string)
	serviceTypes := make(map[string][]string) // service instance -> PTR service types

	for _, a := range msg.Answers {
		name := a.Header.Name.String()
		switch body := a.Body.(type) {
		case *dnsmessage.PTRResource:
			instance := body.PTR.String()
			serviceTypes[instance] = append(serviceTypes[instance], name)
		case *dnsmessage.SRVResource:
			hostTarget[name] = body.Target.String()
			hostPort[name] = int(body.Port)
		case *dnsmessage.AResource:
			ip := netIPv4String(body.A)
			v4addrs[name] = ip
		case *dnsmessage.AAAAResource:
			ip := netIPv6String(body.AAAA)
			if addr, err := netutil.ClassifyIPv6(ip); err == nil {
				addrs[name] = append(addrs[name], addr)
			}
		}
	}

	var obs []model.Observation
	for instance, types := range serviceTypes {
		target, hasSRV := hostTarget[instance]
		o := model.Observation{
			Source:       model.SourceMDNS,
			Timestamp:    now,
			ServiceTypes: types,
		}
		if hasSRV {
			o.Hostname = trimTrailingDot(target)
			if v4, ok := v4addrs[target]; ok {
				o.IPv4 = v4
			}
			if v6, ok := addrs[target]; ok {
				o.IPv6 = v6
			}
			if port, ok := hostPort[instance]; ok && port > 0 {
				o.Ports = []int{port}
				for _, t := range types {
					name, proto := serviceNameAndProto(t)
					if proto == "" {
						proto = "tcp"
					}
					o.Services = append(o.Services, model.ServiceDescriptor{
						Port:  port,
						Proto: proto,
						Name:  name,
						State: "open",
					})
				}
			}
		}
		if o.Hostname == "" && o.IPv4 == "" && len(o.IPv6) == 0 {
			continue
		}
		obs = append(obs, o)
	}
	return obs
}

// serviceNameAndProto splits an mDNS service type such as "_ipp._tcp.local."
// into its service name ("ipp") and transport ("tcp"). A type missing either
// label-prefixed segment returns an empty string for that half.
func serviceNameAndProto(serviceType string) (name, proto string) {
	for _, part := range strings.Split(trimTrailingDot(serviceType), ".") {
		if !strings.HasPrefix(part, "_") {
			continue
		}
		label := strings.TrimPrefix(part, "_")
		if label == "tcp" || label == "udp" {
			proto = label
			continue
		}
		if name == "" {
			name = label
		}
	}
	return name, proto
}

func trimTrailingDot(s string) string {
	if len(s) > 0 && s[len(s)-1] == '.' {
		return s[:len(s)-1]
	}
	return s
}

func netIPv4String(a [4]byte) string {
	return net.IPv4(a[0], a[1], a[2], a[3]).String()
}

func netIPv6String(a [16]byte) string {
	return net.IP(a[:]).String()
}
