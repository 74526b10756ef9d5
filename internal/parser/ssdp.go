package parser

import (
	"bufio"
	"net"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"nscan/internal/model"
	"nscan/internal/netutil"
)

// ParseSSDP parses one SSDP response or NOTIFY datagram. The first line must
// start with "HTTP/" or "NOTIFY"; remaining lines are "Key: Value" headers,
// parsed with the standard library's HTTP-style header reader. sender is
// the UDP source address the datagram arrived from, used to identify the
// device when the Location header's host isn't a bare IP literal.
func ParseSSDP(payload []byte, sender net.IP) (model.Observation, bool) {
	reader := bufio.NewReader(strings.NewReader(string(payload)))
	statusLine, err := reader.ReadString('\n')
	if err != nil && statusLine == "" {
		return model.Observation{}, false
	}
	statusLine = strings.TrimSpace(statusLine)
	if !strings.HasPrefix(statusLine, "HTTP/") && !strings.HasPrefix(statusLine, "NOTIFY") {
		return model.Observation{}, false
	}

	tp := textproto.NewReader(reader)
	header, err := tp.ReadMIMEHeader()
	if err != nil && len(header) == 0 {
		return model.Observation{}, false
	}

	obs := model.Observation{
		Source:    model.SourceSSDP,
		Timestamp: time.Now(),
	}

	if loc := header.Get("Location"); loc != "" {
		obs.ServiceTypes = append(obs.ServiceTypes, "location:"+loc)
		if u, err := url.Parse(loc); err == nil {
			setAddrFromHost(&obs, u.Hostname())
		}
	}
	if usn := header.Get("Usn"); usn != "" {
		obs.ServiceTypes = append(obs.ServiceTypes, "usn:"+usn)
	}
	if st := header.Get("St"); st != "" {
		obs.ServiceTypes = append(obs.ServiceTypes, st)
	}
	if nt := header.Get("Nt"); nt != "" {
		obs.ServiceTypes = append(obs.ServiceTypes, nt)
	}
	if server := header.Get("Server"); server != "" {
		obs.OSHint = server
	}

	if obs.IPv4 == "" && len(obs.IPv6) == 0 {
		setAddrFromHost(&obs, sender.String())
	}

	if len(obs.ServiceTypes) == 0 && obs.OSHint == "" {
		return model.Observation{}, false
	}
	return obs, true
}

// setAddrFromHost sets obs.IPv4 or appends a classified IPv6 address when
// host is an IP literal; it's a no-op for hostnames (bare DNS names in a
// Location header aren't resolved here) and leaves an already-set address
// untouched.
func setAddrFromHost(obs *model.Observation, host string) {
	if obs.IPv4 != "" || len(obs.IPv6) > 0 {
		return
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return
	}
	if v4 := ip.To4(); v4 != nil {
		obs.IPv4 = v4.String()
		return
	}
	if addr, err := netutil.ClassifyIPv6(ip.String()); err == nil {
		obs.IPv6 = append(obs.IPv6, addr)
	}
}
