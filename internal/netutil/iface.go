package netutil

import (
	"net"

	"nscan/internal/model"
)

// Interface describes one non-loopback network interface.
type Interface struct {
	Name string
	IPv4 string // empty if none
	CIDR string // "A.B.C.D/N", empty if IPv4 is empty
	IPv6 []model.IPv6Address
}

// Interfaces returns the non-loopback network interfaces on this host, using
// the standard net package — there is no third-party alternative in the
// ecosystem for interface enumeration, and none is warranted.
func Interfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []Interface
	for _, ifc := range ifaces {
		if ifc.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}

		rec := Interface{Name: ifc.Name}
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if v4 := ipnet.IP.To4(); v4 != nil {
				if rec.IPv4 == "" {
					ones, _ := ipnet.Mask.Size()
					rec.IPv4 = v4.String()
					rec.CIDR = v4.String() + "/" + itoa(ones)
				}
				continue
			}
			if ipnet.IP.IsLoopback() || ipnet.IP.IsMulticast() {
				continue
			}
			classified, err := ClassifyIPv6(ipnet.IP.String())
			if err != nil {
				continue
			}
			classified.Scope = ifc.Name
			rec.IPv6 = append(rec.IPv6, classified)
		}
		out = append(out, rec)
	}
	return out, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// rfc1918Ranges are the private IPv4 blocks preferred for primary interface
// selection.
var rfc1918Ranges = []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}

// PrimaryInterface selects the interface whose IPv4 falls in an RFC1918
// range, breaking ties by enumeration order. Returns false if none qualify.
func PrimaryInterface(ifaces []Interface) (Interface, bool) {
	for _, ifc := range ifaces {
		if ifc.IPv4 == "" {
			continue
		}
		ip := net.ParseIP(ifc.IPv4)
		for _, block := range rfc1918Ranges {
			_, ipnet, err := net.ParseCIDR(block)
			if err != nil {
				continue
			}
			if ipnet.Contains(ip) {
				return ifc, true
			}
		}
	}
	return Interface{}, false
}
