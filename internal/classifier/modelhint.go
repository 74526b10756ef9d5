package classifier

import (
	"regexp"

	"nscan/internal/model"
)

// modelHints recognizes a device's model name from the same raw strings
// ClassifyOS reads: a scanner's OS-match name or an SSDP response's Server
// header, both already landing in rec.OSHint (§4.3 calls these "OS/model
// inference hints" — one raw string, two things to infer from it), plus
// mDNS's ServiceTypes for service-name-only signals (AirPlay, Sonos, etc).
var modelHints = []struct {
	model   string
	pattern *regexp.Regexp
}{
	{"Sonos Speaker", regexp.MustCompile(`(?i)sonos`)},
	{"Roku", regexp.MustCompile(`(?i)roku`)},
	{"Chromecast", regexp.MustCompile(`(?i)chromecast|google cast`)},
	{"Apple TV", regexp.MustCompile(`(?i)apple\s?tv|appletv`)},
	{"HomePod", regexp.MustCompile(`(?i)homepod`)},
	{"PlayStation", regexp.MustCompile(`(?i)playstation|\bps[45]\b`)},
	{"Xbox", regexp.MustCompile(`(?i)xbox`)},
	{"Nest", regexp.MustCompile(`(?i)\bnest\b`)},
	{"Amazon Echo", regexp.MustCompile(`(?i)\becho\b|amazon-echo`)},
	{"Bravia TV", regexp.MustCompile(`(?i)bravia`)},
	{"AirPlay Receiver", regexp.MustCompile(`(?i)airplay`)},
}

// ClassifyModel scans a Device Record's OS hint and service types for a
// recognizable device-model string. Unlike ClassifyOS this cascade has no
// fallback tiers — a model name is either present in these raw signals or
// it isn't inferable at all from what we've captured.
func (c *Classifier) ClassifyModel(rec *model.DeviceRecord) string {
	for _, h := range modelHints {
		if rec.OSHint != "" && h.pattern.MatchString(rec.OSHint) {
			return h.model
		}
		for _, st := range rec.ServiceTypes {
			if h.pattern.MatchString(st) {
				return h.model
			}
		}
	}
	return ""
}
