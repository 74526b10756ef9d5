// Package classifier is a stateless, pure function of a Device Record's
// fields plus embedded rule tables: it derives OS family/version, usage
// category, and a composite confidence score. It holds no mutable state of
// its own; it keeps the OUI resolver it is built with, but its
// manufacturer-based rules read the record's Manufacturer field.
package classifier

import (
	"regexp"
	"strings"

	"nscan/internal/model"
	"nscan/internal/oui"
)

// Classifier derives attributions from multi-signal evidence with weighted
// scoring, per SPEC_FULL.md §4.7.
type Classifier struct {
	resolver *oui.Resolver
}

// New builds a Classifier. resolver may be nil; the manufacturer-based rules
// read rec.Manufacturer and do not consult the resolver.
func New(resolver *oui.Resolver) *Classifier {
	return &Classifier{resolver: resolver}
}

// OSResult is one cascade rule's verdict.
type OSResult struct {
	Family     string
	Version    string
	Confidence int
	SourceTag  string
}

type osPattern struct {
	family  string
	pattern *regexp.Regexp
}

var osStringPatterns = []osPattern{
	{"Windows", regexp.MustCompile(`(?i)windows|microsoft`)},
	{"macOS", regexp.MustCompile(`(?i)mac\s?os\s?x|macos|darwin`)},
	{"iOS", regexp.MustCompile(`(?i)\bios\b|iphone os`)},
	{"Android", regexp.MustCompile(`(?i)android`)},
	{"Linux", regexp.MustCompile(`(?i)linux|ubuntu|debian|fedora|centos`)},
	{"BSD", regexp.MustCompile(`(?i)\bbsd\b`)},
	{"Embedded", regexp.MustCompile(`(?i)embedded|firmware|openwrt|busybox`)},
}

var hostnamePatterns = []osPattern{
	{"iOS", regexp.MustCompile(`(?i)iphone|ipad`)},
	{"Android", regexp.MustCompile(`(?i)android`)},
	{"macOS", regexp.MustCompile(`(?i)macbook|\bmac\b`)},
	{"Windows", regexp.MustCompile(`(?i)windows|^pc-|-pc$|^desktop-`)},
	{"Linux", regexp.MustCompile(`(?i)ubuntu|debian|linux`)},
}

var versionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)windows\s*(\d+(?:\.\d+)?)`),
	regexp.MustCompile(`(?i)windows_(\d+)`),
	regexp.MustCompile(`(?i)os\s*x\s*(\d+(?:\.\d+)*)`),
	regexp.MustCompile(`(?i)android\s*(\d+(?:\.\d+)*)`),
	regexp.MustCompile(`(?i)ubuntu\s*(\d+(?:\.\d+)*)`),
	regexp.MustCompile(`(\d+\.\d+(?:\.\d+)?)`),
}

var manufacturerFamily = map[string]string{
	"apple":       "Apple Device",
	"microsoft":   "Windows",
	"raspberry pi": "Linux",
}

// ClassifyOS runs the OS cascade of §4.7 over rec's current fields.
func (c *Classifier) ClassifyOS(rec *model.DeviceRecord) OSResult {
	if rec.OSHint != "" {
		for _, p := range osStringPatterns {
			if p.pattern.MatchString(rec.OSHint) {
				return OSResult{
					Family:     p.family,
					Version:    extractVersion(rec.OSHint),
					Confidence: 90,
					SourceTag:  "scanner-os-string",
				}
			}
		}
	}

	if rec.Hostname != "" {
		for _, p := range hostnamePatterns {
			if p.pattern.MatchString(rec.Hostname) {
				return OSResult{Family: p.family, Confidence: 60, SourceTag: "hostname"}
			}
		}
	}

	hasPort := func(p int) bool {
		for _, have := range rec.Ports {
			if have == p {
				return true
			}
		}
		return false
	}
	switch {
	case hasPort(3389) && hasPort(445):
		return OSResult{Family: "Windows", Confidence: 50, SourceTag: "port-set"}
	case hasPort(5353):
		return OSResult{Family: "Apple Device", Confidence: 50, SourceTag: "port-set"}
	case hasPort(22) && !hasPort(3389):
		return OSResult{Family: "Linux", Confidence: 50, SourceTag: "port-set"}
	}

	if rec.Manufacturer != "" {
		lower := strings.ToLower(rec.Manufacturer)
		for vendor, family := range manufacturerFamily {
			if strings.Contains(lower, vendor) {
				return OSResult{Family: family, Confidence: 40, SourceTag: "manufacturer"}
			}
		}
	}

	return OSResult{}
}

// extractVersion runs the fixed pattern list against raw and returns the
// first match.
func extractVersion(raw string) string {
	for _, re := range versionPatterns {
		if m := re.FindStringSubmatch(raw); m != nil {
			return m[1]
		}
	}
	return ""
}
