package classifier

import "nscan/internal/model"

// Confidence computes the composite per-device score of §4.7: presence
// bonuses for each identifier/attribute, capped at 100.
func (c *Classifier) Confidence(rec *model.DeviceRecord) int {
	score := 0
	hasV4 := rec.IPv4 != ""
	hasV6 := len(rec.IPv6) > 0

	if hasV4 {
		score += 15
	}
	if hasV6 {
		score += 10
	}
	if rec.MAC != "" {
		score += 20
	}
	if rec.Hostname != "" {
		score += 10
	}
	if rec.Manufacturer != "" {
		score += 10
	}
	if rec.OSFamily != "" {
		score += 15
	}
	if rec.Model != "" {
		score += 10
	}
	if rec.Usage != "" {
		score += 10
	}
	if len(rec.Ports) > 0 {
		score += 5
	}
	if hasV4 && hasV6 {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}
