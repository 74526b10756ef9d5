package correlator

import "nscan/internal/model"

const classifierUsageThreshold = 30

// enrich invokes the Classifier to (re)derive manufacturer, OS, and usage,
// then recomputes confidence. Called after every merge, per §4.6. os is
// (re)derived whenever unset, since the classifier is a pure function of
// the record's current fields and may now have more signal than before.
func (c *Correlator) enrich(rec *model.DeviceRecord) {
	if rec.Manufacturer == "" && rec.MAC != "" {
		if vendor, ok := c.resolver.Resolve(rec.MAC); ok {
			rec.Manufacturer = vendor
		}
	}

	if rec.OSFamily == "" {
		osResult := c.classifier.ClassifyOS(rec)
		rec.OSFamily = osResult.Family
		rec.OSVersion = osResult.Version
	}

	if rec.Model == "" {
		rec.Model = c.classifier.ClassifyModel(rec)
	}

	usage, score := c.classifier.ClassifyUsage(rec)
	if score > classifierUsageThreshold && (rec.Usage == "" || rec.Usage != usage) {
		rec.Usage = usage
	}

	rec.Confidence = c.classifier.Confidence(rec)
}
