package eventbus

import "nscan/internal/model"

// EventType enumerates the event kinds of §6.
type EventType string

const (
	EventScanStarted     EventType = "scan_started"
	EventPhaseChange     EventType = "scan_phase_change"
	EventScanProgress    EventType = "scan_progress"
	EventDeviceDiscovered EventType = "device_discovered"
	EventDeviceUpdated   EventType = "device_updated"
	EventDeviceEnriched  EventType = "device_enriched"
	EventScanCompleted   EventType = "scan_completed"
	EventScanError       EventType = "scan_error"
)

// Event is a cheap-to-clone snapshot handed to observers; it never shares a
// live Device Record with a subscriber.
type Event struct {
	Type      EventType
	SessionID string
	Phase     string
	Scanned   int
	Total     int
	Message   string
	Record    *model.DeviceRecord
	Stats     map[string]int
}
