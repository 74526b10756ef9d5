package classifier

import (
	"testing"

	"nscan/internal/model"
)

func TestClassifyOSFromExplicitHint(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.OSHint = "cpe:/o:microsoft:windows_10"
	got := c.ClassifyOS(rec)
	if got.Family != "Windows" {
		t.Errorf("Family = %q, want Windows", got.Family)
	}
	if got.Confidence != 90 {
		t.Errorf("Confidence = %d, want 90", got.Confidence)
	}
	if got.Version != "10" {
		t.Errorf("Version = %q, want 10", got.Version)
	}
}

func TestClassifyOSFromHostname(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.Hostname = "johns-iphone"
	got := c.ClassifyOS(rec)
	if got.Family != "iOS" || got.Confidence != 60 {
		t.Errorf("got %+v, want iOS/60", got)
	}
}

func TestClassifyOSFromPortSet(t *testing.T) {
	tests := []struct {
		name  string
		ports []int
		want  string
	}{
		{"windows rdp+smb", []int{445, 3389}, "Windows"},
		{"apple mdns", []int{5353}, "Apple Device"},
		{"linux ssh", []int{22}, "Linux"},
	}
	c := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := model.NewDeviceRecord()
			rec.Ports = tt.ports
			got := c.ClassifyOS(rec)
			if got.Family != tt.want {
				t.Errorf("Family = %q, want %q", got.Family, tt.want)
			}
			if got.Confidence != 50 {
				t.Errorf("Confidence = %d, want 50", got.Confidence)
			}
		})
	}
}

func TestClassifyOSEmptyWhenNoSignal(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	got := c.ClassifyOS(rec)
	if got.Family != "" {
		t.Errorf("Family = %q, want empty", got.Family)
	}
}
