package classifier

import (
	"testing"

	"nscan/internal/model"
)

func TestClassifyUsagePrinterViaMDNS(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.Hostname = "printer.local"
	rec.ServiceTypes = []string{"_ipp._tcp.local."}
	got, conf := c.ClassifyUsage(rec)
	if got != UsagePrinter {
		t.Errorf("usage = %q, want %q", got, UsagePrinter)
	}
	if conf <= 30 {
		t.Errorf("confidence = %d, want > 30", conf)
	}
}

func TestClassifyUsageComputerFromPortCombo(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.Hostname = "DESKTOP-ABC"
	rec.Ports = []int{445, 3389}
	rec.OSFamily = "Windows"
	got, conf := c.ClassifyUsage(rec)
	if got != UsageComputer {
		t.Errorf("usage = %q, want %q", got, UsageComputer)
	}
	if conf <= 30 {
		t.Errorf("confidence = %d, want > 30", conf)
	}
}

func TestClassifyUsageSwitchFromVendorAndHostname(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.Hostname = "sw-closet-1"
	rec.Manufacturer = "Cisco Systems"
	rec.Ports = []int{161}
	got, conf := c.ClassifyUsage(rec)
	if got != UsageSwitch {
		t.Errorf("usage = %q, want %q", got, UsageSwitch)
	}
	if conf <= 30 {
		t.Errorf("confidence = %d, want > 30", conf)
	}
}

func TestClassifyUsageUnknownWithNoSignal(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	got, conf := c.ClassifyUsage(rec)
	if got != UsageUnknown {
		t.Errorf("usage = %q, want %q", got, UsageUnknown)
	}
	if conf != 0 {
		t.Errorf("confidence = %d, want 0", conf)
	}
}
