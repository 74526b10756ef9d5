package classifier

import (
	"testing"

	"nscan/internal/model"
)

func TestClassifyModelFromOSHint(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.OSHint = "Linux/3.14 UPnP/1.0 BRAVIA/2013"
	if got := c.ClassifyModel(rec); got != "Bravia TV" {
		t.Errorf("Model = %q, want Bravia TV", got)
	}
}

func TestClassifyModelFromServiceType(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	rec.ServiceTypes = []string{"_airplay._tcp.local."}
	if got := c.ClassifyModel(rec); got != "AirPlay Receiver" {
		t.Errorf("Model = %q, want AirPlay Receiver", got)
	}
}

func TestClassifyModelEmptyWhenNoSignal(t *testing.T) {
	c := New(nil)
	rec := model.NewDeviceRecord()
	if got := c.ClassifyModel(rec); got != "" {
		t.Errorf("Model = %q, want empty", got)
	}
}
