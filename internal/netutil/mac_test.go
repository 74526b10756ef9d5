package netutil

import "testing"

func TestNormalizeMAC(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"colon form", "aa:bb:cc:dd:ee:ff", "AA:BB:CC:DD:EE:FF", false},
		{"dash form", "aa-bb-cc-dd-ee-ff", "AA:BB:CC:DD:EE:FF", false},
		{"unseparated", "aabbccddeeff", "AA:BB:CC:DD:EE:FF", false},
		{"abbreviated octets", "0:0:5e:0:1:f", "00:00:5E:00:01:0F", false},
		{"too few octets", "aa:bb:cc", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeMAC(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizeMAC(%q) expected error, got %q", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizeMAC(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeMAC(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsBroadcastMAC(t *testing.T) {
	if !IsBroadcastMAC("FF:FF:FF:FF:FF:FF") {
		t.Error("expected broadcast MAC to be detected")
	}
	if IsBroadcastMAC("AA:BB:CC:DD:EE:FF") {
		t.Error("did not expect broadcast MAC")
	}
}

func TestIsMulticastAndLocalMAC(t *testing.T) {
	tests := []struct {
		mac        string
		multicast  bool
		localAdmin bool
	}{
		{"01:00:5E:00:00:01", true, false},
		{"02:00:00:00:00:01", false, true},
		{"AA:BB:CC:DD:EE:FF", false, true},
	}
	for _, tt := range tests {
		if got := IsMulticastMAC(tt.mac); got != tt.multicast {
			t.Errorf("IsMulticastMAC(%q) = %v, want %v", tt.mac, got, tt.multicast)
		}
		if got := IsLocallyAdministeredMAC(tt.mac); got != tt.localAdmin {
			t.Errorf("IsLocallyAdministeredMAC(%q) = %v, want %v", tt.mac, got, tt.localAdmin)
		}
	}
}
