package esper

import (
	"net"
	"testing"
)

func TestBuildParseDiscoveryRoundTrip(t *testing.T) {
	devID := uint32(7)
	filter := DiscoveryFilter{
		DeviceID:   &devID,
		DeviceType: "sensor",
		DeviceName: "kitchen",
		DeviceRev:  "rev-a",
		HardwareID: "HW123",
	}
	payload := buildDiscoveryPayload(filter)
	if len(payload) == 0 {
		t.Fatal("buildDiscoveryPayload returned empty payload")
	}

	// A device's response shares the same fixed-width string fields plus
	// device id/uptime/ip/port; simulate one directly from the filter.
	resp := make([]byte, 128+64+64+32+4+4+4+16+2)
	copy(resp[0:128], filter.HardwareID)
	copy(resp[128:192], filter.DeviceType)
	copy(resp[192:256], filter.DeviceName)
	copy(resp[256:288], filter.DeviceRev)

	dev, ok := parseDiscoveryResponse(resp)
	if !ok {
		t.Fatal("parseDiscoveryResponse returned false")
	}
	if dev.HardwareID != filter.HardwareID {
		t.Errorf("HardwareID = %q, want %q", dev.HardwareID, filter.HardwareID)
	}
	if dev.Type != filter.DeviceType {
		t.Errorf("Type = %q, want %q", dev.Type, filter.DeviceType)
	}
	if dev.Name != filter.DeviceName {
		t.Errorf("Name = %q, want %q", dev.Name, filter.DeviceName)
	}
	if dev.Revision != filter.DeviceRev {
		t.Errorf("Revision = %q, want %q", dev.Revision, filter.DeviceRev)
	}
}

func TestParseDiscoveryResponseTooShort(t *testing.T) {
	if _, ok := parseDiscoveryResponse(make([]byte, 10)); ok {
		t.Error("expected false for short discovery payload")
	}
}

func TestParseDiscoveryResponseIPOrder(t *testing.T) {
	resp := make([]byte, 128+64+64+32+4+4+4+16+2)
	off := 128 + 64 + 64 + 32 + 4 + 4
	resp[off] = 192
	resp[off+1] = 168
	resp[off+2] = 1
	resp[off+3] = 42

	dev, ok := parseDiscoveryResponse(resp)
	if !ok {
		t.Fatal("parseDiscoveryResponse returned false")
	}
	want := net.IPv4(192, 168, 1, 42)
	if !dev.IPv4.Equal(want) {
		t.Errorf("IPv4 = %v, want %v", dev.IPv4, want)
	}
}

func TestFlagByte(t *testing.T) {
	if flagByte(true) != 0xFF {
		t.Errorf("flagByte(true) = %#x, want 0xff", flagByte(true))
	}
	if flagByte(false) != 0x00 {
		t.Errorf("flagByte(false) = %#x, want 0x00", flagByte(false))
	}
}
