package esper

import "testing"

func TestParseURL(t *testing.T) {
	cases := []struct {
		name        string
		in          string
		wantIP      string
		wantPort    int
		wantToken   *uint64
		expectError bool
	}{
		{name: "ip only", in: "192.168.1.5", wantIP: "192.168.1.5", wantPort: DefaultPort},
		{name: "ip and port", in: "192.168.1.5:9000", wantIP: "192.168.1.5", wantPort: 9000},
		{name: "hostname", in: "device.local", wantIP: "device.local", wantPort: DefaultPort},
		{name: "decimal token", in: "12345@10.0.0.1", wantIP: "10.0.0.1", wantPort: DefaultPort, wantToken: uint64Ptr(12345)},
		{name: "hex token", in: "0xDEADBEEF@10.0.0.1:27501", wantIP: "10.0.0.1", wantPort: 27501, wantToken: uint64Ptr(0xDEADBEEF)},
		{name: "missing host", in: "", expectError: true},
		{name: "bad token", in: "notanumber@10.0.0.1", expectError: true},
		{name: "bad port", in: "10.0.0.1:notaport", expectError: true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseURL(c.in)
			if c.expectError {
				if err == nil {
					t.Fatalf("ParseURL(%q) = %+v, want error", c.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseURL(%q): %v", c.in, err)
			}
			if got.IP != c.wantIP {
				t.Errorf("IP = %q, want %q", got.IP, c.wantIP)
			}
			if got.Port != c.wantPort {
				t.Errorf("Port = %d, want %d", got.Port, c.wantPort)
			}
			if (got.AuthToken == nil) != (c.wantToken == nil) {
				t.Fatalf("AuthToken = %v, want %v", got.AuthToken, c.wantToken)
			}
			if got.AuthToken != nil && *got.AuthToken != *c.wantToken {
				t.Errorf("AuthToken = %d, want %d", *got.AuthToken, *c.wantToken)
			}
		})
	}
}

func uint64Ptr(v uint64) *uint64 { return &v }
