package ratelimit

import "testing"

func TestParseBandwidth(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"1024", 1024, false},
		{"10MB", 10 * 1000 * 1000, false},
		{"512KiB/s", 512 * 1024, false},
		{"1 MiB", 1024 * 1024, false},
		{"2MBps", 2 * 1000 * 1000, false},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBandwidth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBandwidth(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseBandwidth(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestFormatBandwidth(t *testing.T) {
	if got := FormatBandwidth(0); got != "unlimited" {
		t.Errorf("FormatBandwidth(0) = %q, want unlimited", got)
	}
	if got := FormatBandwidth(1024 * 1024); got != "1.0 MiB/s" {
		t.Errorf("FormatBandwidth(1MiB) = %q, want 1.0 MiB/s", got)
	}
}
