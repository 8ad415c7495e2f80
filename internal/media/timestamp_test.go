// SPDX-License-Identifier: MIT

package media

import (
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00:00.000"},
		{"sub-second", 0.5, "00:00:00.500"},
		{"millisecond rounding", 1.2345, "00:00:01.235"},
		{"minute boundary", 60, "00:01:00.000"},
		{"hour boundary", 3600, "01:00:00.000"},
		{"mixed", 3723.042, "01:02:03.042"},
		{"large", 10*3600 + 59*60 + 59.999, "10:59:59.999"},
		{"negative clamps to zero", -5, "00:00:00.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatTimestamp(tt.seconds); got != tt.want {
				t.Errorf("formatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}
