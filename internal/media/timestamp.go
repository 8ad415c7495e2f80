// SPDX-License-Identifier: MIT

package media

import (
	"fmt"
	"math"
)

// formatTimestamp renders seconds as HH:MM:SS.mmm with fixed millisecond
// precision and zero padding, the timestamp form the tool's seek and
// duration flags expect.
func formatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	h := millis / 3_600_000
	m := (millis % 3_600_000) / 60_000
	s := (millis % 60_000) / 1000
	ms := millis % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
