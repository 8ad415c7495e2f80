// SPDX-License-Identifier: MIT

package api

import (
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// isPathTraversal screens a client-supplied filename for traversal attempts.
// It decodes repeatedly to catch double encoding, normalizes Unicode, and
// looks for parent references, separators and NUL bytes.
func isPathTraversal(name string) bool {
	decoded := name
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	for _, pat := range []string{"..", "/", "\\", "%00", "\x00"} {
		if strings.Contains(lower, pat) {
			return true
		}
	}

	normalized := strings.ToLower(norm.NFC.String(decoded))
	return strings.Contains(normalized, "..") ||
		strings.ContainsAny(normalized, `/\`)
}
