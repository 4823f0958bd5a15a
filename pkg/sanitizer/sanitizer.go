// Package sanitizer provides input normalization for data arriving from
// agents and operators.
//
// All normalization functions are idempotent - applying them multiple times
// produces the same result. Functions handle invalid input gracefully,
// typically by returning the empty string rather than errors; validation is
// a separate step.
package sanitizer

import "strings"

// NormalizeUsername trims surrounding whitespace and lowercases. Usernames
// are compared case-insensitively across login paths.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NormalizeMAC converts a hardware address to the canonical lowercase
// colon-separated form. "AA-BB-CC-DD-EE-FF" and "aabb.ccdd.eeff" both
// become "aa:bb:cc:dd:ee:ff". Input that does not contain exactly twelve
// hex digits is returned empty.
func NormalizeMAC(mac string) string {
	var hex []byte
	for _, r := range strings.ToLower(strings.TrimSpace(mac)) {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f':
			hex = append(hex, byte(r))
		case r == ':', r == '-', r == '.', r == ' ':
			// separator, skip
		default:
			return ""
		}
	}
	if len(hex) != 12 {
		return ""
	}

	var b strings.Builder
	b.Grow(17)
	for i := 0; i < 12; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.Write(hex[i : i+2])
	}
	return b.String()
}

// NormalizeLocation collapses internal whitespace runs and trims the
// result. Free-text locations come from operator consoles and GPS units
// with inconsistent spacing.
func NormalizeLocation(location string) string {
	return strings.Join(strings.Fields(location), " ")
}
