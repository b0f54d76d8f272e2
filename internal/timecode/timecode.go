// Package timecode converts the compact numeric time-of-day encoding used by
// the flight extracts ("930" meaning 09:30, "5" meaning 00:05) into canonical
// "HH:MM:SS" strings.
//
// Parsing is deliberately forgiving: blank or malformed values degrade to a
// null marker instead of an error, because the source data routinely leaves
// these columns empty for cancelled or diverted flights.
package timecode

import (
	"fmt"
	"strings"
)

// Normalize converts a compact "HHMM" value into "HH:MM:SS". ok is false when
// the input is blank, non-numeric, longer than four digits, or out of range;
// callers should store NULL in that case.
//
// An already-canonical "HH:MM:SS" string is returned unchanged, so applying
// Normalize twice is safe.
func Normalize(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if isCanonical(s) {
		return s, true
	}
	if len(s) > 4 {
		return "", false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", false
		}
		n = n*10 + int(r-'0')
	}
	hh, mm := n/100, n%100
	// The source uses "2400" for midnight in a handful of rows; pandas'
	// %H%M parser rejects it, and so do we.
	if hh > 23 || mm > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d:00", hh, mm), true
}

// isCanonical reports whether s already has the "HH:MM:SS" shape.
func isCanonical(s string) bool {
	if len(s) != 8 || s[2] != ':' || s[5] != ':' {
		return false
	}
	for i, r := range s {
		if i == 2 || i == 5 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return s[:2] < "24" && s[3:5] < "60" && s[6:] < "60"
}
