package dispatch

import "strings"

// matchType checks if an activity type matches a subscription pattern.
//
// Supported patterns:
//
//	"pr.merged"  → exact match
//	"pr.*"       → matches pr.opened, pr.merged, etc. (single segment wildcard)
//	"*"          → matches everything
func matchType(pattern, eventType string) bool {
	if pattern == "*" {
		return true
	}

	if pattern == eventType {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	eventParts := strings.Split(eventType, ".")

	if len(patternParts) != len(eventParts) {
		return false
	}

	for i, pp := range patternParts {
		if pp == "*" {
			continue
		}
		if pp != eventParts[i] {
			return false
		}
	}

	return true
}
