// Package catalog holds the built-in service catalog and the fallback rules
// applied when a guild has not stored its own point values or helper slots.
package catalog

import "sort"

// DefaultSlots is the helper slot capacity for services without an override.
const DefaultSlots = 3

// defaultPointValues is the built-in catalog of services and their point
// rewards.
var defaultPointValues = map[string]int{
	"Ultra Speaker Express":     8,
	"Ultra Gramiel Express":     7,
	"4-Man Ultra Daily Express": 4,
	"7-Man Ultra Daily Express": 7,
	"Ultra Weekly Express":      12,
	"Grim Express":              10,
	"Daily Temple Express":      6,
}

// defaultHelperSlots overrides the slot capacity for the larger runs. Every
// other service uses DefaultSlots.
var defaultHelperSlots = map[string]int{
	"7-Man Ultra Daily Express": 6,
	"Grim Express":              6,
}

// PointValues returns the stored point values for a guild, falling back to
// the built-in catalog when the guild has none. The fallback is applied at
// read time and never persisted.
func PointValues(stored map[string]int) map[string]int {
	if len(stored) > 0 {
		return stored
	}
	return clone(defaultPointValues)
}

// HelperSlots returns the stored helper slot overrides for a guild, falling
// back to the built-in overrides when the guild has none.
func HelperSlots(stored map[string]int) map[string]int {
	if len(stored) > 0 {
		return stored
	}
	return clone(defaultHelperSlots)
}

// Points returns the point value for a service, or 0 when the service is not
// in the given catalog.
func Points(values map[string]int, service string) int {
	return values[service]
}

// Slots returns the helper slot capacity for a service, defaulting to
// DefaultSlots when the service has no override.
func Slots(slots map[string]int, service string) int {
	if n, ok := slots[service]; ok {
		return n
	}
	return DefaultSlots
}

// Services returns the service names of a point-value catalog in a stable
// order matching the built-in catalog, with unknown services appended.
func Services(values map[string]int) []string {
	order := []string{
		"Ultra Speaker Express",
		"Ultra Gramiel Express",
		"4-Man Ultra Daily Express",
		"7-Man Ultra Daily Express",
		"Ultra Weekly Express",
		"Grim Express",
		"Daily Temple Express",
	}

	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, name := range order {
		if _, ok := values[name]; ok {
			out = append(out, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range values {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func clone(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
