package cache

import "time"

// Cache keys follow the "<entity>:<field>=<value>[:<field>=<value>...]" scheme.
// Active-list keys embed today's date so entries retire naturally at midnight.

const (
	// DefaultDetailTTL applies to single-renovation entries.
	DefaultDetailTTL = 1 * time.Hour
	// DefaultListTTL applies to active and per-refuge list entries, which
	// change day to day.
	DefaultListTTL = 10 * time.Minute
)

// RenovationDetailKey is the cache key for one renovation document.
func RenovationDetailKey(id string) string {
	return "renovation_detail:renovation_id=" + id
}

// ActiveListKey is the cache key for the platform-wide active-renovations
// list on a given civil date.
func ActiveListKey(today string) string {
	return "renovation_list:list_type=active:date=" + today
}

// RefugeListKey is the cache key for a refuge's renovation list, either the
// active subset or all of them.
func RefugeListKey(refugeID string, activeOnly bool) string {
	suffix := ":active=all"
	if activeOnly {
		suffix = ":active=active"
	}
	return "renovation_refuge:refuge_id=" + refugeID + suffix
}

// ListPrefix covers every active-list key regardless of date.
func ListPrefix() string {
	return "renovation_list:"
}

// RefugePrefix covers both the active and the all variants for one refuge.
func RefugePrefix(refugeID string) string {
	return "renovation_refuge:refuge_id=" + refugeID + ":"
}
