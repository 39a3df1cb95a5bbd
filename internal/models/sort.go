package models

import (
	"sort"
	"time"
)

// SortByCreatedDesc orders monitors newest first. A missing CreatedAt counts
// as the zero instant, so those monitors sort last. Ties keep their
// incoming order.
func SortByCreatedDesc(ms []Monitor) {
	sort.SliceStable(ms, func(i, j int) bool {
		return createdOrZero(ms[i]).After(createdOrZero(ms[j]))
	})
}

// IsSortedByCreatedDesc reports whether ms already satisfies the order.
func IsSortedByCreatedDesc(ms []Monitor) bool {
	for i := 1; i < len(ms); i++ {
		if createdOrZero(ms[i]).After(createdOrZero(ms[i-1])) {
			return false
		}
	}
	return true
}

func createdOrZero(m Monitor) time.Time {
	if m.CreatedAt == nil {
		return time.Time{}
	}
	return *m.CreatedAt
}
