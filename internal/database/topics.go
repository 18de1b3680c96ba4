// internal/database/topics.go
package database

import (
	"sort"
	"strings"
)

// mergeTopics combines a comma-separated topic list with a new keyword,
// dropping duplicates and empties. Output order is sorted for stable rows.
func mergeTopics(current, keyword string) string {
	seen := map[string]bool{}
	for _, t := range strings.Split(current, ",") {
		if t = strings.TrimSpace(t); t != "" {
			seen[t] = true
		}
	}
	if keyword = strings.TrimSpace(keyword); keyword != "" {
		seen[keyword] = true
	}

	merged := make([]string, 0, len(seen))
	for t := range seen {
		merged = append(merged, t)
	}
	sort.Strings(merged)
	return strings.Join(merged, ",")
}
