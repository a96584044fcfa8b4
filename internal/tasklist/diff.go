package tasklist

import "github.com/planeta/qualitycheck/internal/model"

// Comparison is the difference between two task lists.
type Comparison struct {
	// New holds items present only in the current list.
	New []model.ReportItem `json:"new,omitempty"`

	// Resolved holds items present only in the previous list.
	Resolved []model.ReportItem `json:"resolved,omitempty"`

	// Unchanged is the number of items present in both.
	Unchanged int `json:"unchanged"`
}

// Diff compares two task lists by uid. Items keep the order of the list
// they come from.
func Diff(previous, current []model.ReportItem) Comparison {
	prev := make(map[string]bool, len(previous))
	for _, item := range previous {
		prev[item.UID] = true
	}
	cur := make(map[string]bool, len(current))
	for _, item := range current {
		cur[item.UID] = true
	}

	var c Comparison
	for _, item := range current {
		if !prev[item.UID] {
			c.New = append(c.New, item)
		}
	}
	for _, item := range previous {
		if cur[item.UID] {
			c.Unchanged++
		} else {
			c.Resolved = append(c.Resolved, item)
		}
	}
	return c
}
