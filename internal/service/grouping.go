package service

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/rsvp-agenda/internal/models"
)

const (
	monthLabelLayout = "January 2006"
	weekLabelLayout  = "Jan 2, 2006"
	undatedLabel     = "Undated"
	// ungroupedKey stands in for the empty label in collapse state.
	ungroupedKey = "\x00ungrouped"
)

// FilterEvents keeps events whose searchable text contains term,
// case-insensitively. Only the empty term keeps everything; whitespace in
// term is matched as typed. The input slice is not modified.
func FilterEvents(events []models.Event, term string) []models.Event {
	needle := strings.ToLower(term)
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if needle == "" || strings.Contains(strings.ToLower(e.SearchText()), needle) {
			out = append(out, e)
		}
	}
	return out
}

// SortEvents orders events by date, then start time, in place.
func SortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		return events[i].Start < events[j].Start
	})
}

// GroupEvents filters, sorts and partitions events into labelled groups.
// Groups appear in the order their first member is met in the sorted
// sequence, so the result is chronological rather than alphabetical.
func GroupEvents(events []models.Event, term string, mode models.GroupMode) []models.EventGroup {
	filtered := FilterEvents(events, term)
	SortEvents(filtered)

	if mode != models.GroupByWeek && mode != models.GroupByMonth {
		return []models.EventGroup{{Label: "", Events: filtered}}
	}

	groups := make([]models.EventGroup, 0)
	index := make(map[string]int)
	for _, e := range filtered {
		label := GroupLabel(e, mode)
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, models.EventGroup{Label: label})
		}
		groups[i].Events = append(groups[i].Events, e)
	}
	return groups
}

// GroupLabel returns the heading e belongs under for mode.
func GroupLabel(e models.Event, mode models.GroupMode) string {
	day, err := e.Day()
	if err != nil {
		if mode == models.GroupByNone {
			return ""
		}
		return undatedLabel
	}
	switch mode {
	case models.GroupByMonth:
		return day.Format(monthLabelLayout)
	case models.GroupByWeek:
		return "Week of " + WeekStart(day).Format(weekLabelLayout)
	default:
		return ""
	}
}

// WeekStart returns the Monday on or before day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// CollapseState remembers which group labels the user collapsed. It is
// independent of grouping: changing the search term or mode never resets
// it, and a label reused by a later grouping stays collapsed.
type CollapseState struct {
	mu        sync.RWMutex
	collapsed map[string]struct{}
}

// NewCollapseState returns an empty state.
func NewCollapseState() *CollapseState {
	return &CollapseState{collapsed: make(map[string]struct{})}
}

// Toggle flips label and returns whether it is now collapsed.
func (s *CollapseState) Toggle(label string) bool {
	key := collapseKey(label)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collapsed[key]; ok {
		delete(s.collapsed, key)
		return false
	}
	s.collapsed[key] = struct{}{}
	return true
}

// IsCollapsed reports whether label is collapsed.
func (s *CollapseState) IsCollapsed(label string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collapsed[collapseKey(label)]
	return ok
}

func collapseKey(label string) string {
	if label == "" {
		return ungroupedKey
	}
	return label
}
