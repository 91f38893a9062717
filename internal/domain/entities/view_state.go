package entities

import "strings"

// DayType selects weekday or weekend pricing
type DayType string

const (
	Weekday DayType = "weekday"
	Weekend DayType = "weekend"
)

// ParseDayType parses a day type, defaulting to Weekday
func ParseDayType(s string) DayType {
	if DayType(strings.ToLower(strings.TrimSpace(s))) == Weekend {
		return Weekend
	}
	return Weekday
}

// SortKey selects the ordering of the lot list
type SortKey string

const (
	SortDefault  SortKey = "default"
	SortHourly   SortKey = "hourly"
	SortDaily    SortKey = "daily"
	SortDistance SortKey = "distance"
)

// IsValid reports whether k is a known sort key
func (k SortKey) IsValid() bool {
	switch k {
	case SortDefault, SortHourly, SortDaily, SortDistance:
		return true
	}
	return false
}

// ParseSortKey parses a sort key, defaulting to SortDefault
func ParseSortKey(s string) SortKey {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if k.IsValid() {
		return k
	}
	return SortDefault
}

// ViewState is the transient list/map state of one client. Transitions return
// a new value; the receiver is never modified.
type ViewState struct {
	Sort        SortKey `json:"sort"`
	SelectedID  *int    `json:"selected_id,omitempty"`
	ShowWeekend bool    `json:"show_weekend"`
}

// NewViewState returns the state a client starts with
func NewViewState() ViewState {
	return ViewState{Sort: SortDefault}
}

// DayType returns the day type selected by the weekend toggle
func (s ViewState) DayType() DayType {
	if s.ShowWeekend {
		return Weekend
	}
	return Weekday
}

// WithSort returns the state with a new sort key
func (s ViewState) WithSort(k SortKey) ViewState {
	if !k.IsValid() {
		k = SortDefault
	}
	s.Sort = k
	return s
}

// Select returns the state with the given lot selected
func (s ViewState) Select(id int) ViewState {
	s.SelectedID = &id
	return s
}

// ClearSelection returns the state with nothing selected
func (s ViewState) ClearSelection() ViewState {
	s.SelectedID = nil
	return s
}

// ToggleWeekend returns the state with the weekend selector flipped
func (s ViewState) ToggleWeekend() ViewState {
	s.ShowWeekend = !s.ShowWeekend
	return s
}

// IsSelected reports whether id is the selected lot
func (s ViewState) IsSelected(id int) bool {
	return s.SelectedID != nil && *s.SelectedID == id
}
