package domain

import "strconv"

// DefaultLabelMinZoom is the zoom level at which facility labels appear.
const DefaultLabelMinZoom = 14

// FilterState is the externally driven selection the display is derived
// from. Date "" means no date is selected; a nil Age means all ages.
type FilterState struct {
	Date          string
	Age           *int
	Categories    CategorySet
	LabelsEnabled bool
	Origin        *LatLon
}

// HasDate reports whether a date is selected.
func (f FilterState) HasDate() bool {
	return f.Date != ""
}

// HasAge reports whether an age is selected.
func (f FilterState) HasAge() bool {
	return f.Age != nil
}

// WithAge returns a copy of f selecting age.
func (f FilterState) WithAge(age int) FilterState {
	f.Age = &age
	return f
}

// AgeLabel is the selected age as shown in the summary line.
func (f FilterState) AgeLabel() string {
	if f.Age == nil {
		return "全年齢"
	}
	return strconv.Itoa(*f.Age) + "歳"
}

// LabelsVisibleAt reports whether labels are shown at the given zoom.
func LabelsVisibleAt(zoom, minZoom int) bool {
	return zoom >= minZoom
}
