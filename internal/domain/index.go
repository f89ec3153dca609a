package domain

import "sort"

// AvailabilityIndex answers per-facility availability lookups. It is built
// once from a [JoinResult] and is read-only afterwards.
type AvailabilityIndex struct {
	columns []StatusColumn
	rows    map[string][]AvailabilityRecord
	byDate  map[string]map[string][]AvailabilityRecord
	dates   []string
	ages    []int
}

// NewAvailabilityIndex indexes the joined availability rows by facility and
// by (facility, date).
func NewAvailabilityIndex(jr *JoinResult) *AvailabilityIndex {
	idx := &AvailabilityIndex{
		columns: jr.Columns,
		rows:    jr.Availability,
		byDate:  make(map[string]map[string][]AvailabilityRecord, len(jr.Availability)),
	}

	dateSet := make(map[string]struct{})
	for id, rows := range jr.Availability {
		perDate := make(map[string][]AvailabilityRecord)
		for _, r := range rows {
			if r.Date == "" {
				continue
			}
			perDate[r.Date] = append(perDate[r.Date], r)
			dateSet[r.Date] = struct{}{}
		}
		idx.byDate[id] = perDate
	}

	for d := range dateSet {
		idx.dates = append(idx.dates, d)
	}
	sort.Strings(idx.dates)

	ageSet := make(map[int]struct{})
	for _, c := range jr.Columns {
		if c.HasAge() {
			ageSet[c.Age] = struct{}{}
		}
	}
	for a := range ageSet {
		idx.ages = append(idx.ages, a)
	}
	sort.Ints(idx.ages)

	return idx
}

// Columns returns the status columns in bucket order.
func (x *AvailabilityIndex) Columns() []StatusColumn {
	return x.columns
}

// Rows returns every row for the facility in date order.
func (x *AvailabilityIndex) Rows(id string) []AvailabilityRecord {
	return x.rows[id]
}

// RowsForDate returns the facility's rows for one exact date, or nil.
func (x *AvailabilityIndex) RowsForDate(id, date string) []AvailabilityRecord {
	return x.byDate[id][date]
}

// ColumnForAge returns the first bucket whose parsed age equals age.
func (x *AvailabilityIndex) ColumnForAge(age int) (StatusColumn, bool) {
	for _, c := range x.columns {
		if c.Age == age {
			return c, true
		}
	}
	return StatusColumn{}, false
}

// StatusFor returns the status of the facility's first row on date for the
// bucket matching age. It returns "" when no row or no column matches.
func (x *AvailabilityIndex) StatusFor(id, date string, age int) string {
	rows := x.RowsForDate(id, date)
	if len(rows) == 0 {
		return ""
	}
	col, ok := x.ColumnForAge(age)
	if !ok {
		return ""
	}
	return rows[0].Status(col.BucketIndex)
}

// Dates returns the distinct non-empty dates across all facilities, sorted.
func (x *AvailabilityIndex) Dates() []string {
	return x.dates
}

// Ages returns the distinct parsed ages of the status columns, sorted.
// Columns without a parseable age are not included.
func (x *AvailabilityIndex) Ages() []int {
	return x.ages
}
