package domain

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/childcare-availability/internal/tabular"
)

// Required and well-known column headers.
const (
	ColumnFacilityNo = "NO"
	ColumnName       = "名称"
	ColumnLatitude   = "緯度"
	ColumnLongitude  = "経度"

	ColumnAvailabilityFacilityNo = "施設No."
	ColumnDate                   = "日付"
	ColumnWeekday                = "曜日"

	// StatusColumnPrefix marks availability columns holding slot status.
	StatusColumnPrefix = "一時保育("

	// AvailabilityDataset names the availability table in errors and logs.
	AvailabilityDataset = "availability"
)

// UnknownAge is the age of a status column whose header carries no number.
// It sorts such columns after every real age.
const UnknownAge = math.MaxInt

// ageRe extracts the leading integer after "(" in a status header,
// e.g. "一時保育(3歳児)" -> "3".
var ageRe = regexp.MustCompile(`\((\d+)`)

// JoinStats summarizes what the join admitted and skipped.
type JoinStats struct {
	FacilitiesAdmitted    int `json:"facilities_admitted"`
	RowsMissingID         int `json:"rows_missing_id"`
	RowsBadCoordinates    int `json:"rows_bad_coordinates"`
	RowsDuplicate         int `json:"rows_duplicate"`
	AvailabilityRows      int `json:"availability_rows"`
	AvailabilityDiscarded int `json:"availability_discarded"`
	JoinHits              int `json:"join_hits"`
	JoinMisses            int `json:"join_misses"`
	OrphanFacilities      int `json:"orphan_facilities"`
}

// JoinResult is the deduplicated facility registry plus each facility's
// availability rows sorted by date. Order lists registry keys in insertion
// order so callers can iterate deterministically.
type JoinResult struct {
	Facilities   map[string]Facility
	Order        []string
	Availability map[string][]AvailabilityRecord
	Columns      []StatusColumn
	Stats        JoinStats
}

// Join builds the facility registry and the per-facility availability lists.
//
// Tables are consumed in the given order and the first table to mention an
// identifier wins, regardless of category. Rows with an empty identifier or
// coordinates that are not finite numbers are skipped. A table missing a
// required column fails the join with a [SchemaError].
func Join(facilities []SourcedTable, availability tabular.Table) (*JoinResult, error) {
	res := &JoinResult{
		Facilities:   make(map[string]Facility),
		Availability: make(map[string][]AvailabilityRecord),
	}

	for _, src := range facilities {
		if err := res.addFacilities(src); err != nil {
			return nil, err
		}
	}

	if err := res.addAvailability(availability); err != nil {
		return nil, err
	}

	for _, id := range res.Order {
		if len(res.Availability[id]) > 0 {
			res.Stats.JoinHits++
		} else {
			res.Stats.JoinMisses++
		}
	}
	for id := range res.Availability {
		if _, ok := res.Facilities[id]; !ok {
			res.Stats.OrphanFacilities++
		}
	}
	return res, nil
}

func (res *JoinResult) addFacilities(src SourcedTable) error {
	dataset := src.URI
	if dataset == "" {
		dataset = string(src.Category)
	}

	t := src.Table
	idCol, err := requireColumn(t, dataset, ColumnFacilityNo)
	if err != nil {
		return err
	}
	nameCol, err := requireColumn(t, dataset, ColumnName)
	if err != nil {
		return err
	}
	latCol, err := requireColumn(t, dataset, ColumnLatitude)
	if err != nil {
		return err
	}
	lonCol, err := requireColumn(t, dataset, ColumnLongitude)
	if err != nil {
		return err
	}

	addr1Col := findColumn(t.Headers, exactHeader("所在地1"))
	addr2Col := findColumn(t.Headers, exactHeader("所在地2"))
	optional := resolveOptionalColumns(t.Headers)

	for _, row := range t.Rows {
		rawID := tabular.Cell(row, idCol)
		id := NormalizeIdentifier(rawID)
		if id == "" {
			res.Stats.RowsMissingID++
			continue
		}
		if _, exists := res.Facilities[id]; exists {
			res.Stats.RowsDuplicate++
			continue
		}

		lat, okLat := parseCoordinate(tabular.Cell(row, latCol))
		lon, okLon := parseCoordinate(tabular.Cell(row, lonCol))
		if !okLat || !okLon {
			res.Stats.RowsBadCoordinates++
			continue
		}

		f := Facility{
			ID:       id,
			RawID:    rawID,
			Name:     tabular.Cell(row, nameCol),
			Lat:      lat,
			Lon:      lon,
			Category: src.Category,
			Address:  joinNonEmpty(" ", tabular.Cell(row, addr1Col), tabular.Cell(row, addr2Col)),
		}
		for _, oc := range optional {
			oc.field.assign(&f, tabular.Cell(row, oc.index))
		}

		res.Facilities[id] = f
		res.Order = append(res.Order, id)
		res.Stats.FacilitiesAdmitted++
	}
	return nil
}

func (res *JoinResult) addAvailability(t tabular.Table) error {
	idCol, err := requireColumn(t, AvailabilityDataset, ColumnAvailabilityFacilityNo)
	if err != nil {
		return err
	}
	dateCol, err := requireColumn(t, AvailabilityDataset, ColumnDate)
	if err != nil {
		return err
	}
	weekdayCol := t.IndexOf(ColumnWeekday)

	res.Columns = DiscoverStatusColumns(t.Headers)

	for _, row := range t.Rows {
		id := NormalizeIdentifier(tabular.Cell(row, idCol))
		if id == "" {
			res.Stats.AvailabilityDiscarded++
			continue
		}

		statuses := make([]string, len(res.Columns))
		for i, col := range res.Columns {
			statuses[i] = tabular.Cell(row, col.SourceIndex)
		}

		res.Availability[id] = append(res.Availability[id], AvailabilityRecord{
			FacilityID: id,
			Date:       strings.TrimSpace(tabular.Cell(row, dateCol)),
			Weekday:    tabular.Cell(row, weekdayCol),
			Statuses:   statuses,
		})
		res.Stats.AvailabilityRows++
	}

	// Dates are "YYYY-MM-DD"; string order is calendar order. Stable so the
	// first row of a duplicated date stays authoritative.
	for _, rows := range res.Availability {
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date < rows[j].Date })
	}
	return nil
}

// DiscoverStatusColumns finds every header starting with
// [StatusColumnPrefix] and orders them by age, then source position.
// Each column's BucketIndex is its position in the returned slice.
func DiscoverStatusColumns(headers []string) []StatusColumn {
	var cols []StatusColumn
	for i, h := range headers {
		if !strings.HasPrefix(h, StatusColumnPrefix) {
			continue
		}
		cols = append(cols, StatusColumn{Header: h, SourceIndex: i, Age: parseHeaderAge(h)})
	}

	sort.SliceStable(cols, func(i, j int) bool {
		if cols[i].Age != cols[j].Age {
			return cols[i].Age < cols[j].Age
		}
		return cols[i].SourceIndex < cols[j].SourceIndex
	})
	for i := range cols {
		cols[i].BucketIndex = i
	}
	return cols
}

func parseHeaderAge(header string) int {
	m := ageRe.FindStringSubmatch(header)
	if len(m) != 2 {
		return UnknownAge
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return UnknownAge
	}
	return age
}

func requireColumn(t tabular.Table, dataset, name string) (int, error) {
	idx := t.IndexOf(name)
	if idx < 0 {
		return -1, &SchemaError{Dataset: dataset, Column: name}
	}
	return idx, nil
}

// parseCoordinate accepts only finite decimal numbers.
func parseCoordinate(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
