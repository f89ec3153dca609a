package domain

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	unnamedFacility   = "名称不明"
	noDataForDate     = "該当日なし"
	noMatchingAge     = "対象年齢なし"
	emptyStatus       = "-"
	emptyAvailability = "一時預かりの空き情報がありません。"
	timeRangeSep      = " ～ "
)

// BucketStatus is one age bucket's entry in a label summary.
type BucketStatus struct {
	AgeLabel string `json:"age_label"`
	Value    string `json:"value"`
}

// Label is the short text shown next to a marker.
type Label struct {
	Name string `json:"name"`
	// NoData is set when a date is selected but the facility has no row for it.
	NoData bool `json:"no_data,omitempty"`
	// NoMatchingAge is set when the selected age matches no status column.
	NoMatchingAge bool           `json:"no_matching_age,omitempty"`
	Buckets       []BucketStatus `json:"buckets,omitempty"`
}

// Text renders the label as plain text: the name, then the status line.
func (l Label) Text() string {
	var b strings.Builder
	b.WriteString(l.Name)
	switch {
	case l.NoData:
		b.WriteString("\n" + noDataForDate)
	case l.NoMatchingAge:
		b.WriteString("\n" + noMatchingAge)
	case len(l.Buckets) > 0:
		parts := make([]string, len(l.Buckets))
		for i, bs := range l.Buckets {
			parts[i] = bs.AgeLabel + ":" + bs.Value
		}
		b.WriteString("\n" + strings.Join(parts, " "))
	}
	return b.String()
}

// Field is one descriptive line of the detail view.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AvailabilityTable is the date by bucket grid of the detail view.
type AvailabilityTable struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t AvailabilityTable) Empty() bool {
	return len(t.Rows) == 0
}

// EmptyMessage is shown instead of an empty table.
func (t AvailabilityTable) EmptyMessage() string {
	if t.Empty() {
		return emptyAvailability
	}
	return ""
}

// Detail is the full popup content of a facility.
type Detail struct {
	Name         string            `json:"name"`
	Identifier   string            `json:"identifier"`
	SelectedDate string            `json:"selected_date,omitempty"`
	Fields       []Field           `json:"fields"`
	MapsURL      string            `json:"maps_url"`
	Label        Label             `json:"label"`
	Availability AvailabilityTable `json:"availability"`
}

// Content is the cached label and detail of one facility under one
// (date, age) key.
type Content struct {
	Label  Label  `json:"label"`
	Detail Detail `json:"detail"`
}

func displayName(f Facility) string {
	if f.Name == "" {
		return unnamedFacility
	}
	return f.Name
}

// ageLabel renders a bucket header as "3歳", or the header itself when it
// carries no age.
func ageLabel(c StatusColumn) string {
	m := ageRe.FindStringSubmatch(c.Header)
	if len(m) != 2 {
		return c.Header
	}
	return m[1] + "歳"
}

func orDash(v string) string {
	if v == "" {
		return emptyStatus
	}
	return v
}

// BuildLabel derives the label for a facility. dateRows are the facility's
// rows for filter.Date. Every bucket matching the selected age is listed.
func BuildLabel(f Facility, dateRows []AvailabilityRecord, cols []StatusColumn, filter FilterState) Label {
	l := Label{Name: displayName(f)}
	if !filter.HasDate() {
		return l
	}
	if len(dateRows) == 0 {
		l.NoData = true
		return l
	}

	row := dateRows[0]
	for _, c := range cols {
		if filter.HasAge() && c.Age != *filter.Age {
			continue
		}
		l.Buckets = append(l.Buckets, BucketStatus{
			AgeLabel: ageLabel(c),
			Value:    orDash(row.Status(c.BucketIndex)),
		})
	}
	if len(l.Buckets) == 0 {
		l.NoMatchingAge = true
	}
	return l
}

// BuildAvailabilityTable lays out every row of the facility with one column
// per bucket. Empty values render as "-".
func BuildAvailabilityTable(rows []AvailabilityRecord, cols []StatusColumn) AvailabilityTable {
	t := AvailabilityTable{
		Headers: make([]string, 0, len(cols)+2),
		Rows:    make([][]string, 0, len(rows)),
	}
	t.Headers = append(t.Headers, ColumnDate, ColumnWeekday)
	for _, c := range cols {
		t.Headers = append(t.Headers, c.Header)
	}

	for _, r := range rows {
		line := make([]string, 0, len(cols)+2)
		line = append(line, r.Date, r.Weekday)
		for _, c := range cols {
			line = append(line, orDash(r.Status(c.BucketIndex)))
		}
		t.Rows = append(t.Rows, line)
	}
	return t
}

// DescriptiveFields lists the facility's non-empty descriptive fields in
// display order. Paired times render as "start ～ end".
func DescriptiveFields(f Facility) []Field {
	var out []Field
	add := func(label, value string) {
		if value != "" {
			out = append(out, Field{Label: label, Value: value})
		}
	}
	addRange := func(label, start, end string) {
		if start != "" || end != "" {
			out = append(out, Field{Label: label, Value: start + timeRangeSep + end})
		}
	}

	add("所在地", f.Address)
	add("電話番号", f.Phone)
	add("設置主体", f.Operator)
	add("定員", f.Capacity)
	add("事業種別", f.ServiceType)
	add("利用できる曜日", f.Days)
	addRange("利用可能時間", f.TimeStart, f.TimeEnd)
	addRange("開所時間", f.OpenTime, f.CloseTime)
	addRange("保育標準時間", f.StandardStart, f.StandardEnd)
	addRange("保育短時間", f.ShortStart, f.ShortEnd)
	add("対象年齢", f.Ages)
	add("予約開始目安", f.ReserveStart)
	add("利用料・免除基準", f.Fee)
	add("備考", f.Notes)
	add("募集・申込の該当月", f.RecruitMonth)
	add("ホームページ", f.Website)
	return out
}

// MapsURL links to the facility's coordinates on Google Maps.
func MapsURL(f Facility) string {
	q := strconv.FormatFloat(f.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(f.Lon, 'f', -1, 64)
	return "https://www.google.com/maps?q=" + url.QueryEscape(q)
}

// BuildDetail derives the popup content for a facility.
func BuildDetail(f Facility, rows, dateRows []AvailabilityRecord, cols []StatusColumn, filter FilterState) Detail {
	id := f.RawID
	if id == "" {
		id = f.ID
	}
	return Detail{
		Name:         displayName(f),
		Identifier:   id,
		SelectedDate: filter.Date,
		Fields:       DescriptiveFields(f),
		MapsURL:      MapsURL(f),
		Label:        BuildLabel(f, dateRows, cols, filter),
		Availability: BuildAvailabilityTable(rows, cols),
	}
}
