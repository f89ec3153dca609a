package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildLabel(t *testing.T) {
	jr := fixture(t)
	idx := NewAvailabilityIndex(jr)
	alpha := jr.Facilities["7"]
	rows := idx.RowsForDate("7", testDate)

	t.Run("no date shows name only", func(t *testing.T) {
		l := BuildLabel(alpha, rows, idx.Columns(), FilterState{})
		assert.Equal(t, Label{Name: "Alpha"}, l)
		assert.Equal(t, "Alpha", l.Text())
	})

	t.Run("date without rows", func(t *testing.T) {
		l := BuildLabel(alpha, nil, idx.Columns(), FilterState{Date: testNextDate})
		assert.True(t, l.NoData)
		assert.Equal(t, "Alpha\n該当日なし", l.Text())
	})

	t.Run("all buckets", func(t *testing.T) {
		l := BuildLabel(alpha, rows, idx.Columns(), FilterState{Date: testDate})
		assert.Equal(t, []BucketStatus{
			{AgeLabel: "3歳", Value: "○"},
			{AgeLabel: "4歳", Value: "×"},
			{AgeLabel: "5歳", Value: "-"},
		}, l.Buckets)
		assert.Equal(t, "Alpha\n3歳:○ 4歳:× 5歳:-", l.Text())
	})

	t.Run("selected age", func(t *testing.T) {
		l := BuildLabel(alpha, rows, idx.Columns(), FilterState{Date: testDate, Age: ptr(4)})
		assert.Equal(t, []BucketStatus{{AgeLabel: "4歳", Value: "×"}}, l.Buckets)
	})

	t.Run("age without bucket", func(t *testing.T) {
		l := BuildLabel(alpha, rows, idx.Columns(), FilterState{Date: testDate, Age: ptr(1)})
		assert.True(t, l.NoMatchingAge)
		assert.Equal(t, "Alpha\n対象年齢なし", l.Text())
	})

	t.Run("unnamed facility", func(t *testing.T) {
		l := BuildLabel(Facility{ID: "1"}, nil, nil, FilterState{})
		assert.Equal(t, "名称不明", l.Name)
	})

	t.Run("header without age", func(t *testing.T) {
		cols := DiscoverStatusColumns([]string{"一時保育(その他)"})
		rec := AvailabilityRecord{Date: testDate, Statuses: []string{"○"}}
		l := BuildLabel(alpha, []AvailabilityRecord{rec}, cols, FilterState{Date: testDate})
		assert.Equal(t, []BucketStatus{{AgeLabel: "一時保育(その他)", Value: "○"}}, l.Buckets)
	})
}

func TestDescriptiveFields(t *testing.T) {
	f := Facility{
		Address:   "浜松市中区",
		Phone:     "053",
		TimeStart: "9:00",
		OpenTime:  "7:00",
		CloseTime: "19:00",
		Fee:       "2000円",
	}

	assert.Equal(t, []Field{
		{Label: "所在地", Value: "浜松市中区"},
		{Label: "電話番号", Value: "053"},
		{Label: "利用可能時間", Value: "9:00 ～ "},
		{Label: "開所時間", Value: "7:00 ～ 19:00"},
		{Label: "利用料・免除基準", Value: "2000円"},
	}, DescriptiveFields(f))

	assert.Empty(t, DescriptiveFields(Facility{Name: "only name"}))
}

func TestMapsURL(t *testing.T) {
	assert.Equal(t, "https://www.google.com/maps?q=34.7%2C137.72", MapsURL(Facility{Lat: 34.7, Lon: 137.72}))
}

func TestBuildDetail(t *testing.T) {
	jr := fixture(t)
	idx := NewAvailabilityIndex(jr)
	beta := jr.Facilities["12"]

	d := BuildDetail(beta, idx.Rows("12"), idx.RowsForDate("12", testNextDate), idx.Columns(), FilterState{Date: testNextDate})

	assert.Equal(t, "Beta", d.Name)
	assert.Equal(t, "12", d.Identifier)
	assert.Equal(t, testNextDate, d.SelectedDate)
	assert.Empty(t, d.Fields)
	assert.Equal(t, []string{"日付", "曜日", "一時保育(3歳児)", "一時保育(4歳児)", "一時保育(5歳児)"}, d.Availability.Headers)
	require.Len(t, d.Availability.Rows, 2)
	assert.Equal(t, []string{testDate, "月", "満 午前", "-", "-"}, d.Availability.Rows[0])
	assert.Equal(t, []string{testNextDate, "火", "午後", "-", "-"}, d.Availability.Rows[1])
	assert.Equal(t, "Beta\n3歳:午後 4歳:- 5歳:-", d.Label.Text())

	empty := BuildDetail(jr.Facilities["30"], nil, nil, idx.Columns(), FilterState{})
	assert.True(t, empty.Availability.Empty())
	assert.NotEmpty(t, empty.Availability.EmptyMessage())
}
