package domain

import "strings"

type headerMatcher func(header string) bool

func exactHeader(name string) headerMatcher {
	return func(h string) bool { return h == name }
}

// websiteHeader matches the various ways the portal names a homepage column.
func websiteHeader(h string) bool {
	upper := strings.ToUpper(h)
	if strings.Contains(upper, "URL") || strings.Contains(upper, "WEB") {
		return true
	}
	for _, token := range []string{"ＵＲＬ", "ホームページ", "公式サイト", "ウェブ"} {
		if strings.Contains(h, token) {
			return true
		}
	}
	return false
}

// findColumn returns the index of the first header accepted by match, or -1.
func findColumn(headers []string, match headerMatcher) int {
	for i, h := range headers {
		if match(h) {
			return i
		}
	}
	return -1
}

type optionalField struct {
	match  headerMatcher
	assign func(f *Facility, v string)
}

var optionalFields = []optionalField{
	{exactHeader("電話番号"), func(f *Facility, v string) { f.Phone = v }},
	{exactHeader("設置主体"), func(f *Facility, v string) { f.Operator = v }},
	{websiteHeader, func(f *Facility, v string) { f.Website = v }},
	{exactHeader("定員"), func(f *Facility, v string) { f.Capacity = v }},
	{exactHeader("開所時間"), func(f *Facility, v string) { f.OpenTime = v }},
	{exactHeader("閉所時間"), func(f *Facility, v string) { f.CloseTime = v }},
	{exactHeader("保育標準開始時間"), func(f *Facility, v string) { f.StandardStart = v }},
	{exactHeader("保育標準終了時間"), func(f *Facility, v string) { f.StandardEnd = v }},
	{exactHeader("保育短時間開始時間"), func(f *Facility, v string) { f.ShortStart = v }},
	{exactHeader("保育短時間終了時間"), func(f *Facility, v string) { f.ShortEnd = v }},
	{exactHeader("一時預かり事業の種類"), func(f *Facility, v string) { f.ServiceType = v }},
	{exactHeader("基本的な利用できる曜日"), func(f *Facility, v string) { f.Days = v }},
	{exactHeader("基本的な利用できる時間（開始時間）"), func(f *Facility, v string) { f.TimeStart = v }},
	{exactHeader("基本的な利用できる時間（終了時間）"), func(f *Facility, v string) { f.TimeEnd = v }},
	{exactHeader("基本的な利用できる歳児"), func(f *Facility, v string) { f.Ages = v }},
	{exactHeader("予約を開始する概ねの時期"), func(f *Facility, v string) { f.ReserveStart = v }},
	{exactHeader("利用料、免除基準"), func(f *Facility, v string) { f.Fee = v }},
	{exactHeader("備考（一時預かり）"), func(f *Facility, v string) { f.Notes = v }},
	{exactHeader("募集人数・申込人数の該当月"), func(f *Facility, v string) { f.RecruitMonth = v }},
}

type resolvedColumn struct {
	field optionalField
	index int
}

// resolveOptionalColumns binds each optional field present in headers to
// its column index. Absent fields are left out.
func resolveOptionalColumns(headers []string) []resolvedColumn {
	var out []resolvedColumn
	for _, f := range optionalFields {
		if idx := findColumn(headers, f.match); idx >= 0 {
			out = append(out, resolvedColumn{field: f, index: idx})
		}
	}
	return out
}
