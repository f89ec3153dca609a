package domain

import (
	"fmt"

	"github.com/couchcryptid/childcare-availability/internal/tabular"
)

// Category identifies which facility dataset a record came from.
type Category string

const (
	CategoryCertified         Category = "certified"
	CategoryPrivate           Category = "private"
	CategoryMunicipal         Category = "municipal"
	CategorySmall             Category = "small"
	CategoryOnsite            Category = "onsite"
	CategoryCompany           Category = "company"
	CategoryUnlicensed        Category = "unlicensed"
	CategoryUnlicensedLimited Category = "unlicensed-limited"
)

// Categories lists every category in the order the portal publishes them.
var Categories = []Category{
	CategoryCertified,
	CategoryPrivate,
	CategoryMunicipal,
	CategorySmall,
	CategoryOnsite,
	CategoryCompany,
	CategoryUnlicensed,
	CategoryUnlicensedLimited,
}

var categoryLabels = map[Category]string{
	CategoryCertified:         "認定こども園",
	CategoryPrivate:           "私立認可保育園",
	CategoryMunicipal:         "市立認可保育園",
	CategorySmall:             "小規模保育事業",
	CategoryOnsite:            "事業所内保育事業",
	CategoryCompany:           "企業主導型保育事業",
	CategoryUnlicensed:        "認可外保育施設",
	CategoryUnlicensedLimited: "認可外（顧客児童限定）",
}

// Label returns the Japanese display name of the category.
func (c Category) Label() string {
	return categoryLabels[c]
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryLabels[c]; !ok {
		return "", fmt.Errorf("unknown facility category %q", s)
	}
	return c, nil
}

// CategorySet is the set of enabled categories in a filter. A nil set
// enables every category.
type CategorySet map[Category]struct{}

// NewCategorySet builds a set from the given categories.
func NewCategorySet(cs ...Category) CategorySet {
	set := make(CategorySet, len(cs))
	for _, c := range cs {
		set[c] = struct{}{}
	}
	return set
}

// Enabled reports whether c is in the set. Every category is enabled in a
// nil set.
func (s CategorySet) Enabled(c Category) bool {
	if s == nil {
		return true
	}
	_, ok := s[c]
	return ok
}

// SourcedTable pairs a parsed facility table with the category every row in
// it belongs to. URI is informational (logs, errors, attribution).
type SourcedTable struct {
	Category Category
	URI      string
	Table    tabular.Table
}

// Facility is one physical childcare facility after the join. Optional
// descriptive fields are "" when the source table has no such column.
type Facility struct {
	ID       string   `json:"id"`
	RawID    string   `json:"raw_id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Category Category `json:"category"`

	Address       string `json:"address,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Operator      string `json:"operator,omitempty"`
	Capacity      string `json:"capacity,omitempty"`
	Website       string `json:"website,omitempty"`
	OpenTime      string `json:"open_time,omitempty"`
	CloseTime     string `json:"close_time,omitempty"`
	StandardStart string `json:"standard_start,omitempty"`
	StandardEnd   string `json:"standard_end,omitempty"`
	ShortStart    string `json:"short_start,omitempty"`
	ShortEnd      string `json:"short_end,omitempty"`
	ServiceType   string `json:"service_type,omitempty"`
	Days          string `json:"days,omitempty"`
	TimeStart     string `json:"time_start,omitempty"`
	TimeEnd       string `json:"time_end,omitempty"`
	Ages          string `json:"ages,omitempty"`
	ReserveStart  string `json:"reserve_start,omitempty"`
	Fee           string `json:"fee,omitempty"`
	Notes         string `json:"notes,omitempty"`
	RecruitMonth  string `json:"recruit_month,omitempty"`
}

// AvailabilityRecord is one availability row: a facility's slot status for
// one date, one value per status column in bucket order.
type AvailabilityRecord struct {
	FacilityID string   `json:"facility_id"`
	Date       string   `json:"date"`
	Weekday    string   `json:"weekday,omitempty"`
	Statuses   []string `json:"statuses"`
}

// Status returns the value for the given bucket, or "" when out of range.
func (r AvailabilityRecord) Status(bucket int) string {
	return tabular.Cell(r.Statuses, bucket)
}

// StatusColumn describes one recognized availability column.
type StatusColumn struct {
	Header      string `json:"header"`
	SourceIndex int    `json:"source_index"`
	Age         int    `json:"age"`
	BucketIndex int    `json:"bucket_index"`
}

// HasAge reports whether the header carried a parseable age.
func (c StatusColumn) HasAge() bool {
	return c.Age != UnknownAge
}
