package domain

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// DisplayState is the derived appearance of one facility under a filter.
type DisplayState struct {
	Style   Style
	Content *Content
}

// FacilityView is what the map layer needs to draw one facility.
type FacilityView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	Category Category `json:"category"`
	Style    Style    `json:"style"`
	// Visible reports whether the facility matches the active filters.
	Visible bool `json:"visible"`
	// Label is nil when labels are disabled at the current zoom.
	Label          *Label   `json:"label,omitempty"`
	DistanceMeters *float64 `json:"distance_meters,omitempty"`
}

// Counters aggregate the visible facilities of one filter application.
type Counters struct {
	Visible   int `json:"visible"`
	Available int `json:"available"`
	Full      int `json:"full"`
}

// Summary is the one-line readout above the map.
type Summary struct {
	Text string `json:"text"`
	// ShowStatus is set when both a date and an age are selected, the only
	// case in which the available/full counters carry information.
	ShowStatus bool `json:"show_status"`
}

// Result is the outcome of applying a filter to every facility.
type Result struct {
	Views    []FacilityView `json:"facilities"`
	Counters Counters       `json:"counters"`
	Summary  Summary        `json:"summary"`
	// Cache counts the content lookups of this call only.
	Cache CacheStats `json:"-"`
}

// CacheStats splits content lookups into cache hits and fresh builds.
type CacheStats struct {
	Hits   int
	Builds int
}

type contentKey struct {
	facilityID string
	date       string
	age        int
	hasAge     bool
}

// DisplayEngine derives display state from the joined data. Label and
// detail content are cached per (facility, date, age); entries are only
// ever added, so the cache is safe for concurrent readers.
type DisplayEngine struct {
	jr    *JoinResult
	index *AvailabilityIndex

	mu    sync.RWMutex
	cache map[contentKey]*Content

	recomputes atomic.Int64
	hits       atomic.Int64
}

// NewDisplayEngine returns an engine over an immutable join result.
func NewDisplayEngine(jr *JoinResult, index *AvailabilityIndex) *DisplayEngine {
	return &DisplayEngine{
		jr:    jr,
		index: index,
		cache: make(map[contentKey]*Content),
	}
}

// Index returns the availability index the engine reads from.
func (e *DisplayEngine) Index() *AvailabilityIndex {
	return e.index
}

// Facility returns a facility by normalized identifier.
func (e *DisplayEngine) Facility(id string) (Facility, bool) {
	f, ok := e.jr.Facilities[id]
	return f, ok
}

// Recomputes reports how many content entries have been built.
func (e *DisplayEngine) Recomputes() int64 { return e.recomputes.Load() }

// CacheHits reports how many content lookups were served from the cache.
func (e *DisplayEngine) CacheHits() int64 { return e.hits.Load() }

// CacheSize reports the number of cached content entries.
func (e *DisplayEngine) CacheSize() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// Style classifies the facility for the filter. Without both a date and an
// age there is nothing to classify and the style is default.
func (e *DisplayEngine) Style(f Facility, filter FilterState) Style {
	if !filter.HasDate() || !filter.HasAge() {
		return StyleDefault
	}
	return ClassifyStatus(e.index.StatusFor(f.ID, filter.Date, *filter.Age))
}

// ComputeState returns the style and cached content of f under filter.
func (e *DisplayEngine) ComputeState(f Facility, filter FilterState) DisplayState {
	c, _ := e.content(f, filter)
	return DisplayState{Style: e.Style(f, filter), Content: c}
}

// content returns the cached content for f under filter, building it on a
// miss. hit is false only when this call inserted the entry.
func (e *DisplayEngine) content(f Facility, filter FilterState) (c *Content, hit bool) {
	key := contentKey{facilityID: f.ID, date: filter.Date}
	if filter.HasAge() {
		key.age, key.hasAge = *filter.Age, true
	}

	e.mu.RLock()
	c, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		e.hits.Add(1)
		return c, true
	}

	var dateRows []AvailabilityRecord
	if filter.HasDate() {
		dateRows = e.index.RowsForDate(f.ID, filter.Date)
	}
	cols := e.index.Columns()
	built := &Content{
		Label:  BuildLabel(f, dateRows, cols, filter),
		Detail: BuildDetail(f, e.index.Rows(f.ID), dateRows, cols, filter),
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Another caller may have built the same key meanwhile; keep the first.
	if existing, ok := e.cache[key]; ok {
		e.hits.Add(1)
		return existing, true
	}
	e.cache[key] = built
	e.recomputes.Add(1)
	return built, false
}

// Matches reports whether f passes the category filter and, when a date is
// selected, has at least one row for it.
func (e *DisplayEngine) Matches(f Facility, filter FilterState) bool {
	if !filter.Categories.Enabled(f.Category) {
		return false
	}
	return !filter.HasDate() || len(e.index.RowsForDate(f.ID, filter.Date)) > 0
}

// Apply derives the view of every facility in registry order. Counters
// cover visible facilities only and are recomputed on every call.
func (e *DisplayEngine) Apply(filter FilterState) Result {
	res := Result{Views: make([]FacilityView, 0, len(e.jr.Order))}

	for _, id := range e.jr.Order {
		f := e.jr.Facilities[id]
		content, hit := e.content(f, filter)
		if hit {
			res.Cache.Hits++
		} else {
			res.Cache.Builds++
		}
		v := FacilityView{
			ID:       f.ID,
			Name:     content.Label.Name,
			Lat:      f.Lat,
			Lon:      f.Lon,
			Category: f.Category,
			Style:    e.Style(f, filter),
			Visible:  e.Matches(f, filter),
		}
		if filter.LabelsEnabled {
			lbl := content.Label
			v.Label = &lbl
		}
		if filter.Origin != nil {
			d := DistanceMeters(*filter.Origin, LatLon{Lat: f.Lat, Lon: f.Lon})
			v.DistanceMeters = &d
		}

		if v.Visible {
			res.Counters.Visible++
			switch v.Style {
			case StyleAvailable:
				res.Counters.Available++
			case StyleFull:
				res.Counters.Full++
			}
		}
		res.Views = append(res.Views, v)
	}

	res.Summary = e.summarize(filter, res.Counters)
	return res
}

func (e *DisplayEngine) summarize(filter FilterState, c Counters) Summary {
	s := Summary{ShowStatus: filter.HasDate() && filter.HasAge()}
	switch {
	case len(e.index.Dates()) == 0:
		s.Text = "日付データがありません。"
	case filter.HasDate():
		s.Text = fmt.Sprintf("選択日: %s / 年齢: %s / 表示中: %d施設", filter.Date, filter.AgeLabel(), c.Visible)
	default:
		s.Text = fmt.Sprintf("未選択 / 全日表示 / 年齢: %s", filter.AgeLabel())
	}
	return s
}
