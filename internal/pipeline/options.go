package pipeline

import (
	"time"

	"github.com/couchcryptid/childcare-availability/internal/domain"
)

// CategoryOption is one facility-type toggle.
type CategoryOption struct {
	Category domain.Category `json:"category"`
	Label    string          `json:"label"`
	URI      string          `json:"uri"`
}

// Options describes the selectable filter values of the loaded datasets.
type Options struct {
	Dates        []string         `json:"dates"`
	MinDate      string           `json:"min_date,omitempty"`
	MaxDate      string           `json:"max_date,omitempty"`
	Ages         []int            `json:"ages"`
	Categories   []CategoryOption `json:"categories"`
	Rings        []domain.Ring    `json:"rings,omitempty"`
	LoadedAt     time.Time        `json:"loaded_at"`
	LoadDuration time.Duration    `json:"load_duration_ns"`
	Stats        domain.JoinStats `json:"stats"`
}

// Options lists the dates, ages and categories a user can pick. When origin
// is set the distance rings around it are included.
func (s *Session) Options(origin *domain.LatLon) (Options, error) {
	snap, err := s.current()
	if err != nil {
		return Options{}, err
	}
	idx := snap.engine.Index()

	opts := Options{
		Dates:        idx.Dates(),
		Ages:         idx.Ages(),
		Categories:   make([]CategoryOption, 0, len(s.plan.Facilities)),
		LoadedAt:     snap.loadedAt,
		LoadDuration: snap.duration,
		Stats:        snap.join.Stats,
	}
	if n := len(opts.Dates); n > 0 {
		opts.MinDate, opts.MaxDate = opts.Dates[0], opts.Dates[n-1]
	}
	for _, src := range s.plan.Facilities {
		opts.Categories = append(opts.Categories, CategoryOption{
			Category: src.Category,
			Label:    src.Category.Label(),
			URI:      src.URI,
		})
	}
	if origin != nil {
		opts.Rings = domain.Rings(*origin)
	}
	return opts, nil
}
