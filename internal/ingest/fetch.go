// Package ingest retrieves the facility and availability datasets and turns
// them into parsed tables.
//
// A load can run on a background worker goroutine that speaks a small
// request/response protocol, or inline on the caller's goroutine. Both
// paths share [fetchAndParse], so they produce identical tables for
// identical bytes.
package ingest

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/tabular"
)

// Fetcher retrieves the raw bytes of a source.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// Source is one facility dataset and the category of every row in it.
type Source struct {
	Category domain.Category `json:"category"`
	URI      string          `json:"uri"`
}

// Plan lists what to load. Facility sources are joined in slice order.
type Plan struct {
	Facilities   []Source
	Availability string
	Encoding     string
}

// Payload is the parsed result of a load.
type Payload struct {
	Facilities   []domain.SourcedTable `json:"facilities"`
	Availability tabular.Table         `json:"availability"`
}

// fetchAndParse fetches every source concurrently, then decodes and parses
// each. The first failure cancels the remaining fetches and fails the load.
func fetchAndParse(ctx context.Context, f Fetcher, plan Plan) (*Payload, error) {
	if plan.Availability == "" {
		return nil, ErrNoAvailabilitySource
	}
	enc := plan.Encoding
	if enc == "" {
		enc = tabular.DefaultEncoding
	}

	g, gctx := errgroup.WithContext(ctx)

	facilities := make([]domain.SourcedTable, len(plan.Facilities))
	for i, src := range plan.Facilities {
		g.Go(func() error {
			t, err := fetchTable(gctx, f, src.URI, enc)
			if err != nil {
				return err
			}
			facilities[i] = domain.SourcedTable{Category: src.Category, URI: src.URI, Table: t}
			return nil
		})
	}

	var availability tabular.Table
	g.Go(func() error {
		t, err := fetchTable(gctx, f, plan.Availability, enc)
		if err != nil {
			return err
		}
		availability = t
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Payload{Facilities: facilities, Availability: availability}, nil
}

func fetchTable(ctx context.Context, f Fetcher, uri, enc string) (tabular.Table, error) {
	raw, err := f.Fetch(ctx, uri)
	if err != nil {
		var ff *FetchFailure
		if errors.As(err, &ff) {
			return tabular.Table{}, err
		}
		return tabular.Table{}, &FetchFailure{URI: uri, Err: err}
	}

	text, err := tabular.Decode(raw, enc)
	if err != nil {
		return tabular.Table{}, &DecodeFailure{URI: uri, Encoding: enc, Err: err}
	}
	return tabular.Parse(text), nil
}
