// Package cli implements the inspect command-line tool.
//
// inspect loads the facility and availability datasets once, the same way
// the server does, and prints the derived state for a single filter:
//
//	inspect summary --date 2024-04-01 --age 3
//	inspect facility 7 --date 2024-04-01
//
// Source flags override the environment configuration, so local copies of
// the datasets can be inspected with
//
//	inspect summary --encoding utf-8 \
//	  --facility certified=./certified.csv \
//	  --availability ./availability.csv
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/childcare-availability/internal/adapter/source"
	"github.com/couchcryptid/childcare-availability/internal/config"
	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
	"github.com/couchcryptid/childcare-availability/internal/pipeline"
)

// sourceFlags are shared by every subcommand.
type sourceFlags struct {
	verbose      bool
	encoding     string
	facilities   []string
	availability string
	noWorker     bool
}

// filterFlags select the filter the derived state is computed for.
type filterFlags struct {
	date  string
	age   int
	types []string
}

// Execute runs the inspect CLI.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var src sourceFlags

	root := &cobra.Command{
		Use:          "inspect",
		Short:        "Inspect childcare facility availability datasets",
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&src.verbose, "verbose", "v", false, "enable verbose logging")
	pf.StringVar(&src.encoding, "encoding", "", "text encoding of the sources (default $SOURCE_ENCODING or shift-jis)")
	pf.StringArrayVar(&src.facilities, "facility", nil, "facility dataset as category=uri, repeatable (default $FACILITY_SOURCES)")
	pf.StringVar(&src.availability, "availability", "", "availability dataset uri (default $AVAILABILITY_SOURCE)")
	pf.BoolVar(&src.noWorker, "no-worker", false, "parse on the calling goroutine instead of the background worker")

	root.AddCommand(newSummaryCmd(&src))
	root.AddCommand(newFacilityCmd(&src))

	return root
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.date, "date", "", "selected date, as written in the availability dataset")
	cmd.Flags().IntVar(&f.age, "age", 0, "selected age in years")
	cmd.Flags().StringSliceVar(&f.types, "types", nil, "enabled facility categories (default all)")
}

func (f *filterFlags) query(cmd *cobra.Command) (pipeline.Query, error) {
	q := pipeline.Query{Date: strings.TrimSpace(f.date)}
	if cmd.Flags().Changed("age") {
		age := f.age
		q.Age = &age
	}
	if cmd.Flags().Changed("types") {
		q.Categories = make([]domain.Category, 0, len(f.types))
		for _, name := range f.types {
			c, err := domain.ParseCategory(strings.TrimSpace(name))
			if err != nil {
				return q, err
			}
			q.Categories = append(q.Categories, c)
		}
	}
	return q, nil
}

// plan resolves the ingestion plan from the environment and the flags.
func (s *sourceFlags) plan() (ingest.Plan, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return ingest.Plan{}, nil, err
	}
	plan := cfg.Plan()
	if s.encoding != "" {
		plan.Encoding = s.encoding
	}
	if len(s.facilities) > 0 {
		plan.Facilities = nil
		for _, v := range s.facilities {
			srcs, err := config.ParseFacilitySources(v)
			if err != nil {
				return ingest.Plan{}, nil, fmt.Errorf("invalid --facility: %w", err)
			}
			plan.Facilities = append(plan.Facilities, srcs...)
		}
	}
	if s.availability != "" {
		plan.Availability = s.availability
	}
	return plan, cfg, nil
}

// load builds a session for the resolved plan and loads it once.
func (s *sourceFlags) load(cmd *cobra.Command) (*pipeline.Session, error) {
	logger := newLogger(cmd.ErrOrStderr(), s.verbose)

	plan, cfg, err := s.plan()
	if err != nil {
		return nil, err
	}

	metrics := observability.NewMetricsWithRegistry(prometheus.NewRegistry())
	fetcher := source.NewRouter(
		source.NewHTTPClient(cfg.FetchTimeout, metrics, logger),
		source.NewFileFetcher(metrics),
	)
	loader := ingest.NewLoader(fetcher, !s.noWorker && cfg.IngestWorkerEnabled, logger, metrics)

	session := pipeline.New(loader, plan, logger, metrics, cfg.LabelMinZoom)
	if err := session.Load(cmd.Context()); err != nil {
		return nil, err
	}
	logger.Debug("sources loaded", "facility_sources", len(plan.Facilities))
	return session, nil
}
