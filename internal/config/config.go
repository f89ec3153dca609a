package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/tabular"
)

const portalBase = "https://static.hamamatsu.odpf.net/opendata/v01/"

// DefaultFacilitySources are the Hamamatsu open-data facility datasets in
// the order the portal publishes them.
var DefaultFacilitySources = []ingest.Source{
	{Category: domain.CategoryCertified, URI: portalDataset("221309_certified_child_institution_nursery_center")},
	{Category: domain.CategoryPrivate, URI: portalDataset("221309_privately_licensed_nursery_school")},
	{Category: domain.CategoryMunicipal, URI: portalDataset("221309_municipal_licensed_nursery_school")},
	{Category: domain.CategorySmall, URI: portalDataset("221309_small_childcare_business")},
	{Category: domain.CategoryOnsite, URI: portalDataset("221309_on-site_childcare_business")},
	{Category: domain.CategoryCompany, URI: portalDataset("221309_company-led_childcare_business")},
	{Category: domain.CategoryUnlicensed, URI: portalDataset("221309_unlicensed_childcare_facility")},
	{Category: domain.CategoryUnlicensedLimited, URI: portalDataset("221309_unlicensed_childcare_facility_customer_only")},
}

// DefaultAvailabilitySource is the temporary-custody availability dataset.
var DefaultAvailabilitySource = portalDataset("221309_temporary_custody_business_availability")

func portalDataset(name string) string {
	return portalBase + name + "/" + name + ".csv"
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Source datasets.
	SourceEncoding     string
	FacilitySources    []ingest.Source
	AvailabilitySource string

	IngestWorkerEnabled bool
	FetchTimeout        time.Duration
	SourceCacheEnabled  bool
	LabelMinZoom        int
}

// Plan returns the ingestion plan described by the configuration.
func (c *Config) Plan() ingest.Plan {
	return ingest.Plan{
		Facilities:   c.FacilitySources,
		Availability: c.AvailabilitySource,
		Encoding:     c.SourceEncoding,
	}
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory, if present, seeds
// variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}

	encoding := sharedcfg.EnvOrDefault("SOURCE_ENCODING", tabular.DefaultEncoding)
	if _, err := htmlindex.Get(encoding); err != nil {
		return nil, fmt.Errorf("invalid SOURCE_ENCODING: unknown encoding %q", encoding)
	}

	facilities := DefaultFacilitySources
	if v := os.Getenv("FACILITY_SOURCES"); v != "" {
		facilities, err = ParseFacilitySources(v)
		if err != nil {
			return nil, fmt.Errorf("invalid FACILITY_SOURCES: %w", err)
		}
	}

	workerEnabled, err := parseBool("INGEST_WORKER_ENABLED", true)
	if err != nil {
		return nil, err
	}

	cacheEnabled, err := parseBool("SOURCE_CACHE_ENABLED", true)
	if err != nil {
		return nil, err
	}

	minZoom, err := parseNonNegativeInt("LABEL_MIN_ZOOM", domain.DefaultLabelMinZoom)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:            sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:            sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:     shutdownTimeout,
		SourceEncoding:      encoding,
		FacilitySources:     facilities,
		AvailabilitySource:  sharedcfg.EnvOrDefault("AVAILABILITY_SOURCE", DefaultAvailabilitySource),
		IngestWorkerEnabled: workerEnabled,
		FetchTimeout:        fetchTimeout,
		SourceCacheEnabled:  cacheEnabled,
		LabelMinZoom:        minZoom,
	}

	if len(cfg.FacilitySources) == 0 {
		return nil, errors.New("FACILITY_SOURCES is required")
	}

	return cfg, nil
}

// ParseFacilitySources reads a comma-separated list of category=uri pairs.
// Order is preserved; it decides which row wins when datasets share an
// identifier.
func ParseFacilitySources(value string) ([]ingest.Source, error) {
	pairs := sharedcfg.ParseBrokers(value)
	out := make([]ingest.Source, 0, len(pairs))
	for _, pair := range pairs {
		name, uri, ok := strings.Cut(pair, "=")
		name, uri = strings.TrimSpace(name), strings.TrimSpace(uri)
		if !ok || uri == "" {
			return nil, fmt.Errorf("%q: expected category=uri", pair)
		}
		c, err := domain.ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out = append(out, ingest.Source{Category: c, URI: uri})
	}
	return out, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func parseNonNegativeInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: must be a non-negative integer", key)
	}
	return n, nil
}

func parseBool(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be true or false", key)
	}
	return b, nil
}
