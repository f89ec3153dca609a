package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/ingest"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "shift-jis", cfg.SourceEncoding)
	assert.Len(t, cfg.FacilitySources, 8)
	assert.Equal(t, domain.CategoryCertified, cfg.FacilitySources[0].Category)
	assert.Equal(t, domain.CategoryUnlicensedLimited, cfg.FacilitySources[7].Category)
	assert.Equal(t, DefaultAvailabilitySource, cfg.AvailabilitySource)
	assert.True(t, cfg.IngestWorkerEnabled)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.True(t, cfg.SourceCacheEnabled)
	assert.Equal(t, 14, cfg.LabelMinZoom)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SOURCE_ENCODING", "utf-8")
	t.Setenv("FACILITY_SOURCES", "private=file:///data/private.csv, certified=https://example.jp/c.csv")
	t.Setenv("AVAILABILITY_SOURCE", "/data/availability.csv")
	t.Setenv("INGEST_WORKER_ENABLED", "false")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("SOURCE_CACHE_ENABLED", "false")
	t.Setenv("LABEL_MIN_ZOOM", "12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "utf-8", cfg.SourceEncoding)
	assert.Equal(t, []ingest.Source{
		{Category: domain.CategoryPrivate, URI: "file:///data/private.csv"},
		{Category: domain.CategoryCertified, URI: "https://example.jp/c.csv"},
	}, cfg.FacilitySources)
	assert.Equal(t, "/data/availability.csv", cfg.AvailabilitySource)
	assert.False(t, cfg.IngestWorkerEnabled)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.False(t, cfg.SourceCacheEnabled)
	assert.Equal(t, 12, cfg.LabelMinZoom)

	plan := cfg.Plan()
	assert.Equal(t, cfg.FacilitySources, plan.Facilities)
	assert.Equal(t, "/data/availability.csv", plan.Availability)
	assert.Equal(t, "utf-8", plan.Encoding)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"FETCH_TIMEOUT", "0s"},
		{"SOURCE_ENCODING", "klingon"},
		{"FACILITY_SOURCES", "nursery=https://example.jp/a.csv"},
		{"FACILITY_SOURCES", "certified"},
		{"INGEST_WORKER_ENABLED", "sometimes"},
		{"SOURCE_CACHE_ENABLED", "maybe"},
		{"LABEL_MIN_ZOOM", "high"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestParseFacilitySources_SkipsBlankEntries(t *testing.T) {
	got, err := ParseFacilitySources("small=a.csv,, onsite=b.csv ,")
	require.NoError(t, err)
	assert.Equal(t, []ingest.Source{
		{Category: domain.CategorySmall, URI: "a.csv"},
		{Category: domain.CategoryOnsite, URI: "b.csv"},
	}, got)
}

func TestParseFacilitySources_URIWithQuery(t *testing.T) {
	got, err := ParseFacilitySources("company=https://example.jp/c.csv?v=2")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://example.jp/c.csv?v=2", got[0].URI)
}
