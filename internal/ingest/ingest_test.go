package ingest_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/couchcryptid/childcare-availability/internal/domain"
	"github.com/couchcryptid/childcare-availability/internal/ingest"
	"github.com/couchcryptid/childcare-availability/internal/observability"
	"github.com/couchcryptid/childcare-availability/internal/tabular"
)

const (
	certifiedURI    = "mem://certified.csv"
	privateURI      = "mem://private.csv"
	availabilityURI = "mem://availability.csv"
)

// --- fakes ---

type memFetcher struct {
	mu    sync.Mutex
	data  map[string][]byte
	errs  map[string]error
	calls map[string]int
}

func newMemFetcher(t *testing.T) *memFetcher {
	t.Helper()
	return &memFetcher{
		data: map[string][]byte{
			certifiedURI:    sjis(t, "NO,名称,緯度,経度\n007,あおば園,34.70,137.72\n"),
			privateURI:      sjis(t, "NO,名称,緯度,経度\n\"12\",\"さくら, 保育園\",34.71,137.73\r\n"),
			availabilityURI: sjis(t, "施設No.,日付,曜日,一時保育(3歳児)\n7,2024-04-01,月,○\n"),
		},
		errs:  map[string]error{},
		calls: map[string]int{},
	}
}

func (m *memFetcher) Fetch(_ context.Context, uri string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[uri]++
	if err := m.errs[uri]; err != nil {
		return nil, err
	}
	b, ok := m.data[uri]
	if !ok {
		return nil, &ingest.FetchFailure{URI: uri, StatusCode: 404}
	}
	return b, nil
}

func sjis(t *testing.T, s string) []byte {
	t.Helper()
	b, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func testPlan() ingest.Plan {
	return ingest.Plan{
		Facilities: []ingest.Source{
			{Category: domain.CategoryCertified, URI: certifiedURI},
			{Category: domain.CategoryPrivate, URI: privateURI},
		},
		Availability: availabilityURI,
		Encoding:     "shift-jis",
	}
}

func wantPayload() *ingest.Payload {
	return &ingest.Payload{
		Facilities: []domain.SourcedTable{
			{
				Category: domain.CategoryCertified,
				URI:      certifiedURI,
				Table: tabular.Table{
					Headers: []string{"NO", "名称", "緯度", "経度"},
					Rows:    [][]string{{"007", "あおば園", "34.70", "137.72"}},
				},
			},
			{
				Category: domain.CategoryPrivate,
				URI:      privateURI,
				Table: tabular.Table{
					Headers: []string{"NO", "名称", "緯度", "経度"},
					Rows:    [][]string{{"12", "さくら, 保育園", "34.71", "137.73"}},
				},
			},
		},
		Availability: tabular.Table{
			Headers: []string{"施設No.", "日付", "曜日", "一時保育(3歳児)"},
			Rows:    [][]string{{"7", "2024-04-01", "月", "○"}},
		},
	}
}

// --- inline ---

func TestInlineLoader_ParsesAllSources(t *testing.T) {
	l := ingest.NewInlineLoader(newMemFetcher(t), slog.Default(), observability.NewMetricsForTesting())

	got, err := l.Load(context.Background(), testPlan())
	require.NoError(t, err)
	if diff := cmp.Diff(wantPayload(), got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestInlineLoader_FetchFailure(t *testing.T) {
	f := newMemFetcher(t)
	f.errs[privateURI] = errors.New("connection refused")
	l := ingest.NewInlineLoader(f, slog.Default(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background(), testPlan())

	var ff *ingest.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, privateURI, ff.URI)
	assert.Zero(t, ff.StatusCode)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestInlineLoader_StatusFailurePassesThrough(t *testing.T) {
	f := newMemFetcher(t)
	delete(f.data, availabilityURI)
	l := ingest.NewInlineLoader(f, slog.Default(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background(), testPlan())

	var ff *ingest.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, 404, ff.StatusCode)
}

func TestInlineLoader_DecodeFailure(t *testing.T) {
	plan := testPlan()
	plan.Encoding = "not-a-charset"
	l := ingest.NewInlineLoader(newMemFetcher(t), slog.Default(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background(), plan)

	var df *ingest.DecodeFailure
	require.ErrorAs(t, err, &df)
	assert.Equal(t, "not-a-charset", df.Encoding)
	assert.ErrorIs(t, err, tabular.ErrUnknownEncoding)
}

func TestInlineLoader_RequiresAvailability(t *testing.T) {
	plan := testPlan()
	plan.Availability = ""
	l := ingest.NewInlineLoader(newMemFetcher(t), slog.Default(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background(), plan)
	assert.ErrorIs(t, err, ingest.ErrNoAvailabilitySource)
}

// --- worker ---

func TestWorkerLoader_MatchesInline(t *testing.T) {
	f := newMemFetcher(t)
	metrics := observability.NewMetricsForTesting()

	inline, err := ingest.NewInlineLoader(f, slog.Default(), metrics).Load(context.Background(), testPlan())
	require.NoError(t, err)
	worker, err := ingest.NewWorkerLoader(ingest.Serve(f), slog.Default(), metrics).Load(context.Background(), testPlan())
	require.NoError(t, err)

	if diff := cmp.Diff(inline, worker); diff != "" {
		t.Errorf("worker and inline payloads differ (-inline +worker):\n%s", diff)
	}
}

func TestWorkerLoader_IgnoresUnknownCorrelationID(t *testing.T) {
	want := wantPayload()
	handler := func(ctx context.Context, req ingest.Request, out chan<- ingest.Response) {
		stray := ingest.Response{CorrelationID: "someone-else", OK: true, Payload: &ingest.Payload{}}
		for _, resp := range []ingest.Response{stray, {CorrelationID: req.CorrelationID, OK: true, Payload: want}} {
			select {
			case out <- resp:
			case <-ctx.Done():
				return
			}
		}
	}

	got, err := ingest.NewWorkerLoader(handler, slog.Default(), observability.NewMetricsForTesting()).
		Load(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func TestWorkerLoader_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler ingest.Handler
		wantErr error
	}{
		{
			name:    "no handler",
			handler: nil,
			wantErr: ingest.ErrWorkerUnavailable,
		},
		{
			name:    "exits without responding",
			handler: func(context.Context, ingest.Request, chan<- ingest.Response) {},
			wantErr: ingest.ErrWorkerUnavailable,
		},
		{
			name: "reports failure",
			handler: func(_ context.Context, req ingest.Request, out chan<- ingest.Response) {
				out <- ingest.Response{CorrelationID: req.CorrelationID, Error: "boom"}
			},
			wantErr: ingest.ErrWorkerFailed,
		},
		{
			name: "panics",
			handler: func(context.Context, ingest.Request, chan<- ingest.Response) {
				panic("worker crashed")
			},
			wantErr: ingest.ErrWorkerFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ingest.NewWorkerLoader(tc.handler, slog.Default(), observability.NewMetricsForTesting()).
				Load(context.Background(), testPlan())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestServe_DropsIncompleteRequests(t *testing.T) {
	out := make(chan ingest.Response, 1)
	ingest.Serve(newMemFetcher(t))(context.Background(), ingest.Request{AvailabilitySource: availabilityURI}, out)
	assert.Empty(t, out)
}

// --- fallback strategy ---

func TestNewLoader_FallsBackToInline(t *testing.T) {
	f := newMemFetcher(t)
	metrics := observability.NewMetricsForTesting()
	panicking := ingest.NewWorkerLoader(func(context.Context, ingest.Request, chan<- ingest.Response) {
		panic("no worker today")
	}, slog.Default(), metrics)

	l := ingest.NewFallbackLoader(panicking, ingest.NewInlineLoader(f, slog.Default(), metrics), slog.Default(), metrics)

	got, err := l.Load(context.Background(), testPlan())
	require.NoError(t, err)
	if diff := cmp.Diff(wantPayload(), got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoader_FallbackErrorIsSurfaced(t *testing.T) {
	f := newMemFetcher(t)
	f.errs[certifiedURI] = errors.New("dns failure")

	l := ingest.NewLoader(f, true, slog.Default(), observability.NewMetricsForTesting())
	_, err := l.Load(context.Background(), testPlan())

	var ff *ingest.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, certifiedURI, ff.URI)
	// Worker and inline attempts.
	assert.Equal(t, 2, f.calls[certifiedURI])
}

func TestNewLoader_WorkerDisabledRunsInline(t *testing.T) {
	l := ingest.NewLoader(newMemFetcher(t), false, slog.Default(), observability.NewMetricsForTesting())
	_, ok := l.(*ingest.InlineLoader)
	assert.True(t, ok)
}

func TestFallbackLoader_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newMemFetcher(t)
	l := ingest.NewLoader(f, true, slog.Default(), observability.NewMetricsForTesting())
	_, err := l.Load(ctx, testPlan())
	assert.ErrorIs(t, err, context.Canceled)
}

// --- per-load memo ---

type memoFetcher struct {
	inner   ingest.Fetcher
	mu      sync.Mutex
	entries map[string][]byte
	resets  int
}

func (m *memoFetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	m.mu.Lock()
	b, ok := m.entries[uri]
	m.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := m.inner.Fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.entries[uri] = b
	m.mu.Unlock()
	return b, nil
}

func (m *memoFetcher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = map[string][]byte{}
	m.resets++
}

func TestScopedLoader_FallbackReusesBytesWithinLoad(t *testing.T) {
	f := newMemFetcher(t)
	memo := &memoFetcher{inner: f, entries: map[string][]byte{}}
	metrics := observability.NewMetricsForTesting()

	// The worker downloads every source and then dies before answering.
	fetchThenPanic := ingest.NewWorkerLoader(func(ctx context.Context, req ingest.Request, _ chan<- ingest.Response) {
		for _, s := range req.FacilitySources {
			_, _ = memo.Fetch(ctx, s.URI)
		}
		_, _ = memo.Fetch(ctx, req.AvailabilitySource)
		panic("worker crashed")
	}, slog.Default(), metrics)
	inline := ingest.NewInlineLoader(memo, slog.Default(), metrics)
	l := ingest.NewScopedLoader(ingest.NewFallbackLoader(fetchThenPanic, inline, slog.Default(), metrics), memo)

	got, err := l.Load(context.Background(), testPlan())
	require.NoError(t, err)
	if diff := cmp.Diff(wantPayload(), got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, f.calls[certifiedURI])
	assert.Equal(t, 1, f.calls[availabilityURI])
	assert.Empty(t, memo.entries)
}

func TestNewLoader_ResetsMemoBetweenLoads(t *testing.T) {
	f := newMemFetcher(t)
	memo := &memoFetcher{inner: f, entries: map[string][]byte{}}
	l := ingest.NewLoader(memo, true, slog.Default(), observability.NewMetricsForTesting())

	_, err := l.Load(context.Background(), testPlan())
	require.NoError(t, err)

	// The republished dataset is picked up by the next load.
	f.mu.Lock()
	f.data[availabilityURI] = sjis(t, "施設No.,日付,曜日,一時保育(3歳児)\n7,2024-04-01,月,×\n")
	f.mu.Unlock()

	got, err := l.Load(context.Background(), testPlan())
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"7", "2024-04-01", "月", "×"}}, got.Availability.Rows)
	assert.Equal(t, 2, f.calls[availabilityURI])

	// A source that disappears fails the next load instead of being served
	// from memory.
	f.mu.Lock()
	f.errs[availabilityURI] = &ingest.FetchFailure{URI: availabilityURI, StatusCode: 503}
	f.mu.Unlock()

	_, err = l.Load(context.Background(), testPlan())
	var ff *ingest.FetchFailure
	require.ErrorAs(t, err, &ff)
	assert.Equal(t, availabilityURI, ff.URI)
}
