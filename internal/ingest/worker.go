package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/childcare-availability/internal/observability"
)

// Request asks a worker to load a plan.
type Request struct {
	CorrelationID      string   `json:"id"`
	FacilitySources    []Source `json:"facility_sources"`
	AvailabilitySource string   `json:"availability_source"`
	Encoding           string   `json:"encoding"`
}

// Response answers a Request. Payload is set when OK, Error otherwise.
type Response struct {
	CorrelationID string   `json:"id"`
	OK            bool     `json:"ok"`
	Payload       *Payload `json:"payload,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// Handler is the worker side of the protocol. It sends at most one
// response on out and returns; the channel is closed by the caller.
type Handler func(ctx context.Context, req Request, out chan<- Response)

// Serve returns the standard worker handler. Requests without a
// correlation ID or an availability source are dropped unanswered.
func Serve(f Fetcher) Handler {
	return func(ctx context.Context, req Request, out chan<- Response) {
		if req.CorrelationID == "" || req.AvailabilitySource == "" {
			return
		}
		p, err := fetchAndParse(ctx, f, Plan{
			Facilities:   req.FacilitySources,
			Availability: req.AvailabilitySource,
			Encoding:     req.Encoding,
		})
		if err != nil {
			out <- Response{CorrelationID: req.CorrelationID, Error: err.Error()}
			return
		}
		out <- Response{CorrelationID: req.CorrelationID, OK: true, Payload: p}
	}
}

// WorkerLoader runs each load on a fresh goroutine that owns no shared
// state and exits as soon as it has answered.
type WorkerLoader struct {
	handler Handler
	logger  *slog.Logger
	metrics *observability.Metrics
	newID   func() string
}

// NewWorkerLoader creates a WorkerLoader. A nil handler makes every load
// fail with [ErrWorkerUnavailable].
func NewWorkerLoader(h Handler, logger *slog.Logger, metrics *observability.Metrics) *WorkerLoader {
	return &WorkerLoader{
		handler: h,
		logger:  logger,
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

func (w *WorkerLoader) Load(ctx context.Context, plan Plan) (*Payload, error) {
	p, err := w.load(ctx, plan)
	w.metrics.IngestRuns.WithLabelValues(PathWorker, outcome(err)).Inc()
	return p, err
}

func (w *WorkerLoader) load(ctx context.Context, plan Plan) (*Payload, error) {
	if w.handler == nil {
		return nil, ErrWorkerUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := Request{
		CorrelationID:      w.newID(),
		FacilitySources:    plan.Facilities,
		AvailabilitySource: plan.Availability,
		Encoding:           plan.Encoding,
	}

	// Cancelling tears the worker down once we have an answer or give up.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	out := w.spawn(wctx, req)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case resp, ok := <-out:
			if !ok {
				return nil, fmt.Errorf("%w: exited without responding", ErrWorkerUnavailable)
			}
			if resp.CorrelationID != req.CorrelationID {
				w.logger.Debug("ignoring worker response", "id", resp.CorrelationID, "want", req.CorrelationID)
				continue
			}
			if !resp.OK || resp.Payload == nil {
				return nil, fmt.Errorf("%w: %s", ErrWorkerFailed, resp.Error)
			}
			return resp.Payload, nil
		}
	}
}

func (w *WorkerLoader) spawn(ctx context.Context, req Request) <-chan Response {
	out := make(chan Response, 1)
	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("ingest worker panicked", "id", req.CorrelationID, "panic", r)
				select {
				case out <- Response{CorrelationID: req.CorrelationID, Error: fmt.Sprintf("worker panic: %v", r)}:
				default:
				}
			}
		}()
		w.handler(ctx, req, out)
	}()
	return out
}
