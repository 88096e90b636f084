package dispatch

import (
	"context"
	"errors"
	"fmt"
	"leadintake/internal/config"
	"leadintake/pkg/domain"
	"leadintake/pkg/logger"
	"leadintake/pkg/metrics"
	"leadintake/pkg/serrors"
	"leadintake/pkg/sink"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "leadintake/internal/dispatch"

// Options configure the fan-out.
type Options struct {
	// SinkTimeout bounds every single sink call. Zero disables the bound and
	// sinks then only stop when the caller's context is done.
	SinkTimeout time.Duration
}

// NewOptions constructs an Options value from the provided application config.
func NewOptions(cfg *config.Config) Options {
	return Options{
		SinkTimeout: cfg.Dispatch.SinkTimeout,
	}
}

// Deps are the collaborators of the dispatcher. Nil providers fall back to
// the otel globals.
type Deps struct {
	Sinks          []sink.Sink
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
}

// dispatcher is the concrete implementation of the Dispatcher interface.
type dispatcher struct {
	options Options
	sinks   []sink.Sink

	tracer   trace.Tracer
	total    metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Dispatcher over deps.Sinks. It only fails when the metric
// instruments cannot be created.
func New(deps Deps, options Options) (Dispatcher, error) {
	mp := deps.MeterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	tp := deps.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	meter := mp.Meter(instrumentationName)
	total, err := meter.Int64Counter(metrics.Namespace+"_dispatch_total",
		metric.WithDescription("Number of sink deliveries by sink and result."))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatch counter: %w", err)
	}
	duration, err := meter.Float64Histogram(metrics.Namespace+"_dispatch_duration_seconds",
		metric.WithDescription("Latency of sink deliveries."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create dispatch histogram: %w", err)
	}

	return &dispatcher{
		options:  options,
		sinks:    deps.Sinks,
		tracer:   tp.Tracer(instrumentationName),
		total:    total,
		duration: duration,
	}, nil
}

// Sinks returns the configured sink names.
func (d *dispatcher) Sinks() []string {
	names := make([]string, 0, len(d.sinks))
	for _, s := range d.sinks {
		names = append(names, s.Name())
	}

	return names
}

// Dispatch runs every sink in its own goroutine. A failing, panicking or
// hanging sink only affects its own result.
func (d *dispatcher) Dispatch(ctx context.Context, sub domain.Submission) domain.Outcome {
	results := make([]domain.DispatchResult, len(d.sinks))

	// errgroup.Group without WithContext: one failure must not cancel the others.
	var g errgroup.Group
	for i, s := range d.sinks {
		i, s := i, s
		g.Go(func() error {
			results[i] = d.deliver(ctx, s, sub)

			return nil
		})
	}
	_ = g.Wait()

	return domain.Outcome{Results: results}
}

type delivery struct {
	ref string
	err error
}

func (d *dispatcher) deliver(ctx context.Context, s sink.Sink, sub domain.Submission) domain.DispatchResult {
	name := s.Name()
	ctx = logger.WithFields(ctx, zap.String("sink", name))

	ctx, span := d.tracer.Start(ctx, "sink.Deliver",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sink", name)))
	defer span.End()

	sinkCtx := ctx
	if d.options.SinkTimeout > 0 {
		var cancel context.CancelFunc
		sinkCtx, cancel = context.WithTimeout(ctx, d.options.SinkTimeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan delivery, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- delivery{err: serrors.With(serrors.ErrInternal, "sink %s panicked: %v", name, p)}
			}
		}()

		ref, err := s.Deliver(sinkCtx, sub)
		done <- delivery{ref: ref, err: err}
	}()

	var out delivery
	select {
	case out = <-done:
		if out.err != nil && errors.Is(sinkCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			out.err = d.timeoutError()
		}
	case <-sinkCtx.Done():
		// the sink ignores its context; leave it behind
		if ctx.Err() == nil {
			out.err = d.timeoutError()
		} else {
			out.err = serrors.Wrap(serrors.ErrTimeout, ctx.Err(), "")
		}
	}

	res := domain.DispatchResult{Sink: name}
	if out.err != nil {
		res.Err = out.err
	} else {
		res.Reference = out.ref
	}

	d.record(ctx, span, res, time.Since(start))

	return res
}

func (d *dispatcher) timeoutError() error {
	return serrors.With(serrors.ErrTimeout, "timed out after %s", d.options.SinkTimeout)
}

func (d *dispatcher) record(ctx context.Context, span trace.Span, res domain.DispatchResult, elapsed time.Duration) {
	result := "success"
	if !res.OK() {
		result = "failure"
		if errors.Is(res.Err, serrors.ErrTimeout) {
			result = "timeout"
		}

		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Reason())
		logger.Warn(ctx, "sink delivery failed", zap.Error(res.Err), zap.Duration("elapsed", elapsed))
	} else {
		span.SetAttributes(attribute.String("reference", res.Reference))
		logger.Debug(ctx, "sink delivery succeeded",
			zap.String("reference", res.Reference), zap.Duration("elapsed", elapsed))
	}

	d.total.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sink", res.Sink),
		attribute.String("result", result)))
	d.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attribute.String("sink", res.Sink)))
}
