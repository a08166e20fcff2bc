package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability/logctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const spanPrefix = "UC."

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Instruments are the RED metrics every use case reports.
type Instruments struct {
	Requests observability.Counter   // usecase_requests_total{use_case,outcome}
	Duration observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstruments(m observability.Metrics) Instruments {
	if m == nil {
		m = observability.NopMetrics()
	}
	return Instruments{
		Requests: m.Counter(observability.MUsecaseRequests),
		Duration: m.Histogram(observability.MUsecaseDuration),
	}
}

// Run tracks one use case execution: a UC.* span, the RED metrics and a
// single use_case_done log line written by End.
type Run struct {
	ctx     context.Context
	span    trace.Span
	logger  observability.Logger
	inst    Instruments
	useCase string
	start   time.Time
	outcome string
	status  string
	fields  []observability.Field
}

// Begin opens the span and binds use_case onto the context logger.
func Begin(
	ctx context.Context,
	tracer observability.Tracer,
	base observability.Logger,
	inst Instruments,
	useCase, spanName string,
	attrs ...attribute.KeyValue,
) (context.Context, *Run) {
	if tracer == nil {
		tracer = observability.NopTracer()
	}
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := tracer.Start(ctx, spanPrefix+spanName, attrs...)
	ctx, logger := logctx.Enrich(ctx, base, observability.F("use_case", useCase))

	return ctx, &Run{
		ctx:     ctx,
		span:    span,
		logger:  logger,
		inst:    inst,
		useCase: useCase,
		start:   time.Now(),
		outcome: OutcomeSuccess,
		status:  "OK",
	}
}

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as an error with the given status code.
func (r *Run) Fail(status string) {
	r.outcome, r.status = OutcomeError, status
}

// Status overrides the status text without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

// With adds fields to the final log line.
func (r *Run) With(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End closes the span, records metrics and writes use_case_done. An error
// not already classified by Fail counts as an error outcome.
func (r *Run) End(err error) {
	if err != nil && r.outcome == OutcomeSuccess {
		r.outcome = OutcomeError
		if r.status == "OK" {
			r.status = "FAILED"
		}
	}
	lat := time.Since(r.start).Seconds()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	if r.inst.Requests != nil {
		r.inst.Requests.Add(1,
			observability.L("use_case", r.useCase),
			observability.L("outcome", r.outcome),
		)
	}
	if r.inst.Duration != nil {
		r.inst.Duration.Observe(lat, observability.L("use_case", r.useCase))
	}

	fields := []observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	fields = append(fields, r.fields...)
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}

	r.logger.Info("use_case_done", fields...)
}
