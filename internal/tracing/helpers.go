package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracer names for the engine's two span families.
const (
	tracerNameEngine  = "dealrank"
	tracerNameStorage = "dealrank/storage"
)

// DBOperation classifies a storage span.
type DBOperation string

const (
	DBOperationQuery  DBOperation = "query"
	DBOperationUpdate DBOperation = "update"
	// DBOperationUpsert covers the insert-or-replace writes the score,
	// vote, and rating repositories perform.
	DBOperationUpsert DBOperation = "upsert"
)

// StartSpan opens a business-logic span (score recalculation, vote
// routing). The returned func ends the span, recording err when
// non-nil:
//
//	ctx, end := tracing.StartSpan(ctx, "recalculate_deal_score")
//	defer func() { end(err) }()
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	ctx, span := otel.Tracer(tracerNameEngine).Start(ctx, name)
	return ctx, func(err error) {
		closeSpan(span, err)
	}
}

// StartDBSpan opens a client span around one storage operation, carrying
// the standard db.* attributes so backends can group by table.
func StartDBSpan(ctx context.Context, table string, op DBOperation) (context.Context, func(error)) {
	name := string(op)
	if table != "" {
		name += " " + table
	}

	attrs := []attribute.KeyValue{
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation", string(op)),
	}
	if table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", table))
	}

	ctx, span := otel.Tracer(tracerNameStorage).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, func(err error) {
		closeSpan(span, err)
	}
}

func closeSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddEvent annotates the current span with a point-in-time event.
// No-op outside a recording span.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}

// SetAttributes attaches attributes to the current span. No-op outside
// a recording span.
func SetAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
