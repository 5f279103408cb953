package database

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/irfndi/timeseries-dashboard/internal/database"

// DatabasePool defines the pool operations the repositories need.
// *pgxpool.Pool and pgxmock pools both satisfy it.
type DatabasePool interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

// TracedPool wraps a DatabasePool and records a client span per statement.
type TracedPool struct {
	pool   DatabasePool
	tracer trace.Tracer
}

func NewTracedPool(pool DatabasePool) *TracedPool {
	return &TracedPool{pool: pool, tracer: otel.Tracer(tracerName)}
}

func (p *TracedPool) start(ctx context.Context, sql string) (context.Context, trace.Span) {
	op := operationOf(sql)
	return p.tracer.Start(ctx, "db."+strings.ToLower(op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.operation", op),
		),
	)
}

func (p *TracedPool) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	ctx, span := p.start(ctx, sql)
	defer span.End()
	return p.pool.QueryRow(ctx, sql, args...)
}

func (p *TracedPool) Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	ctx, span := p.start(ctx, sql)
	defer span.End()

	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return tag, err
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tag.RowsAffected()))
	return tag, nil
}

func (p *TracedPool) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	ctx, span := p.start(ctx, sql)
	defer span.End()

	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return rows, err
}

// operationOf returns the leading SQL keyword, upper-cased.
func operationOf(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
