package store

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/capitalize-ai/curator-chat/internal/model"
	"github.com/capitalize-ai/curator-chat/pkg/metrics"
)

var tracer = otel.Tracer("github.com/capitalize-ai/curator-chat/internal/store")

// Instrumented wraps a Store with tracing spans and operation metrics.
type Instrumented struct {
	next Store
}

// Instrument wraps s. Wrapping an already instrumented store returns it as is.
func Instrument(s Store) Store {
	if _, ok := s.(*Instrumented); ok {
		return s
	}
	return &Instrumented{next: s}
}

func (i *Instrumented) Name() string { return i.next.Name() }

func (i *Instrumented) GetByID(ctx context.Context, id string) (*model.ChatSession, error) {
	ctx, done := i.observe(ctx, "get", attribute.String("session.id", id))
	sess, err := i.next.GetByID(ctx, id)
	done(err)
	return sess, err
}

func (i *Instrumented) Create(ctx context.Context, category model.Category, messages []model.Message, userID string) (*model.ChatSession, error) {
	ctx, done := i.observe(ctx, "create", attribute.String("category", string(category)))
	sess, err := i.next.Create(ctx, category, messages, userID)
	done(err)
	return sess, err
}

func (i *Instrumented) AppendAndSave(ctx context.Context, id string, messages []model.Message) (*model.ChatSession, error) {
	ctx, done := i.observe(ctx, "append", attribute.String("session.id", id), attribute.Int("messages", len(messages)))
	sess, err := i.next.AppendAndSave(ctx, id, messages)
	done(err)
	return sess, err
}

func (i *Instrumented) ListByOwner(ctx context.Context, userID string) ([]*model.ChatSession, error) {
	ctx, done := i.observe(ctx, "list")
	sessions, err := i.next.ListByOwner(ctx, userID)
	done(err)
	return sessions, err
}

func (i *Instrumented) Ping(ctx context.Context) error {
	return i.next.Ping(ctx)
}

func (i *Instrumented) Close() error {
	return i.next.Close()
}

func (i *Instrumented) observe(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	attrs = append(attrs, attribute.String("store.backend", i.next.Name()))
	ctx, span := tracer.Start(ctx, "store."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		metrics.RecordStoreOperation(i.next.Name(), op, outcome, time.Since(start).Seconds())
	}
}
