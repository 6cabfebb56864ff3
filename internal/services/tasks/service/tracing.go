package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/louisbranch/taskmanager/internal/platform/errors"
	"github.com/louisbranch/taskmanager/internal/platform/otel"
)

const tracerName = "github.com/louisbranch/taskmanager/internal/services/tasks/service"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan ends span and returns err classified. Errors without a domain code
// become CodeUnknown carrying message; the cause is kept for logs and the span.
func endSpan(span trace.Span, message string, err error) error {
	defer span.End()
	if err == nil {
		return nil
	}
	var domain *apperrors.Error
	if !errors.As(err, &domain) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		err = apperrors.Wrap(apperrors.CodeUnknown, message, err)
	} else if domain.Code == apperrors.CodeUnknown {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.SetAttributes(attribute.String("taskmanager.error_code", string(apperrors.GetCode(err))))
	return err
}
