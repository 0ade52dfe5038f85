package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"roman-numerals/go-backend/internal/numerals"
)

const (
	converterComponentName = "converter"

	OperationToRoman = "to_roman"
	OperationToInt   = "to_int"

	// NotificationConversion is the event method published per conversion.
	NotificationConversion = "numerals.converted"

	defaultEventBacklog = 256
)

// Service implements ConverterService on top of a numerals.Engine.
type Service struct {
	engine        numerals.Engine
	logger        *slog.Logger
	metrics       *ConversionMetrics
	notifications *NotificationHub
	publishEvents bool
}

var _ ConverterService = (*Service)(nil)

func NewService(opts ServiceOptions) (*Service, error) {
	engine := opts.Engine
	if engine == nil {
		engine = numerals.Standard{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = DefaultLogger()
	}
	metrics, err := NewConversionMetrics(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("register conversion metrics: %w", err)
	}
	backlog := opts.EventBacklog
	if backlog <= 0 {
		backlog = defaultEventBacklog
	}
	return &Service{
		engine:        engine,
		logger:        logger,
		metrics:       metrics,
		notifications: NewNotificationHub(backlog),
		publishEvents: opts.PublishEvents,
	}, nil
}

func (s *Service) ToRoman(ctx context.Context, value int) (ConversionResult, error) {
	started := time.Now()
	numeral, err := s.engine.ConvertToRomanNumeral(value)
	input := strconv.Itoa(value)
	if err != nil {
		return ConversionResult{}, s.fail(ctx, OperationToRoman, input, started, err)
	}
	res := ConversionResult{Numeral: numeral, Value: value}
	s.succeed(ctx, OperationToRoman, input, started, res)
	return res, nil
}

func (s *Service) ToInt(ctx context.Context, numeral string) (ConversionResult, error) {
	started := time.Now()
	value, err := s.engine.ConvertToInt(numeral)
	if err != nil {
		return ConversionResult{}, s.fail(ctx, OperationToInt, numeral, started, err)
	}
	res := ConversionResult{Numeral: strings.ToUpper(numeral), Value: value}
	s.succeed(ctx, OperationToInt, numeral, started, res)
	return res, nil
}

func (s *Service) SubscribeNotifications(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	return s.notifications.Subscribe(fromSeq)
}

func (s *Service) succeed(ctx context.Context, operation, input string, started time.Time, res ConversionResult) {
	s.metrics.RecordOp(operation, OutcomeOK, started)
	s.logInfo(ctx, operation, "conversion succeeded", "input", input, "numeral", res.Numeral, "value", res.Value)
	s.publish(ConversionEvent{
		Operation: operation,
		Input:     input,
		Outcome:   OutcomeOK,
		Numeral:   res.Numeral,
		Value:     res.Value,
	})
}

func (s *Service) fail(ctx context.Context, operation, input string, started time.Time, err error) error {
	outcome := classifyOutcome(err)
	s.metrics.RecordOp(operation, outcome, started)
	category := CategoryValidation
	if outcome == OutcomeError {
		category = CategoryInternal
		s.logError(ctx, operation, category, err, "input", input)
	} else {
		s.logWarn(ctx, operation, "conversion rejected", "input", input, "outcome", outcome, "error", err.Error())
	}
	s.publish(ConversionEvent{
		Operation: operation,
		Input:     input,
		Outcome:   outcome,
		Error:     err.Error(),
	})
	return &CategorizedError{Category: category, Err: err}
}

func (s *Service) publish(evt ConversionEvent) {
	if !s.publishEvents {
		return
	}
	s.notifications.Publish(NotificationConversion, evt)
}

func classifyOutcome(err error) string {
	switch {
	case errors.Is(err, numerals.ErrInvalidNumeral):
		return OutcomeInvalidNumeral
	case errors.Is(err, numerals.ErrOutOfRange):
		return OutcomeOutOfRange
	default:
		return OutcomeError
	}
}

func (s *Service) logInfo(ctx context.Context, operation, message string, attrs ...any) {
	base := []any{
		"component", converterComponentName,
		"operation", operation,
		"correlation_id", CorrelationID(ctx),
	}
	s.logger.InfoContext(ctx, message, append(base, attrs...)...)
}

func (s *Service) logWarn(ctx context.Context, operation, message string, attrs ...any) {
	base := []any{
		"component", converterComponentName,
		"operation", operation,
		"correlation_id", CorrelationID(ctx),
	}
	s.logger.WarnContext(ctx, message, append(base, attrs...)...)
}

func (s *Service) logError(ctx context.Context, operation, category string, err error, attrs ...any) {
	base := []any{
		"component", converterComponentName,
		"operation", operation,
		"category", category,
		"correlation_id", CorrelationID(ctx),
		"error", err.Error(),
	}
	s.logger.ErrorContext(ctx, "service error", append(base, attrs...)...)
}
