package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/stock-transfer/internal/core/command"
	"github.com/rl1809/stock-transfer/internal/core/domain"
	"github.com/rl1809/stock-transfer/internal/port"
)

const tracerName = "github.com/rl1809/stock-transfer/internal/core/service"

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseValidating Phase = "validating"
	PhaseExecuting  Phase = "executing"
	PhaseDone       Phase = "done"
	PhaseRejected   Phase = "rejected"
)

// Outcome is the result of one command. Phase is PhaseDone once the request
// reached the containers, even if the transfer itself failed.
type Outcome struct {
	ID         string
	Command    string
	Request    domain.Request
	Phase      Phase
	Err        error
	RolledBack bool
}

func (o Outcome) Success() bool { return o.Err == nil }

func (o Outcome) Kind() domain.Kind {
	if o.Err == nil {
		return ""
	}
	return domain.KindOf(o.Err)
}

type Snapshot struct {
	Warehouse     map[string]int
	Shop          map[string]int
	WarehouseFree int
	ShopFree      int
}

// TransferService moves stock between the warehouse and the shop.
// It is not safe for concurrent use; see Dispatcher.
type TransferService struct {
	validator *command.Validator
	warehouse domain.Container
	shop      domain.Container
	journal   port.JournalRepository
	metrics   port.Metrics
	logger    *zap.Logger
	tracer    trace.Tracer
	newID     func() string

	phase  Phase
	halted error
}

type Option func(*TransferService)

func WithJournal(j port.JournalRepository) Option {
	return func(s *TransferService) { s.journal = j }
}

func WithMetrics(m port.Metrics) Option {
	return func(s *TransferService) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *TransferService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *TransferService) {
		if t != nil {
			s.tracer = t
		}
	}
}

func NewTransferService(validator *command.Validator, warehouse, shop domain.Container, opts ...Option) *TransferService {
	s := &TransferService{
		validator: validator,
		warehouse: warehouse,
		shop:      shop,
		metrics:   port.NopMetrics(),
		logger:    zap.NewNop(),
		tracer:    otel.Tracer(tracerName),
		newID:     newCommandID,
		phase:     PhaseIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Phase returns the terminal phase of the last command, PhaseIdle before the first.
func (s *TransferService) Phase() Phase { return s.phase }

// Halted returns the invariant violation that stopped the service, or nil.
func (s *TransferService) Halted() error { return s.halted }

func (s *TransferService) Vocabulary() command.Vocabulary { return s.validator.Vocabulary() }

// Submit runs one line of command text.
func (s *TransferService) Submit(ctx context.Context, line string) Outcome {
	return s.Execute(ctx, strings.Fields(line))
}

// Execute validates tokens and applies the resulting request. Every result,
// including a failed rollback, is reported through the returned Outcome.
func (s *TransferService) Execute(ctx context.Context, tokens []string) (out Outcome) {
	out = Outcome{
		ID:      s.newID(),
		Command: strings.Join(tokens, " "),
		Phase:   PhaseIdle,
	}

	ctx, span := s.tracer.Start(ctx, "TransferService.Execute",
		trace.WithAttributes(attribute.String("command.id", out.ID)),
	)
	start := time.Now()

	defer func() {
		s.phase = out.Phase
		s.finish(ctx, span, out, time.Since(start))
	}()

	if s.halted != nil {
		out.Phase = PhaseRejected
		out.Err = s.halted
		return out
	}

	out.Phase = PhaseValidating
	req, err := s.validator.Validate(tokens)
	if err != nil {
		out.Phase = PhaseRejected
		out.Err = err
		return out
	}
	out.Request = req

	out.Phase = PhaseExecuting
	span.SetAttributes(
		attribute.String("transfer.verb", string(req.Verb())),
		attribute.String("transfer.product", req.Product),
		attribute.Int("transfer.amount", req.Amount),
	)

	if req.Source == domain.LocationWarehouse {
		out.RolledBack, out.Err = s.deliver(ctx, req)
	} else {
		out.Err = s.collect(ctx, req)
	}
	out.Phase = PhaseDone

	s.record(ctx, out)
	return out
}

// deliver removes from the warehouse, then adds to the shop. When the shop
// refuses, the removed amount is added back to the warehouse; the space it
// occupied is still free, so that add can only fail if bookkeeping is broken.
func (s *TransferService) deliver(ctx context.Context, req domain.Request) (rolledBack bool, err error) {
	if err := s.warehouse.Remove(ctx, req.Product, req.Amount); err != nil {
		return false, err
	}

	addErr := s.shop.Add(ctx, req.Product, req.Amount)
	if addErr == nil {
		return false, nil
	}

	if rbErr := s.warehouse.Add(ctx, req.Product, req.Amount); rbErr != nil {
		s.metrics.Rollback(false)
		s.halted = domain.InvariantViolation(
			fmt.Errorf("restore %d %q to warehouse after shop refused (%v): %w", req.Amount, req.Product, addErr, rbErr),
		)
		s.logger.Error("rollback_failed",
			zap.String("product", req.Product),
			zap.Int("amount", req.Amount),
			zap.NamedError("shop_error", addErr),
			zap.NamedError("rollback_error", rbErr),
		)
		return false, s.halted
	}

	s.metrics.Rollback(true)
	s.logger.Debug("rollback_done",
		zap.String("product", req.Product),
		zap.Int("amount", req.Amount),
		zap.String("reason", string(domain.KindOf(addErr))),
	)
	return true, addErr
}

func (s *TransferService) collect(ctx context.Context, req domain.Request) error {
	return s.shop.Remove(ctx, req.Product, req.Amount)
}

func (s *TransferService) record(ctx context.Context, out Outcome) {
	if s.journal == nil {
		return
	}
	entry := domain.NewTransfer(out.ID, out.Request, out.Err, out.RolledBack)
	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("journal_record_failed",
			zap.String("command_id", out.ID),
			zap.Error(err),
		)
	}
}

func (s *TransferService) finish(ctx context.Context, span trace.Span, out Outcome, elapsed time.Duration) {
	verb := "none"
	if out.Phase == PhaseDone {
		verb = string(out.Request.Verb())
	}
	outcome := domain.OutcomeAccepted
	if out.Err != nil {
		outcome = string(out.Kind())
	}
	s.metrics.ObserveCommand(verb, outcome, elapsed)

	if out.Err != nil {
		span.RecordError(out.Err)
		span.SetStatus(codes.Error, outcome)
	} else {
		span.SetStatus(codes.Ok, outcome)
	}
	span.End()

	fields := []zap.Field{
		zap.String("command_id", out.ID),
		zap.String("command", out.Command),
		zap.String("phase", string(out.Phase)),
		zap.String("verb", verb),
		zap.String("outcome", outcome),
		zap.Bool("rolled_back", out.RolledBack),
		zap.Float64("latency_seconds", elapsed.Seconds()),
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	if out.Kind() == domain.KindInvariantViolation {
		s.logger.Error("command_done", append(fields, zap.Error(out.Err))...)
		return
	}
	s.logger.Info("command_done", fields...)
}

func (s *TransferService) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Warehouse, err = s.warehouse.Items(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("warehouse items: %w", err)
	}
	if snap.WarehouseFree, err = s.warehouse.FreeSpace(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("warehouse free space: %w", err)
	}
	if snap.Shop, err = s.shop.Items(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("shop items: %w", err)
	}
	if snap.ShopFree, err = s.shop.FreeSpace(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("shop free space: %w", err)
	}
	return snap, nil
}

// newCommandID generates a UUID v7, falling back to v4.
func newCommandID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
