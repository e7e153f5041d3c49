package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/printer/internal/dispatch"
	"github.com/kiwari-pos/printer/internal/document"
	"github.com/kiwari-pos/printer/internal/enum"
	"github.com/kiwari-pos/printer/internal/journal"
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/receipt"
	"github.com/kiwari-pos/printer/internal/reconcile"
	"github.com/kiwari-pos/printer/internal/routing"
	"github.com/shopspring/decimal"
)

// Errors returned by the print service.
var (
	ErrNoCustomerPrinter = errors.New("customer printer is not configured")
	ErrEmptyCheck        = errors.New("check has no items")
)

// Router groups pending items by destination printer.
// Satisfied by *routing.Table.
type Router interface {
	Route(items []order.OrderItem) routing.Groups
}

// Dispatcher renders and spools documents.
// Satisfied by *dispatch.Coordinator.
type Dispatcher interface {
	Dispatch(ctx context.Context, job dispatch.Job) dispatch.Outcome
	DispatchAll(ctx context.Context, jobs []dispatch.Job) []dispatch.Outcome
}

// Reconciler marks items printed in the order API.
// Satisfied by *reconcile.Reconciler.
type Reconciler interface {
	Reconcile(ctx context.Context, items []order.OrderItem) []reconcile.Outcome
}

// Journal records dispatch outcomes.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Notifier publishes print events to the subscribers of one printer.
// Satisfied by *ws.Hub.
type Notifier interface {
	Publish(printer, eventType string, payload any) error
}

// PrinterResult is the dispatch result for one printer.
type PrinterResult struct {
	Printer  string    `json:"printer"`
	JobID    uuid.UUID `json:"job_id"`
	New      int       `json:"new_items"`
	Canceled int       `json:"canceled_items"`
	Error    string    `json:"error,omitempty"`
}

// KitchenResult summarizes one kitchen print run.
type KitchenResult struct {
	Status            string          `json:"status"`
	Summary           string          `json:"summary"`
	Printers          []PrinterResult `json:"printers"`
	Reconciled        int             `json:"reconciled"`
	ReconcileFailures int             `json:"reconcile_failures"`
}

// CheckResult describes a printed customer check.
type CheckResult struct {
	JobID   uuid.UUID       `json:"job_id"`
	Printer string          `json:"printer"`
	Lines   int             `json:"lines"`
	Amount  decimal.Decimal `json:"amount"`
}

// DispatchEvent is the payload of print.dispatched and print.failed events.
type DispatchEvent struct {
	JobID   uuid.UUID `json:"job_id"`
	Kind    string    `json:"kind"`
	OrderID int64     `json:"order_id"`
	Items   int       `json:"items"`
	Error   string    `json:"error,omitempty"`
}

// ReconcileEvent is the payload of print.reconciled events.
type ReconcileEvent struct {
	OrderID  int64 `json:"order_id"`
	Marked   int   `json:"marked"`
	Failures int   `json:"failures"`
}

// PrintService turns orders and checks into printed documents.
type PrintService struct {
	router          Router
	composer        *document.Composer
	dispatcher      Dispatcher
	reconciler      Reconciler
	customerPrinter string
	journal         Journal
	notifier        Notifier
	now             func() time.Time
}

// Option configures a PrintService.
type Option func(*PrintService)

// WithJournal records every dispatch outcome in j.
func WithJournal(j Journal) Option {
	return func(s *PrintService) { s.journal = j }
}

// WithNotifier publishes print events through n.
func WithNotifier(n Notifier) Option {
	return func(s *PrintService) { s.notifier = n }
}

// WithClock replaces the clock used for ticket timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PrintService) { s.now = now }
}

// NewPrintService creates a new PrintService.
func NewPrintService(router Router, composer *document.Composer, dispatcher Dispatcher, reconciler Reconciler, customerPrinter string, opts ...Option) *PrintService {
	s := &PrintService{
		router:          router,
		composer:        composer,
		dispatcher:      dispatcher,
		reconciler:      reconciler,
		customerPrinter: customerPrinter,
		journal:         journal.Nop{},
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PrintKitchenOrder prints one ticket per destination printer for the items
// of o that have not been printed yet, then marks every routed item printed.
// Items are marked even when their printer failed; the caller gets the
// per-printer outcome in the result. The error is non-nil only when ctx is
// already done.
func (s *PrintService) PrintKitchenOrder(ctx context.Context, o order.Order) (*KitchenResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(o.Items) == 0 {
		return &KitchenResult{Status: enum.PrintStatusNoItems, Summary: "order has no items"}, nil
	}
	pending := o.Pending()
	if len(pending) == 0 {
		return &KitchenResult{Status: enum.PrintStatusNothingToPrint, Summary: "all items already printed"}, nil
	}
	// Once tickets go out the run completes, so items on paper are marked printed.
	ctx = context.WithoutCancel(ctx)

	groups := s.router.Route(pending)
	now := s.now()

	jobs := make([]dispatch.Job, len(groups))
	for i, g := range groups {
		jobs[i] = dispatch.Job{
			ID:       uuid.New(),
			Printer:  g.Printer,
			Document: s.composer.KitchenTicket(o, g.New, g.Canceled, now),
		}
	}
	outcomes := s.dispatcher.DispatchAll(ctx, jobs)

	result := &KitchenResult{Status: enum.PrintStatusPrinted, Printers: make([]PrinterResult, len(groups))}
	for i, g := range groups {
		out := outcomes[i]
		pr := PrinterResult{Printer: g.Printer, JobID: out.JobID, New: len(g.New), Canceled: len(g.Canceled)}
		if !out.OK() {
			pr.Error = out.Err.Error()
			result.Status = enum.PrintStatusPartial
		}
		result.Printers[i] = pr
		s.record(ctx, enum.DocumentKitchen, o.ID, g.Len(), out)
	}

	marks := s.reconciler.Reconcile(ctx, groups.Items())
	failures := reconcile.Failures(marks)
	result.Reconciled = len(marks) - failures
	result.ReconcileFailures = failures
	result.Summary = fmt.Sprintf("routed to %d printers, %d reconciliation failures", len(groups), failures)

	for _, g := range groups {
		s.notify(g.Printer, enum.EventPrintReconciled, ReconcileEvent{
			OrderID: o.ID, Marked: result.Reconciled, Failures: failures,
		})
	}

	slog.Info("kitchen order printed",
		"order_id", o.ID, "status", result.Status, "printers", len(groups),
		"items", len(marks), "reconcile_failures", failures)
	return result, nil
}

// PrintCustomerCheck merges duplicate lines of c and prints the bill on the
// customer printer. ctx is only checked before dispatch; a started print
// runs to completion.
func (s *PrintService) PrintCustomerCheck(ctx context.Context, c order.Check) (*CheckResult, error) {
	if s.customerPrinter == "" {
		return nil, ErrNoCustomerPrinter
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCheck
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ctx = context.WithoutCancel(ctx)

	lines := receipt.Merge(c.Items)
	out := s.dispatcher.Dispatch(ctx, dispatch.Job{
		ID:       uuid.New(),
		Printer:  s.customerPrinter,
		Document: s.composer.CustomerBill(c, lines),
	})
	s.record(ctx, enum.DocumentCustomer, c.OrderID, len(lines), out)

	if !out.OK() {
		return nil, fmt.Errorf("print check for order %d: %w", c.OrderID, out.Err)
	}
	return &CheckResult{JobID: out.JobID, Printer: s.customerPrinter, Lines: len(lines), Amount: c.Amount()}, nil
}

// record journals and announces one dispatch outcome. Neither step can fail
// the print run.
func (s *PrintService) record(ctx context.Context, kind string, orderID int64, items int, out dispatch.Outcome) {
	if err := s.journal.Record(ctx, journal.Entry{
		JobID:     out.JobID,
		Kind:      kind,
		Printer:   out.Printer,
		OrderID:   orderID,
		ItemCount: items,
		Err:       out.Err,
		CreatedAt: s.now(),
	}); err != nil {
		slog.Warn("journal print job", "job_id", out.JobID, "error", err)
	}

	ev := DispatchEvent{JobID: out.JobID, Kind: kind, OrderID: orderID, Items: items}
	eventType := enum.EventPrintDispatched
	if !out.OK() {
		ev.Error = out.Err.Error()
		eventType = enum.EventPrintFailed
	}
	s.notify(out.Printer, eventType, ev)
}

func (s *PrintService) notify(printer, eventType string, payload any) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(printer, eventType, payload); err != nil {
		slog.Warn("publish print event", "printer", printer, "type", eventType, "error", err)
	}
}
