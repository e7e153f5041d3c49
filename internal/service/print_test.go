package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kiwari-pos/printer/internal/dispatch"
	"github.com/kiwari-pos/printer/internal/document"
	"github.com/kiwari-pos/printer/internal/enum"
	"github.com/kiwari-pos/printer/internal/journal"
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/reconcile"
	"github.com/kiwari-pos/printer/internal/routing"
	"github.com/shopspring/decimal"
)

// --- Mock implementations ---

// spyRouter records every item handed to the grouper.
type spyRouter struct {
	table *routing.Table
	seen  []order.OrderItem
}

func (s *spyRouter) Route(items []order.OrderItem) routing.Groups {
	s.seen = append(s.seen, items...)
	return s.table.Route(items)
}

type mockDispatcher struct {
	mu   sync.Mutex
	fail map[string]error
	jobs []dispatch.Job
	// afterFn runs once every job of a DispatchAll call is done.
	afterFn func()
}

func (m *mockDispatcher) Dispatch(ctx context.Context, job dispatch.Job) dispatch.Outcome {
	m.mu.Lock()
	m.jobs = append(m.jobs, job)
	m.mu.Unlock()
	return dispatch.Outcome{JobID: job.ID, Printer: job.Printer, Err: m.fail[job.Printer]}
}

func (m *mockDispatcher) DispatchAll(ctx context.Context, jobs []dispatch.Job) []dispatch.Outcome {
	out := make([]dispatch.Outcome, len(jobs))
	for i, j := range jobs {
		out[i] = m.Dispatch(ctx, j)
	}
	if m.afterFn != nil {
		m.afterFn()
	}
	return out
}

type mockReconciler struct {
	reconcileFn func(ctx context.Context, items []order.OrderItem) []reconcile.Outcome
	items       []order.OrderItem
}

func (m *mockReconciler) Reconcile(ctx context.Context, items []order.OrderItem) []reconcile.Outcome {
	m.items = append(m.items, items...)
	if m.reconcileFn != nil {
		return m.reconcileFn(ctx, items)
	}
	out := make([]reconcile.Outcome, len(items))
	for i, it := range items {
		out[i] = reconcile.Outcome{ItemID: it.ID}
	}
	return out
}

type mockJournal struct {
	err     error
	entries []journal.Entry
}

func (m *mockJournal) Record(ctx context.Context, e journal.Entry) error {
	m.entries = append(m.entries, e)
	return m.err
}

type published struct {
	printer   string
	eventType string
	payload   any
}

type mockNotifier struct {
	events []published
}

func (m *mockNotifier) Publish(printer, eventType string, payload any) error {
	m.events = append(m.events, published{printer, eventType, payload})
	return nil
}

// --- Helpers ---

var fixedNow = time.Date(2026, 4, 2, 18, 30, 0, 0, time.UTC)

func category(id int64) *int64 { return &id }

func item(id int64, cat *int64, status string, printed bool) order.OrderItem {
	return order.OrderItem{
		ID:        id,
		Quantity:  "1",
		Status:    status,
		IsPrinted: printed,
		Product:   &order.Product{Name: "Dish", UnitType: enum.UnitPiece, CategoryID: cat},
	}
}

type fixture struct {
	svc        *PrintService
	router     *spyRouter
	dispatcher *mockDispatcher
	reconciler *mockReconciler
	journal    *mockJournal
	notifier   *mockNotifier
}

func newFixture(customerPrinter string, fail map[string]error) *fixture {
	f := &fixture{
		router:     &spyRouter{table: routing.NewTable(map[int64]string{6: "bar", 7: "grill", 9: "grill"}, "kitchen")},
		dispatcher: &mockDispatcher{fail: fail},
		reconciler: &mockReconciler{},
		journal:    &mockJournal{},
		notifier:   &mockNotifier{},
	}
	f.svc = NewPrintService(f.router, document.NewComposer(document.Labels{}), f.dispatcher, f.reconciler, customerPrinter,
		WithJournal(f.journal), WithNotifier(f.notifier), WithClock(func() time.Time { return fixedNow }))
	return f
}

func ids(items []order.OrderItem) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestPrintKitchenOrder_Scenario(t *testing.T) {
	f := newFixture("", nil)
	o := order.Order{
		ID:    31,
		Table: &order.Table{Number: "8"},
		Items: []order.OrderItem{
			item(1, category(7), enum.OrderItemStatusActive, false),
			item(2, category(9), enum.OrderItemStatusActive, false),
			item(3, category(7), enum.OrderItemStatusCanceled, false),
			item(4, nil, enum.OrderItemStatusActive, false),
			item(5, category(7), enum.OrderItemStatusActive, true),
		},
	}

	res, err := f.svc.PrintKitchenOrder(context.Background(), o)
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	if res.Status != enum.PrintStatusPrinted {
		t.Errorf("status: got %q, want printed", res.Status)
	}
	if res.Summary != "routed to 2 printers, 0 reconciliation failures" {
		t.Errorf("summary: got %q", res.Summary)
	}
	if len(res.Printers) != 2 {
		t.Fatalf("printers: got %d, want 2", len(res.Printers))
	}
	grill, kitchen := res.Printers[0], res.Printers[1]
	if grill.Printer != "grill" || grill.New != 2 || grill.Canceled != 1 {
		t.Errorf("grill: got %+v, want 2 new + 1 canceled", grill)
	}
	if kitchen.Printer != "kitchen" || kitchen.New != 1 || kitchen.Canceled != 0 {
		t.Errorf("kitchen: got %+v, want 1 new", kitchen)
	}

	if got := ids(f.reconciler.items); !equalIDs(got, []int64{1, 2, 3, 4}) {
		t.Errorf("reconciled items: got %v, want [1 2 3 4]", got)
	}
	if res.Reconciled != 4 || res.ReconcileFailures != 0 {
		t.Errorf("reconciled: got %d/%d failures", res.Reconciled, res.ReconcileFailures)
	}

	for _, job := range f.dispatcher.jobs {
		if job.Document.Kind != enum.DocumentKitchen {
			t.Errorf("job %s kind: got %q", job.Printer, job.Document.Kind)
		}
		if !strings.Contains(strings.Join(job.Document.Texts(), "\n"), "Time: 02.04.2026 18:30:00") {
			t.Errorf("job %s does not carry the service clock", job.Printer)
		}
	}
	if len(f.journal.entries) != 2 {
		t.Errorf("journal entries: got %d, want 2", len(f.journal.entries))
	}
}

func TestPrintKitchenOrder_PrintedItemsNeverReachRouter(t *testing.T) {
	f := newFixture("", nil)
	o := order.Order{Items: []order.OrderItem{
		item(1, category(7), enum.OrderItemStatusActive, true),
		item(2, category(6), enum.OrderItemStatusActive, false),
		item(3, nil, enum.OrderItemStatusCanceled, true),
	}}

	if _, err := f.svc.PrintKitchenOrder(context.Background(), o); err != nil {
		t.Fatalf("print: %v", err)
	}

	for _, it := range f.router.seen {
		if it.IsPrinted {
			t.Errorf("printed item %d reached the router", it.ID)
		}
	}
	if got := ids(f.router.seen); !equalIDs(got, []int64{2}) {
		t.Errorf("routed: got %v, want [2]", got)
	}
}

func TestPrintKitchenOrder_DispatchFailureIsIsolated(t *testing.T) {
	f := newFixture("", map[string]error{"bar": errors.New("printer offline")})
	o := order.Order{ID: 4, Items: []order.OrderItem{
		item(1, category(6), enum.OrderItemStatusActive, false),
		item(2, category(7), enum.OrderItemStatusActive, false),
	}}

	res, err := f.svc.PrintKitchenOrder(context.Background(), o)
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	if res.Status != enum.PrintStatusPartial {
		t.Errorf("status: got %q, want partial", res.Status)
	}
	var bar, grill PrinterResult
	for _, p := range res.Printers {
		switch p.Printer {
		case "bar":
			bar = p
		case "grill":
			grill = p
		}
	}
	if bar.Error != "printer offline" {
		t.Errorf("bar error: got %q", bar.Error)
	}
	if grill.Error != "" {
		t.Errorf("grill should succeed, got %q", grill.Error)
	}
	// Items of the failed printer are still marked.
	if got := ids(f.reconciler.items); !equalIDs(got, []int64{1, 2}) {
		t.Errorf("reconciled: got %v, want [1 2]", got)
	}

	var failedEvents, dispatchedEvents int
	for _, ev := range f.notifier.events {
		switch ev.eventType {
		case enum.EventPrintFailed:
			failedEvents++
			if ev.printer != "bar" {
				t.Errorf("failed event on %q", ev.printer)
			}
		case enum.EventPrintDispatched:
			dispatchedEvents++
		}
	}
	if failedEvents != 1 || dispatchedEvents != 1 {
		t.Errorf("events: %d failed, %d dispatched", failedEvents, dispatchedEvents)
	}
}

func TestPrintKitchenOrder_ReconcileFailuresCounted(t *testing.T) {
	f := newFixture("", nil)
	f.reconciler.reconcileFn = func(ctx context.Context, items []order.OrderItem) []reconcile.Outcome {
		out := make([]reconcile.Outcome, len(items))
		for i, it := range items {
			out[i] = reconcile.Outcome{ItemID: it.ID}
			if it.ID == 2 {
				out[i].Err = errors.New("503")
			}
		}
		return out
	}
	o := order.Order{Items: []order.OrderItem{
		item(1, nil, enum.OrderItemStatusActive, false),
		item(2, nil, enum.OrderItemStatusActive, false),
	}}

	res, err := f.svc.PrintKitchenOrder(context.Background(), o)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if res.Status != enum.PrintStatusPrinted {
		t.Errorf("status: got %q, reconciliation failures do not change dispatch status", res.Status)
	}
	if res.Reconciled != 1 || res.ReconcileFailures != 1 {
		t.Errorf("reconciled: got %d ok, %d failed", res.Reconciled, res.ReconcileFailures)
	}
	if res.Summary != "routed to 1 printers, 1 reconciliation failures" {
		t.Errorf("summary: got %q", res.Summary)
	}

	last := f.notifier.events[len(f.notifier.events)-1]
	ev, ok := last.payload.(ReconcileEvent)
	if last.eventType != enum.EventPrintReconciled || !ok || ev.Failures != 1 {
		t.Errorf("last event: got %+v", last)
	}
}

func TestPrintKitchenOrder_NothingToDo(t *testing.T) {
	tests := []struct {
		name   string
		items  []order.OrderItem
		status string
	}{
		{"no items", nil, enum.PrintStatusNoItems},
		{"all printed", []order.OrderItem{item(1, nil, enum.OrderItemStatusActive, true)}, enum.PrintStatusNothingToPrint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture("", nil)
			res, err := f.svc.PrintKitchenOrder(context.Background(), order.Order{Items: tt.items})
			if err != nil {
				t.Fatalf("print: %v", err)
			}
			if res.Status != tt.status {
				t.Errorf("status: got %q, want %q", res.Status, tt.status)
			}
			if len(f.dispatcher.jobs) != 0 || len(f.reconciler.items) != 0 {
				t.Error("nothing should be dispatched or reconciled")
			}
		})
	}
}

func TestPrintKitchenOrder_CanceledContext(t *testing.T) {
	f := newFixture("", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.PrintKitchenOrder(ctx, order.Order{Items: []order.OrderItem{item(1, nil, "", false)}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
}

func TestPrintKitchenOrder_CallerGoneAfterDispatch(t *testing.T) {
	f := newFixture("", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.dispatcher.afterFn = cancel
	f.reconciler.reconcileFn = func(ctx context.Context, items []order.OrderItem) []reconcile.Outcome {
		out := make([]reconcile.Outcome, len(items))
		for i, it := range items {
			out[i] = reconcile.Outcome{ItemID: it.ID, Err: ctx.Err()}
		}
		return out
	}
	o := order.Order{Items: []order.OrderItem{
		item(1, category(7), enum.OrderItemStatusActive, false),
		item(2, category(7), enum.OrderItemStatusCanceled, false),
	}}

	res, err := f.svc.PrintKitchenOrder(ctx, o)
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if ctx.Err() == nil {
		t.Fatal("caller context should be canceled by now")
	}
	if res.ReconcileFailures != 0 || res.Reconciled != 2 {
		t.Errorf("reconciled: got %d ok, %d failed, want 2 ok", res.Reconciled, res.ReconcileFailures)
	}
}

func TestPrintCustomerCheck_CanceledContext(t *testing.T) {
	f := newFixture("front", nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.PrintCustomerCheck(ctx, order.Check{Items: []order.CheckLine{checkLine("A", 1, 10)}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got: %v", err)
	}
	if len(f.dispatcher.jobs) != 0 {
		t.Error("nothing should be dispatched")
	}
}

func TestPrintKitchenOrder_JournalFailureIgnored(t *testing.T) {
	f := newFixture("", nil)
	f.journal.err = errors.New("db down")

	res, err := f.svc.PrintKitchenOrder(context.Background(), order.Order{Items: []order.OrderItem{item(1, nil, "", false)}})
	if err != nil {
		t.Fatalf("print: %v", err)
	}
	if res.Status != enum.PrintStatusPrinted {
		t.Errorf("status: got %q", res.Status)
	}
}

func checkLine(name string, qty, total int64) order.CheckLine {
	return order.CheckLine{
		ProductName: name,
		UnitType:    enum.UnitPiece,
		Quantity:    decimal.NewNullDecimal(decimal.NewFromInt(qty)),
		Total:       decimal.NewNullDecimal(decimal.NewFromInt(total)),
	}
}

func TestPrintCustomerCheck_Success(t *testing.T) {
	f := newFixture("front", nil)
	c := order.Check{
		OrderID:     8,
		TotalAmount: decimal.NewFromInt(60),
		Items:       []order.CheckLine{checkLine("A", 1, 10), checkLine("B", 2, 20), checkLine("A", 3, 30)},
	}

	res, err := f.svc.PrintCustomerCheck(context.Background(), c)
	if err != nil {
		t.Fatalf("print check: %v", err)
	}
	if res.Printer != "front" || res.Lines != 2 || !res.Amount.Equal(decimal.NewFromInt(60)) {
		t.Errorf("result: got %+v", res)
	}
	if len(f.dispatcher.jobs) != 1 || f.dispatcher.jobs[0].Document.Kind != enum.DocumentCustomer {
		t.Fatalf("jobs: got %+v", f.dispatcher.jobs)
	}
	if len(f.reconciler.items) != 0 {
		t.Error("checks are never reconciled")
	}
	if len(f.journal.entries) != 1 || f.journal.entries[0].ItemCount != 2 {
		t.Errorf("journal: got %+v", f.journal.entries)
	}
}

func TestPrintCustomerCheck_Errors(t *testing.T) {
	lines := []order.CheckLine{checkLine("A", 1, 10)}
	tests := []struct {
		name    string
		printer string
		fail    map[string]error
		items   []order.CheckLine
		wantErr error
	}{
		{"no customer printer", "", nil, lines, ErrNoCustomerPrinter},
		{"empty check", "front", nil, nil, ErrEmptyCheck},
		{"dispatch failure", "front", map[string]error{"front": errSpool}, lines, errSpool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(tt.printer, tt.fail)
			_, err := f.svc.PrintCustomerCheck(context.Background(), order.Check{Items: tt.items})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got: %v", tt.wantErr, err)
			}
		})
	}
}

var errSpool = errors.New("lp: printer not found")
