// Package reconcile marks dispatched order items as printed in the order API.
package reconcile

import (
	"context"
	"log/slog"

	"github.com/kiwari-pos/printer/internal/order"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 4

// Marker sets the printed flag of one order item.
type Marker interface {
	MarkPrinted(ctx context.Context, itemID int64) error
}

// Outcome is the result for one item. Err is nil when the flag was set.
type Outcome struct {
	ItemID int64
	Err    error
}

// Reconciler issues one update per item.
type Reconciler struct {
	marker      Marker
	concurrency int
}

// NewReconciler creates a Reconciler. concurrency <= 0 uses the default.
func NewReconciler(marker Marker, concurrency int) *Reconciler {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Reconciler{marker: marker, concurrency: concurrency}
}

// Reconcile marks every item printed and returns one outcome per item, in
// input order. A failed update is logged and never retried; the remaining
// items are still attempted.
func (r *Reconciler) Reconcile(ctx context.Context, items []order.OrderItem) []Outcome {
	outcomes := make([]Outcome, len(items))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, item := range items {
		g.Go(func() error {
			err := r.marker.MarkPrinted(ctx, item.ID)
			if err != nil {
				slog.Error("mark printed failed", "item_id", item.ID, "error", err)
			}
			outcomes[i] = Outcome{ItemID: item.ID, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// Failures counts outcomes with an error.
func Failures(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
