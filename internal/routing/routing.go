// Package routing decides which station printer each order item goes to and
// groups a batch of items into one ticket per printer.
package routing

import (
	"maps"

	"github.com/kiwari-pos/printer/internal/order"
)

// Table maps product categories to printer names. Categories that are not
// mapped, or mapped to an empty name, go to the fallback printer.
// A Table is read-only after construction and safe for concurrent use.
type Table struct {
	categories map[int64]string
	fallback   string
}

// NewTable creates a routing table. The map is copied.
func NewTable(categories map[int64]string, fallback string) *Table {
	return &Table{categories: maps.Clone(categories), fallback: fallback}
}

// Destination returns the printer for an item. It never fails.
func (t *Table) Destination(item order.OrderItem) string {
	if item.Product == nil || item.Product.CategoryID == nil {
		return t.fallback
	}
	if printer := t.categories[*item.Product.CategoryID]; printer != "" {
		return printer
	}
	return t.fallback
}

// Group is the set of items bound for one printer in a single routing pass.
type Group struct {
	Printer  string
	New      []order.OrderItem
	Canceled []order.OrderItem
}

// Len returns the number of items in both buckets.
func (g *Group) Len() int { return len(g.New) + len(g.Canceled) }

// Groups is the result of Route, ordered by first reference to each printer.
type Groups []*Group

// Get returns the group for a printer, or nil.
func (gs Groups) Get(printer string) *Group {
	for _, g := range gs {
		if g.Printer == printer {
			return g
		}
	}
	return nil
}

// Printers returns the printer names in group order.
func (gs Groups) Printers() []string {
	names := make([]string, 0, len(gs))
	for _, g := range gs {
		names = append(names, g.Printer)
	}
	return names
}

// Items returns every routed item: group by group, new before canceled.
func (gs Groups) Items() []order.OrderItem {
	var items []order.OrderItem
	for _, g := range gs {
		items = append(items, g.New...)
		items = append(items, g.Canceled...)
	}
	return items
}

// Route partitions items by destination printer. Each item lands in exactly
// one bucket of exactly one group; input order is kept inside each bucket.
// Callers pass only unprinted items (see order.Order.Pending).
func (t *Table) Route(items []order.OrderItem) Groups {
	var groups Groups
	index := make(map[string]*Group)

	for _, item := range items {
		printer := t.Destination(item)
		g, ok := index[printer]
		if !ok {
			g = &Group{Printer: printer}
			index[printer] = g
			groups = append(groups, g)
		}
		if item.Canceled() {
			g.Canceled = append(g.Canceled, item)
		} else {
			g.New = append(g.New, item)
		}
	}

	return groups
}
