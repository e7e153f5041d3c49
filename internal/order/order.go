// Package order holds the read-only snapshots this service receives from the
// order-management API: kitchen orders and settled checks.
package order

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/kiwari-pos/printer/internal/enum"
	"github.com/shopspring/decimal"
)

// Order is a kitchen order as returned by the order API.
type Order struct {
	ID    int64       `json:"id"`
	Table *Table      `json:"table"`
	User  *Staff      `json:"user"`
	Items []OrderItem `json:"items"`
}

// Table is the dining table an order belongs to.
type Table struct {
	Number string `json:"table_number"`
}

// UnmarshalJSON accepts the table number as a string or a number.
func (t *Table) UnmarshalJSON(data []byte) error {
	var raw struct {
		Number json.RawMessage `json:"table_number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Number = rawText(raw.Number)
	return nil
}

// Staff is the waiter or cashier attached to an order or check.
type Staff struct {
	Name string `json:"name"`
}

// OrderItem is one line of a kitchen order.
type OrderItem struct {
	ID        int64    `json:"id"`
	Quantity  Quantity `json:"quantity"`
	Product   *Product `json:"product"`
	IsPrinted bool     `json:"isPrinted"`
	Status    string   `json:"status"`
}

// Canceled reports whether the item belongs in the canceled section of a ticket.
func (i OrderItem) Canceled() bool {
	return i.Status == enum.OrderItemStatusCanceled
}

// Product is the catalog entry an order item refers to.
type Product struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	UnitType   string `json:"unitType"`
	CategoryID *int64 `json:"categoryId"`
}

// Pending returns the items that have not been printed yet, in order.
// Printed items never reach routing.
func (o Order) Pending() []OrderItem {
	var pending []OrderItem
	for _, item := range o.Items {
		if !item.IsPrinted {
			pending = append(pending, item)
		}
	}
	return pending
}

// Quantity keeps the quantity exactly as the API sent it. The API sends
// numbers for most products and decimal strings for weighed ones.
type Quantity string

// UnmarshalJSON accepts a JSON number, a JSON string or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = Quantity(rawText(data))
	return nil
}

// MarshalJSON writes quantities that are valid JSON numbers as numbers and
// anything else as a string.
func (q Quantity) MarshalJSON() ([]byte, error) {
	if _, err := decimal.NewFromString(string(q)); err == nil && json.Valid([]byte(q)) {
		return []byte(q), nil
	}
	return json.Marshal(string(q))
}

// String returns the raw quantity text.
func (q Quantity) String() string { return string(q) }

// Check is a settled bill used to print the customer receipt.
type Check struct {
	OrderID     int64               `json:"orderId"`
	Table       string              `json:"table"`
	PaidByName  string              `json:"paidByName"`
	User        *Staff              `json:"user"`
	OrderTime   time.Time           `json:"orderTime"`
	Items       []CheckLine         `json:"items"`
	ServiceFee  decimal.NullDecimal `json:"serviceFee"`
	PaidAmount  decimal.NullDecimal `json:"paidAmount"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
}

// CheckLine is one billed line. Any numeric field may be missing.
type CheckLine struct {
	ProductName string              `json:"productName"`
	UnitType    string              `json:"unitType"`
	Price       decimal.NullDecimal `json:"price"`
	Quantity    decimal.NullDecimal `json:"quantity"`
	Total       decimal.NullDecimal `json:"total"`
}

// Amount is what the customer pays: the paid amount when set, else the total.
func (c Check) Amount() decimal.Decimal {
	if c.PaidAmount.Valid && !c.PaidAmount.Decimal.IsZero() {
		return c.PaidAmount.Decimal
	}
	return c.TotalAmount
}

func rawText(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			return s
		}
	}
	return string(data)
}
