package order

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderDecode_APIShape(t *testing.T) {
	body := `{
		"id": 42,
		"table": {"table_number": 7},
		"user": {"name": "Aziza"},
		"items": [
			{"id": 1, "quantity": 2, "isPrinted": false, "status": "active",
			 "product": {"id": 10, "name": "Shashlik", "unitType": "piece", "categoryId": 9}},
			{"id": 2, "quantity": "0.500", "isPrinted": true, "status": "active",
			 "product": {"id": 11, "name": "Plov", "unitType": "kg", "categoryId": null}},
			{"id": 3, "quantity": "abc", "isPrinted": false, "status": "canceled",
			 "product": {"id": 12, "name": "Tea", "unitType": "liter"}}
		]
	}`

	var o Order
	if err := json.Unmarshal([]byte(body), &o); err != nil {
		t.Fatalf("decode order: %v", err)
	}

	if o.Table == nil || o.Table.Number != "7" {
		t.Fatalf("table number: got %+v, want 7", o.Table)
	}
	if o.User == nil || o.User.Name != "Aziza" {
		t.Errorf("user: got %+v, want Aziza", o.User)
	}
	if len(o.Items) != 3 {
		t.Fatalf("items: got %d, want 3", len(o.Items))
	}

	want := []string{"2", "0.500", "abc"}
	for i, item := range o.Items {
		if item.Quantity.String() != want[i] {
			t.Errorf("item[%d] quantity: got %q, want %q", i, item.Quantity, want[i])
		}
	}

	if o.Items[0].Product.CategoryID == nil || *o.Items[0].Product.CategoryID != 9 {
		t.Errorf("item[0] category: got %v, want 9", o.Items[0].Product.CategoryID)
	}
	if o.Items[1].Product.CategoryID != nil {
		t.Errorf("item[1] category: got %v, want nil", *o.Items[1].Product.CategoryID)
	}
	if !o.Items[2].Canceled() {
		t.Error("item[2] should be canceled")
	}
}

func TestOrderPending_SkipsPrinted(t *testing.T) {
	o := Order{Items: []OrderItem{
		{ID: 1, IsPrinted: false},
		{ID: 2, IsPrinted: true},
		{ID: 3, IsPrinted: false, Status: "canceled"},
		{ID: 4, IsPrinted: true, Status: "canceled"},
	}}

	pending := o.Pending()
	if len(pending) != 2 {
		t.Fatalf("pending: got %d, want 2", len(pending))
	}
	if pending[0].ID != 1 || pending[1].ID != 3 {
		t.Errorf("pending ids: got %d,%d, want 1,3", pending[0].ID, pending[1].ID)
	}
}

func TestQuantityMarshal(t *testing.T) {
	tests := []struct {
		q    Quantity
		want string
	}{
		{"2", `2`},
		{"2.50", `2.50`},
		{"abc", `"abc"`},
		{".5", `".5"`},
		{"+2", `"+2"`},
		{"-1.5", `-1.5`},
	}
	for _, tt := range tests {
		got, err := json.Marshal(tt.q)
		if err != nil {
			t.Fatalf("marshal %q: %v", tt.q, err)
		}
		if string(got) != tt.want {
			t.Errorf("marshal %q: got %s, want %s", tt.q, got, tt.want)
		}
	}
}

func TestCheckAmount(t *testing.T) {
	total := decimal.NewFromInt(110000)

	c := Check{TotalAmount: total}
	if !c.Amount().Equal(total) {
		t.Errorf("no paid amount: got %s, want %s", c.Amount(), total)
	}

	c.PaidAmount = decimal.NewNullDecimal(decimal.NewFromInt(100000))
	if !c.Amount().Equal(decimal.NewFromInt(100000)) {
		t.Errorf("paid amount: got %s, want 100000", c.Amount())
	}

	c.PaidAmount = decimal.NewNullDecimal(decimal.Zero)
	if !c.Amount().Equal(total) {
		t.Errorf("zero paid amount: got %s, want %s", c.Amount(), total)
	}
}
