package render

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/kiwari-pos/printer/internal/document"
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/receipt"
	"github.com/shopspring/decimal"
)

var pageCount = regexp.MustCompile(`/Count (\d+)`)

func kitchenDoc() document.Document {
	c := document.NewComposer(document.Labels{})
	return c.KitchenTicket(
		order.Order{Table: &order.Table{Number: "3"}, User: &order.Staff{Name: "Nodira"}},
		[]order.OrderItem{{ID: 1, Quantity: "2", Product: &order.Product{Name: "Shashlik", UnitType: "piece"}}},
		[]order.OrderItem{{ID: 2, Quantity: "1", Product: &order.Product{Name: "Lavash", UnitType: "piece"}}},
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	)
}

func TestRender_FallbackFont(t *testing.T) {
	var buf bytes.Buffer
	if err := NewPDF("").Render(kitchenDoc(), &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("output is not a PDF: %q", buf.Bytes()[:min(16, buf.Len())])
	}
}

func TestRender_MissingFontFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "DejaVuSans.ttf")

	var buf bytes.Buffer
	if err := NewPDF(missing).Render(kitchenDoc(), &buf); err != nil {
		t.Fatalf("render with missing font should fall back, got: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}

func TestRender_CustomerBillOverflowsToNewPage(t *testing.T) {
	var lines []receipt.MergedLine
	for i := 0; i < 60; i++ {
		lines = append(lines, receipt.MergedLine{
			Name: "Choy", Unit: "piece",
			Price: decimal.NewFromInt(5000), Quantity: decimal.NewFromInt(1), Total: decimal.NewFromInt(5000),
		})
	}
	doc := document.NewComposer(document.Labels{}).CustomerBill(order.Check{TotalAmount: decimal.NewFromInt(300000)}, lines)

	var buf bytes.Buffer
	if err := NewPDF("").Render(doc, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	m := pageCount.FindSubmatch(buf.Bytes())
	if m == nil {
		t.Fatal("page count not found in output")
	}
	if n, _ := strconv.Atoi(string(m[1])); n < 2 {
		t.Errorf("pages: got %d, want the long receipt to span more than one", n)
	}
}

func TestRenderFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticket.pdf")
	if err := NewPDF("").RenderFile(kitchenDoc(), path); err != nil {
		t.Fatalf("render file: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("%PDF-")) {
		t.Error("file is not a PDF")
	}
}

func TestStyleAndAlign(t *testing.T) {
	if got := style(document.Text{Bold: true, Underline: true}); got != "BU" {
		t.Errorf("style: got %q, want BU", got)
	}
	if got := align(document.AlignCenter); got != "C" {
		t.Errorf("align center: got %q", got)
	}
	if got := align(document.AlignLeft); got != "L" {
		t.Errorf("align left: got %q", got)
	}
}
