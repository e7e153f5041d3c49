// Command preview renders a sample kitchen ticket and customer bill to PDF
// files so the station layout can be checked without a printer.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kiwari-pos/printer/internal/config"
	"github.com/kiwari-pos/printer/internal/document"
	"github.com/kiwari-pos/printer/internal/enum"
	"github.com/kiwari-pos/printer/internal/logging"
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/receipt"
	"github.com/kiwari-pos/printer/internal/render"
	"github.com/kiwari-pos/printer/internal/routing"
	"github.com/shopspring/decimal"
)

func main() {
	out := flag.String("out", ".", "Output directory")
	flag.Parse()

	logging.Setup()
	cfg := config.Load()

	labels := document.DefaultLabels()
	labels.Brand = cfg.BrandName
	labels.Tagline = cfg.BrandTagline
	composer := document.NewComposer(labels)
	renderer := render.NewPDF(cfg.FontPath)
	now := time.Now()

	o := sampleOrder()
	for _, g := range routing.NewTable(cfg.CategoryPrinters, cfg.DefaultPrinter).Route(o.Pending()) {
		path := filepath.Join(*out, "kitchen-"+g.Printer+".pdf")
		if err := renderer.RenderFile(composer.KitchenTicket(o, g.New, g.Canceled, now), path); err != nil {
			slog.Error("render kitchen ticket", "printer", g.Printer, "error", err)
			os.Exit(1)
		}
		slog.Info("wrote kitchen ticket", "printer", g.Printer, "path", path, "new", len(g.New), "canceled", len(g.Canceled))
	}

	c := sampleCheck(now)
	path := filepath.Join(*out, "customer-check.pdf")
	if err := renderer.RenderFile(composer.CustomerBill(c, receipt.Merge(c.Items)), path); err != nil {
		slog.Error("render customer bill", "error", err)
		os.Exit(1)
	}
	slog.Info("wrote customer bill", "path", path)
}

func category(id int64) *int64 { return &id }

func sampleOrder() order.Order {
	product := func(name, unit string, cat *int64) *order.Product {
		return &order.Product{Name: name, UnitType: unit, CategoryID: cat}
	}
	return order.Order{
		ID:    1001,
		Table: &order.Table{Number: "7"},
		User:  &order.Staff{Name: "Preview"},
		Items: []order.OrderItem{
			{ID: 1, Quantity: "4", Status: enum.OrderItemStatusActive, Product: product("Shashlik", enum.UnitPiece, category(7))},
			{ID: 2, Quantity: "0.5", Status: enum.OrderItemStatusActive, Product: product("Plov", enum.UnitKg, nil)},
			{ID: 3, Quantity: "1", Status: enum.OrderItemStatusCanceled, Product: product("Lemonade", enum.UnitLiter, category(6))},
			{ID: 4, Quantity: "2", Status: enum.OrderItemStatusActive, Product: product("Green tea", enum.UnitPiece, category(6))},
			{ID: 5, Quantity: "1", Status: enum.OrderItemStatusActive, Product: product("Achichuk", enum.UnitPiece, category(10))},
		},
	}
}

func sampleCheck(now time.Time) order.Check {
	line := func(name, unit string, price, qty int64) order.CheckLine {
		return order.CheckLine{
			ProductName: name,
			UnitType:    unit,
			Price:       decimal.NewNullDecimal(decimal.NewFromInt(price)),
			Quantity:    decimal.NewNullDecimal(decimal.NewFromInt(qty)),
			Total:       decimal.NewNullDecimal(decimal.NewFromInt(price * qty)),
		}
	}
	return order.Check{
		OrderID:    1001,
		Table:      "7",
		PaidByName: "Preview",
		OrderTime:  now,
		Items: []order.CheckLine{
			line("Shashlik", enum.UnitPiece, 25000, 2),
			line("Green tea", enum.UnitPiece, 8000, 1),
			line("Shashlik", enum.UnitPiece, 25000, 2),
		},
		ServiceFee:  decimal.NewNullDecimal(decimal.NewFromInt(11600)),
		TotalAmount: decimal.NewFromInt(127600),
	}
}
