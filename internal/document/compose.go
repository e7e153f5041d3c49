package document

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/kiwari-pos/printer/internal/enum"
	"github.com/kiwari-pos/printer/internal/order"
	"github.com/kiwari-pos/printer/internal/receipt"
	"github.com/kiwari-pos/printer/internal/units"
	"github.com/shopspring/decimal"
)

const (
	kitchenTimeLayout = "02.01.2006 15:04:05"
	billTimeLayout    = "02.01.2006 15:04"
)

var (
	kitchenPage = Page{Width: 240, Height: 600, Margins: Margins{Top: 10, Left: 5, Right: 5, Bottom: 10}}
	billPage    = Page{Width: 270, Height: 1000, Margins: Margins{Top: 20, Left: 15, Right: 15, Bottom: 20}}
)

// Labels is the fixed wording printed on documents.
type Labels struct {
	KitchenTitle    string
	Table           string
	Staff           string
	Time            string
	NewSection      string
	CanceledSection string

	Brand        string
	Tagline      string
	Receipt      string
	CustomerCopy string
	ServiceFee   string
	Total        string
	Currency     string
	ThankYou     string
	Farewell     string
	Footer       string

	Unknown string
}

// DefaultLabels returns the stock wording.
func DefaultLabels() Labels {
	return Labels{
		KitchenTitle:    "KITCHEN TICKET",
		Table:           "Table",
		Staff:           "Waiter",
		Time:            "Time",
		NewSection:      "New:",
		CanceledSection: "Canceled:",
		Brand:           "Super Waiter",
		Tagline:         "The tastiest plov and shashlik in town!",
		Receipt:         "RECEIPT",
		CustomerCopy:    "customer copy",
		ServiceFee:      "Service fee",
		Total:           "TOTAL",
		Currency:        "sum",
		ThankYou:        "THANK YOU!",
		Farewell:        "We look forward to seeing you again!",
		Footer:          "Every dish is a work of art",
		Unknown:         receipt.UnknownName,
	}
}

// Composer builds documents. The zero value is not usable; call NewComposer.
type Composer struct {
	labels Labels
}

// NewComposer returns a Composer. Empty labels fall back to DefaultLabels.
func NewComposer(labels Labels) *Composer {
	def := DefaultLabels()
	fill := func(dst *string, fallback string) {
		if *dst == "" {
			*dst = fallback
		}
	}
	fill(&labels.KitchenTitle, def.KitchenTitle)
	fill(&labels.Table, def.Table)
	fill(&labels.Staff, def.Staff)
	fill(&labels.Time, def.Time)
	fill(&labels.NewSection, def.NewSection)
	fill(&labels.CanceledSection, def.CanceledSection)
	fill(&labels.Brand, def.Brand)
	fill(&labels.Tagline, def.Tagline)
	fill(&labels.Receipt, def.Receipt)
	fill(&labels.CustomerCopy, def.CustomerCopy)
	fill(&labels.ServiceFee, def.ServiceFee)
	fill(&labels.Total, def.Total)
	fill(&labels.Currency, def.Currency)
	fill(&labels.ThankYou, def.ThankYou)
	fill(&labels.Farewell, def.Farewell)
	fill(&labels.Footer, def.Footer)
	fill(&labels.Unknown, def.Unknown)
	return &Composer{labels: labels}
}

// KitchenTicket lays out one station ticket. now is the print time shown on
// the ticket. Callers never pass two empty buckets.
func (c *Composer) KitchenTicket(o order.Order, newItems, canceled []order.OrderItem, now time.Time) Document {
	l := c.labels
	b := &builder{}

	b.text(Text{Content: l.KitchenTitle, Size: 16, Align: AlignCenter})
	b.gap(1)

	table, staff := l.Unknown, l.Unknown
	if o.Table != nil && o.Table.Number != "" {
		table = o.Table.Number
	}
	if o.User != nil && o.User.Name != "" {
		staff = o.User.Name
	}
	b.text(Text{Content: fmt.Sprintf("%s: %s", l.Table, table), Size: 12})
	b.text(Text{Content: fmt.Sprintf("%s: %s", l.Staff, staff), Size: 12})
	b.text(Text{Content: fmt.Sprintf("%s: %s", l.Time, now.Format(kitchenTimeLayout)), Size: 12})
	b.gap(1)
	b.add(Rule{Width: 1, Inset: 5})

	if len(newItems) > 0 {
		b.gap(1)
		b.text(Text{Content: l.NewSection, Size: 14, Underline: true})
		for _, item := range newItems {
			b.text(Text{Content: c.KitchenLine(item), Size: 14})
		}
	}

	if len(canceled) > 0 {
		b.gap(1)
		b.add(Color{RGB: Red})
		b.text(Text{Content: l.CanceledSection, Size: 14, Underline: true})
		for _, item := range canceled {
			b.text(Text{Content: c.KitchenLine(item), Size: 14})
		}
		b.add(Color{RGB: Black})
	}

	return Document{Kind: enum.DocumentKitchen, Page: kitchenPage, Body: b.body}
}

// KitchenLine formats an item as "<qty> <unit> x <name>".
func (c *Composer) KitchenLine(item order.OrderItem) string {
	name, unit := c.labels.Unknown, ""
	if item.Product != nil {
		unit = item.Product.UnitType
		if item.Product.Name != "" {
			name = item.Product.Name
		}
	}
	return fmt.Sprintf("%s %s x %s", units.FormatQuantity(item.Quantity.String()), units.Label(unit), name)
}

// CustomerBill lays out the customer receipt for a settled check. lines are
// the check lines after receipt.Merge.
func (c *Composer) CustomerBill(check order.Check, lines []receipt.MergedLine) Document {
	l := c.labels
	b := &builder{}

	b.text(Text{Content: l.Brand, Size: 20, Bold: true, Align: AlignCenter})
	b.text(Text{Content: l.Tagline, Size: 11, Align: AlignCenter})
	b.gap(0.5)
	b.text(Text{Content: l.Receipt, Size: 18, Bold: true, Align: AlignCenter})
	b.text(Text{Content: l.CustomerCopy, Size: 10, Align: AlignCenter})
	b.gap(1)
	b.add(Rule{Width: 2})
	b.gap(1)

	table, payer, at := l.Unknown, l.Unknown, l.Unknown
	if check.Table != "" {
		table = check.Table
	}
	switch {
	case check.PaidByName != "":
		payer = check.PaidByName
	case check.User != nil && check.User.Name != "":
		payer = check.User.Name
	}
	if !check.OrderTime.IsZero() {
		at = check.OrderTime.Format(billTimeLayout)
	}
	b.text(Text{Content: fmt.Sprintf("%s: %s", l.Table, table), Size: 11, Align: AlignCenter})
	b.text(Text{Content: fmt.Sprintf("%s: %s", l.Staff, payer), Size: 11, Align: AlignCenter})
	b.text(Text{Content: fmt.Sprintf("%s: %s", l.Time, at), Size: 11, Align: AlignCenter})
	b.gap(1.2)
	b.add(Rule{Width: 1})
	b.gap(1.5)

	for _, line := range lines {
		b.text(Text{Content: line.Name, Size: 13, Bold: true, Align: AlignCenter})
		b.text(Text{Content: c.BillLine(line), Size: 12.5, Align: AlignCenter})
		b.gap(0.5)
		b.add(Rule{Width: 0.8, Dashed: true, Inset: 15})
		b.gap(1)
	}

	b.gap(1)
	b.add(Rule{Width: 2})
	b.gap(0.8)

	if check.ServiceFee.Valid && check.ServiceFee.Decimal.IsPositive() {
		b.gap(0.5)
		b.text(Text{Content: fmt.Sprintf("%s: %s %s", l.ServiceFee, money(check.ServiceFee.Decimal), l.Currency), Size: 12, Align: AlignCenter})
	}
	b.text(Text{Content: fmt.Sprintf("%s: %s %s", l.Total, money(check.Amount()), l.Currency), Size: 18, Bold: true, Align: AlignCenter})
	b.gap(2)

	b.text(Text{Content: l.ThankYou, Size: 16, Bold: true, Align: AlignCenter})
	b.text(Text{Content: l.Farewell, Size: 12, Align: AlignCenter})
	b.text(Text{Content: l.Footer, Size: 10, Align: AlignCenter})

	return Document{Kind: enum.DocumentCustomer, Page: billPage, Body: b.body}
}

// BillLine formats a merged line as "price x qty unit = total currency".
func (c *Composer) BillLine(line receipt.MergedLine) string {
	return fmt.Sprintf("%s x %s %s = %s %s",
		money(line.Price), units.FormatDecimal(line.Quantity), units.Label(line.Unit), money(line.Total), c.labels.Currency)
}

// money groups thousands for display.
func money(d decimal.Decimal) string {
	return humanize.Commaf(d.Round(2).InexactFloat64())
}

type builder struct {
	body []Instruction
}

func (b *builder) add(in Instruction) { b.body = append(b.body, in) }
func (b *builder) text(t Text)        { b.add(t) }
func (b *builder) gap(lines float64)  { b.add(Gap{Lines: lines}) }
