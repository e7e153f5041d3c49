// Package render draws composed documents as PDF pages for the print spooler.
package render

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/kiwari-pos/printer/internal/document"
)

const (
	customFamily   = "ticket"
	fallbackFamily = "Helvetica"

	// lineFactor converts a font size to a line height.
	lineFactor = 1.2
)

// PDF renders documents with a TrueType font, falling back to the built-in
// Helvetica when the font file is not available.
type PDF struct {
	fontPath string
}

// NewPDF creates a renderer. fontPath may be empty.
func NewPDF(fontPath string) *PDF {
	return &PDF{fontPath: fontPath}
}

// Render writes doc to w as a single-page-size PDF. Content that overflows a
// page continues on a new page of the same size.
func (p *PDF) Render(doc document.Document, w io.Writer) error {
	page := doc.Page
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: page.Width, Ht: page.Height},
	})
	pdf.SetMargins(page.Margins.Left, page.Margins.Top, page.Margins.Right)
	pdf.SetAutoPageBreak(true, page.Margins.Bottom)

	family, translate := p.fonts(pdf)
	pdf.AddPage()

	size := 12.0
	for _, in := range doc.Body {
		switch in := in.(type) {
		case document.Text:
			size = in.Size
			pdf.SetFont(family, style(in), in.Size)
			pdf.MultiCell(0, in.Size*lineFactor, translate(in.Content), "", align(in.Align), false)
		case document.Rule:
			drawRule(pdf, in, page)
		case document.Color:
			pdf.SetTextColor(int(in.RGB.R), int(in.RGB.G), int(in.RGB.B))
			pdf.SetDrawColor(int(in.RGB.R), int(in.RGB.G), int(in.RGB.B))
		case document.Gap:
			pdf.Ln(in.Lines * size * lineFactor)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render %s: %w", doc.Kind, err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write %s pdf: %w", doc.Kind, err)
	}
	return nil
}

// RenderFile renders doc into a new file at path.
func (p *PDF) RenderFile(doc document.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := p.Render(doc, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fonts registers the custom font when present and returns the family to use
// together with the text translator that family needs.
func (p *PDF) fonts(pdf *fpdf.Fpdf) (string, func(string) string) {
	if p.fontPath != "" {
		if _, err := os.Stat(p.fontPath); err == nil {
			// The same face serves as bold; ticket printers have one weight anyway.
			pdf.AddUTF8Font(customFamily, "", p.fontPath)
			pdf.AddUTF8Font(customFamily, "B", p.fontPath)
			return customFamily, func(s string) string { return s }
		}
		slog.Warn("font not found, using fallback", "font_path", p.fontPath, "fallback", fallbackFamily)
	}
	return fallbackFamily, pdf.UnicodeTranslatorFromDescriptor("")
}

func drawRule(pdf *fpdf.Fpdf, r document.Rule, page document.Page) {
	x1 := page.Margins.Left + r.Inset
	x2 := page.Width - page.Margins.Right - r.Inset
	y := pdf.GetY()

	pdf.SetLineWidth(r.Width)
	if r.Dashed {
		pdf.SetDashPattern([]float64{5, 3}, 0)
	}
	pdf.Line(x1, y, x2, y)
	if r.Dashed {
		pdf.SetDashPattern([]float64{}, 0)
	}
}

func style(t document.Text) string {
	s := ""
	if t.Bold {
		s += "B"
	}
	if t.Underline {
		s += "U"
	}
	return s
}

func align(a document.Align) string {
	switch a {
	case document.AlignCenter:
		return "C"
	case document.AlignRight:
		return "R"
	default:
		return "L"
	}
}
