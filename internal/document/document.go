// Package document builds renderer-independent page layouts for kitchen
// tickets and customer receipts.
//
// A Document is a page declaration followed by an ordered list of layout
// instructions. Composition never performs I/O and never fails: missing
// display fields are replaced with a visible placeholder.
package document

// Align is horizontal text alignment.
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// RGB is a text and stroke color.
type RGB struct {
	R, G, B uint8
}

var (
	Black = RGB{}
	Red   = RGB{R: 255}
)

// Margins are page margins in points.
type Margins struct {
	Top, Left, Right, Bottom float64
}

// Page declares the page size (points) and margins.
type Page struct {
	Width   float64
	Height  float64
	Margins Margins
}

// Document is a composed, immutable page description.
type Document struct {
	Kind string
	Page Page
	Body []Instruction
}

// Instruction is one layout step. The set of instructions is closed:
// Text, Rule, Color and Gap.
type Instruction interface {
	instruction()
}

// Text is a block of text on its own line(s).
type Text struct {
	Content   string
	Size      float64
	Bold      bool
	Underline bool
	Align     Align
}

// Rule is a horizontal line across the content area, shortened by Inset on
// both sides.
type Rule struct {
	Width  float64
	Dashed bool
	Inset  float64
}

// Color switches the color used by following instructions.
type Color struct {
	RGB RGB
}

// Gap is vertical space measured in lines of the current font size.
type Gap struct {
	Lines float64
}

func (Text) instruction()  {}
func (Rule) instruction()  {}
func (Color) instruction() {}
func (Gap) instruction()   {}

// Texts returns the content of every Text instruction, in order.
func (d Document) Texts() []string {
	var out []string
	for _, in := range d.Body {
		if t, ok := in.(Text); ok {
			out = append(out, t.Content)
		}
	}
	return out
}
