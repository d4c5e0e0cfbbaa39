package onboard

import (
	"fmt"
	"strings"
)

// Legal value ranges per sub-mode.
const (
	HexMin      = -15
	HexMax      = 15
	DecimalMin  = -19
	DecimalMax  = 19
	CharMax     = 127
	StripeLEDs  = 10
	StripeMax   = 1<<StripeLEDs - 1
	ProgressMax = StripeLEDs
)

type HexMode uint8

const (
	ModeHex HexMode = iota
	ModeDecimal
	ModeChar
	ModeScroll
)

var hexModeNames = []string{"hex", "decimal", "char", "scroll"}

func (m HexMode) String() string {
	if int(m) < len(hexModeNames) {
		return hexModeNames[m]
	}
	return fmt.Sprintf("hexmode(%d)", uint8(m))
}

func ParseHexMode(s string) (HexMode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range hexModeNames {
		if s == name {
			return HexMode(i), true
		}
	}
	return 0, false
}

// PanelContent is what the HEX panel shows: sub-mode tag with its value.
// Implementations are HexDigit, Decimal, Char and Scroll,
// constructed only through range checked functions.
type PanelContent interface {
	Mode() HexMode
	// Value is the numeric value carried across sub-mode switches.
	Value() int
	String() string
	panelContent()
}

type HexDigit struct{ n int8 }

func NewHexDigit(n int) (HexDigit, bool) {
	if n < HexMin || n > HexMax {
		return HexDigit{}, false
	}
	return HexDigit{n: int8(n)}, true
}

func (HexDigit) Mode() HexMode { return ModeHex }
func (h HexDigit) Value() int { return int(h.n) }
func (h HexDigit) String() string { return fmt.Sprintf("hex:%d", h.n) }
func (HexDigit) panelContent() {}

type Decimal struct{ n int8 }

func NewDecimal(n int) (Decimal, bool) {
	if n < DecimalMin || n > DecimalMax {
		return Decimal{}, false
	}
	return Decimal{n: int8(n)}, true
}

func (Decimal) Mode() HexMode { return ModeDecimal }
func (d Decimal) Value() int { return int(d.n) }
func (d Decimal) String() string { return fmt.Sprintf("decimal:%d", d.n) }
func (Decimal) panelContent() {}

type Char struct{ c byte }

// NewChar clamps c to 0..127.
func NewChar(c int) Char { return Char{c: byte(clamp(c, 0, CharMax))} }

func (Char) Mode() HexMode { return ModeChar }
func (c Char) Value() int { return int(c.c) }
func (c Char) Byte() byte { return c.c }
func (c Char) String() string { return fmt.Sprintf("char:%q", c.c) }
func (Char) panelContent() {}

// Scroll shows text one character at a time. The cursor is owned by Scheduler.
type Scroll struct {
	text  string
	carry int16
}

// NewScroll clamps every byte to 0..127.
func NewScroll(s string, carry int) Scroll {
	b := []byte(s)
	for i := range b {
		if b[i] > CharMax {
			b[i] = CharMax
		}
	}
	return Scroll{text: string(b), carry: int16(carry)}
}

func (Scroll) Mode() HexMode { return ModeScroll }
func (s Scroll) Value() int { return int(s.carry) }
func (s Scroll) Text() string { return s.text }
func (s Scroll) Len() int { return len(s.text) }
func (s Scroll) String() string { return fmt.Sprintf("scroll:%q", s.text) }
func (Scroll) panelContent() {}

// Panel is HEX panel mode state.
type Panel struct {
	content PanelContent
	// last scroll text, restored when switching back into ModeScroll
	text string
}

func newPanel() Panel { return Panel{content: HexDigit{}} }

func (p *Panel) Content() PanelContent { return p.content }

func (p *Panel) WriteHex(n int) bool {
	h, ok := NewHexDigit(n)
	if ok {
		p.content = h
	}
	return ok
}

func (p *Panel) WriteInt(n int) bool {
	d, ok := NewDecimal(n)
	if ok {
		p.content = d
	}
	return ok
}

func (p *Panel) WriteChar(c byte) { p.content = NewChar(int(c)) }

func (p *Panel) WriteString(s string) {
	sc := NewScroll(s, p.content.Value())
	p.text = sc.text
	p.content = sc
}

// SetMode re-clamps current value into the new sub-mode range.
// Returns false only for unknown mode.
func (p *Panel) SetMode(m HexMode) bool {
	v := p.content.Value()
	switch m {
	case ModeHex:
		p.content = HexDigit{n: int8(clamp(v, HexMin, HexMax))}
	case ModeDecimal:
		p.content = Decimal{n: int8(clamp(v, DecimalMin, DecimalMax))}
	case ModeChar:
		p.content = NewChar(v)
	case ModeScroll:
		if _, ok := p.content.(Scroll); !ok {
			p.content = Scroll{text: p.text, carry: int16(v)}
		}
	default:
		return false
	}
	return true
}

type StripeMode uint8

const (
	ModeBinary StripeMode = iota
	ModeProgress
)

var stripeModeNames = []string{"binary", "progress"}

func (m StripeMode) String() string {
	if int(m) < len(stripeModeNames) {
		return stripeModeNames[m]
	}
	return fmt.Sprintf("stripemode(%d)", uint8(m))
}

func ParseStripeMode(s string) (StripeMode, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range stripeModeNames {
		if s == name {
			return StripeMode(i), true
		}
	}
	return 0, false
}

// StripeContent is Bits or Progress.
type StripeContent interface {
	Mode() StripeMode
	Value() int
	// Lit reports whether LED i is on, i in 0..9.
	Lit(i int) bool
	String() string
	stripeContent()
}

type Bits struct{ v uint16 }

func NewBits(v int) (Bits, bool) {
	if v < 0 || v > StripeMax {
		return Bits{}, false
	}
	return Bits{v: uint16(v)}, true
}

func (Bits) Mode() StripeMode { return ModeBinary }
func (b Bits) Value() int { return int(b.v) }
func (b Bits) Lit(i int) bool { return i >= 0 && i < StripeLEDs && b.v&(1<<uint(i)) != 0 }
func (b Bits) String() string { return fmt.Sprintf("binary:%010b", b.v) }
func (Bits) stripeContent() {}

type Progress struct{ n uint8 }

func NewProgress(n int) (Progress, bool) {
	if n < 0 || n > ProgressMax {
		return Progress{}, false
	}
	return Progress{n: uint8(n)}, true
}

func (Progress) Mode() StripeMode { return ModeProgress }
func (p Progress) Value() int { return int(p.n) }
func (p Progress) Lit(i int) bool { return i >= 0 && i < int(p.n) }
func (p Progress) String() string { return fmt.Sprintf("progress:%d", p.n) }
func (Progress) stripeContent() {}

// Stripe is LED stripe mode state.
type Stripe struct{ content StripeContent }

func newStripe() Stripe { return Stripe{content: Bits{}} }

func (s *Stripe) Content() StripeContent { return s.content }

func (s *Stripe) WriteBinary(v int) bool {
	b, ok := NewBits(v)
	if ok {
		s.content = b
	}
	return ok
}

func (s *Stripe) WriteProgress(n int) bool {
	p, ok := NewProgress(n)
	if ok {
		s.content = p
	}
	return ok
}

// SetLED lights LED i keeping others; switches to binary showing current LEDs.
func (s *Stripe) SetLED(i int) bool { return s.changeLED(i, true) }
func (s *Stripe) ClearLED(i int) bool { return s.changeLED(i, false) }
func (s *Stripe) Clear() { s.content = Bits{} }

func (s *Stripe) SetMode(m StripeMode) bool {
	v := s.content.Value()
	switch m {
	case ModeBinary:
		s.content = Bits{v: uint16(clamp(v, 0, StripeMax))}
	case ModeProgress:
		s.content = Progress{n: uint8(clamp(v, 0, ProgressMax))}
	default:
		return false
	}
	return true
}

func (s *Stripe) changeLED(i int, on bool) bool {
	if i < 0 || i >= StripeLEDs {
		return false
	}
	var v uint16
	for j := 0; j < StripeLEDs; j++ {
		if s.content.Lit(j) {
			v |= 1 << uint(j)
		}
	}
	if on {
		v |= 1 << uint(i)
	} else {
		v &^= 1 << uint(i)
	}
	s.content = Bits{v: v}
	return true
}

// Color is RGB lamp intensity, 0=off.
type Color struct{ R, G, B uint8 }

func (c Color) String() string { return fmt.Sprintf("rgb:%d,%d,%d", c.R, c.G, c.B) }

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
