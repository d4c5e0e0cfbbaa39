package onboard

import (
	"github.com/temoto/onboard/hardware/pin"
	"github.com/temoto/onboard/hardware/segment"
)

// renderer turns logical values into active-low pin levels.
// Out of range values are no-ops, the device keeps showing its last state.
type renderer struct {
	pins pin.Pins
	m    *PinMap
}

func level(on bool) pin.Level {
	if on {
		return pin.On
	}
	return pin.Off
}

func (r renderer) segments(p segment.Pattern) {
	for i, id := range r.m.Segments {
		r.pins.WriteDigital(id, level(p.Segment(i)))
	}
}

func (r renderer) sign(negative bool) { r.pins.WriteDigital(r.m.Sign, level(negative)) }

func (r renderer) tens(on bool) {
	for _, id := range r.m.Tens {
		r.pins.WriteDigital(id, level(on))
	}
}

func (r renderer) drawHex(n int) bool {
	if n < HexMin || n > HexMax {
		return false
	}
	r.sign(n < 0)
	if n < 0 {
		n = -n
	}
	r.tens(false)
	p, _ := segment.Digit(n)
	r.segments(p)
	return true
}

func (r renderer) drawDecimal(n int) bool {
	if n < DecimalMin || n > DecimalMax {
		return false
	}
	r.sign(n < 0)
	if n < 0 {
		n = -n
	}
	r.tens(n >= 10)
	p, _ := segment.Digit(n % 10)
	r.segments(p)
	return true
}

func (r renderer) drawChar(c int) bool {
	if c < 0 || c > CharMax {
		return false
	}
	r.sign(false)
	r.tens(false)
	r.segments(segment.Char(byte(c)))
	return true
}

func (r renderer) drawPanel(c PanelContent, cursor int) {
	switch x := c.(type) {
	case HexDigit:
		r.drawHex(x.Value())
	case Decimal:
		r.drawDecimal(x.Value())
	case Char:
		r.drawChar(x.Value())
	case Scroll:
		ch := byte(' ')
		if cursor >= 0 && cursor < x.Len() {
			ch = x.text[cursor]
		}
		r.drawChar(int(ch))
	}
}

func (r renderer) drawBinary(v int) bool {
	if v < 0 || v > StripeMax {
		return false
	}
	for i, id := range r.m.Stripe {
		r.pins.WriteDigital(id, level(v&(1<<uint(i)) != 0))
	}
	return true
}

func (r renderer) drawProgress(n int) bool {
	if n < 0 || n > ProgressMax {
		return false
	}
	for i, id := range r.m.Stripe {
		r.pins.WriteDigital(id, level(i < n))
	}
	return true
}

func (r renderer) drawStripe(c StripeContent) {
	switch x := c.(type) {
	case Bits:
		r.drawBinary(x.Value())
	case Progress:
		r.drawProgress(x.Value())
	}
}

// drawLamp uses inverted duty so that intensity 0 is the idle level.
func (r renderer) drawLamp(c Color) {
	r.pins.WriteAnalog(r.m.Lamp[0], 255-c.R)
	r.pins.WriteAnalog(r.m.Lamp[1], 255-c.G)
	r.pins.WriteAnalog(r.m.Lamp[2], 255-c.B)
}

func (r renderer) idleLamp() { r.drawLamp(Color{}) }
