// Package segment encodes digits and ASCII characters for a 7-segment display.
//
// Pattern bit order is a..g with a as the most significant of the seven bits:
//
//	 aaa
//	f   b
//	 ggg
//	e   c
//	 ddd
package segment

type Pattern uint8

const (
	SegA Pattern = 1 << (6 - iota)
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
)

const Mask Pattern = 0x7f

// Segment returns level of segment i, 0=a .. 6=g.
func (p Pattern) Segment(i int) bool {
	if i < 0 || i > 6 {
		return false
	}
	return p&(SegA>>uint(i)) != 0
}

var hexTable = [16]Pattern{
	0x7e, // 0
	0x30, // 1
	0x6d, // 2
	0x79, // 3
	0x33, // 4
	0x5b, // 5
	0x5f, // 6
	0x70, // 7
	0x7f, // 8
	0x7b, // 9
	0x77, // A
	0x1f, // b
	0x4e, // C
	0x3d, // d
	0x4f, // E
	0x47, // F
}

// zero value means "no glyph", fallback applies
var charTable [128]Pattern

func init() {
	for i := 0; i < 10; i++ {
		charTable['0'+i] = hexTable[i]
	}
	glyphs := map[byte]Pattern{
		'"':  SegB | SegF,
		'\'': SegF,
		'-':  SegG,
		'=':  SegD | SegG,
		'?':  SegA | SegB | SegE | SegG,
		'[':  SegA | SegD | SegE | SegF,
		']':  SegA | SegB | SegC | SegD,
		'_':  SegD,
		'A':  hexTable[0xa],
		'C':  hexTable[0xc],
		'E':  hexTable[0xe],
		'F':  hexTable[0xf],
		'G':  SegA | SegC | SegD | SegE | SegF,
		'H':  SegB | SegC | SegE | SegF | SegG,
		'I':  SegE | SegF,
		'J':  SegB | SegC | SegD | SegE,
		'L':  SegD | SegE | SegF,
		'O':  hexTable[0],
		'P':  SegA | SegB | SegE | SegF | SegG,
		'S':  hexTable[5],
		'U':  SegB | SegC | SegD | SegE | SegF,
		'b':  hexTable[0xb],
		'c':  SegD | SegE | SegG,
		'd':  hexTable[0xd],
		'h':  SegC | SegE | SegF | SegG,
		'i':  SegC,
		'n':  SegC | SegE | SegG,
		'o':  SegC | SegD | SegE | SegG,
		'q':  SegA | SegB | SegC | SegF | SegG,
		'r':  SegE | SegG,
		't':  SegD | SegE | SegF | SegG,
		'u':  SegC | SegD | SegE,
		'y':  SegB | SegC | SegD | SegF | SegG,
	}
	for c, p := range glyphs {
		charTable[c] = p
	}
}

// Digit returns hex alphabet pattern for d in 0..15.
func Digit(d int) (Pattern, bool) {
	if d < 0 || d > 15 {
		return 0, false
	}
	return hexTable[d], true
}

// Char never fails. Unsupported characters try opposite letter case,
// then render as digit 0. Codes above 127 are treated as 127.
func Char(c byte) Pattern {
	if c > 127 {
		c = 127
	}
	if p := charTable[c]; p != 0 || c == ' ' {
		return p
	}
	if t, ok := ToggleCase(c); ok {
		if p := charTable[t]; p != 0 {
			return p
		}
	}
	return hexTable[0]
}

// Supported reports whether c has its own glyph (space included).
func Supported(c byte) bool {
	return c == ' ' || (c <= 127 && charTable[c] != 0)
}

func ToggleCase(c byte) (byte, bool) {
	switch {
	case c >= 'a' && c <= 'z':
		return c - 'a' + 'A', true
	case c >= 'A' && c <= 'Z':
		return c - 'A' + 'a', true
	}
	return c, false
}

// DecodeDigit is inverse of Digit.
func DecodeDigit(p Pattern) (int, bool) {
	p &= Mask
	for d, x := range hexTable {
		if x == p {
			return d, true
		}
	}
	return 0, false
}
