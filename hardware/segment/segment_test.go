package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigitRoundTrip(t *testing.T) {
	t.Parallel()

	for d := 0; d <= 15; d++ {
		p, ok := Digit(d)
		require.True(t, ok, "digit=%d", d)
		back, ok := DecodeDigit(p)
		require.True(t, ok, "digit=%d pattern=%07b", d, p)
		assert.Equal(t, d, back)
	}
	_, ok := Digit(16)
	assert.False(t, ok)
	_, ok = Digit(-1)
	assert.False(t, ok)
}

func TestDigitTable(t *testing.T) {
	t.Parallel()

	p, _ := Digit(8)
	assert.Equal(t, Mask, p)
	p, _ = Digit(1)
	assert.Equal(t, SegB|SegC, p)
	assert.True(t, p.Segment(1))
	assert.False(t, p.Segment(0))
	assert.False(t, p.Segment(7))
}

func TestCharFallback(t *testing.T) {
	t.Parallel()

	zero := Char('0')
	cases := []struct {
		name   string
		input  byte
		expect Pattern
	}{
		{"space", ' ', 0},
		{"digit", '7', hexTable[7]},
		{"upper", 'A', hexTable[0xa]},
		{"lower-to-upper", 'a', hexTable[0xa]},
		{"upper-to-lower", 'B', hexTable[0xb]},
		{"both-cases-missing", 'k', zero},
		{"punct-missing", '#', zero},
		{"control", '\n', zero},
		{"nul", 0, zero},
		{"del", 127, zero},
		{"high", 200, zero},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expect, Char(c.input))
		})
	}
}

func TestCharTotal(t *testing.T) {
	t.Parallel()

	for c := 0; c < 256; c++ {
		p := Char(byte(c))
		if c != ' ' {
			assert.NotZero(t, p, "char=%d", c)
		}
		assert.Equal(t, Pattern(0), p&^Mask)
		if c < 32 || c > 127 {
			assert.Equal(t, Char('0'), p, "char=%d", c)
		}
	}
}

func TestCharCasePairs(t *testing.T) {
	t.Parallel()

	for c := byte('A'); c <= 'Z'; c++ {
		lower, _ := ToggleCase(c)
		if !Supported(c) || !Supported(lower) {
			continue
		}
		assert.NotEqual(t, Char(c), Char(lower), "char=%c", c)
	}
}

func TestToggleCase(t *testing.T) {
	t.Parallel()

	x, ok := ToggleCase('q')
	assert.True(t, ok)
	assert.Equal(t, byte('Q'), x)
	x, ok = ToggleCase('Q')
	assert.True(t, ok)
	assert.Equal(t, byte('q'), x)
	_, ok = ToggleCase('5')
	assert.False(t, ok)
}
