package onboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceSetNext(t *testing.T) {
	t.Parallel()

	type Case struct {
		set    DeviceSet
		from   Device
		expect Device
		ok     bool
	}
	cases := []Case{
		{0, DeviceHex, 0, false},
		{AllDevices, DeviceHex, DeviceStripe, true},
		{AllDevices, DeviceRGB, DeviceHex, true},
		{NewDeviceSet(DeviceHex), DeviceHex, DeviceHex, true},
		{NewDeviceSet(DeviceHex), DeviceStripe, DeviceHex, true},
		{NewDeviceSet(DeviceHex, DeviceRGB), DeviceHex, DeviceRGB, true},
		{NewDeviceSet(DeviceHex, DeviceRGB), DeviceRGB, DeviceHex, true},
		{NewDeviceSet(DeviceStripe), DeviceRGB, DeviceStripe, true},
	}
	for _, c := range cases {
		d, ok := c.set.Next(c.from)
		assert.Equal(t, c.ok, ok, "set=%s from=%s", c.set, c.from)
		if c.ok {
			assert.Equal(t, c.expect, d, "set=%s from=%s", c.set, c.from)
		}
	}
}

func TestDeviceSet(t *testing.T) {
	t.Parallel()

	s := NewDeviceSet(DeviceRGB, DeviceHex)
	assert.True(t, s.Has(DeviceHex))
	assert.False(t, s.Has(DeviceStripe))
	assert.False(t, s.Has(Device(5)))
	assert.Equal(t, []Device{DeviceHex, DeviceRGB}, s.Devices())
	assert.Equal(t, "hex,rgb", s.String())
	assert.True(t, s.Without(DeviceHex).Without(DeviceRGB).Empty())
	assert.Equal(t, AllDevices, s.With(DeviceStripe))
	assert.Equal(t, s, s.With(Device(7)))

	d, ok := ParseDevice(" RGB ")
	assert.True(t, ok)
	assert.Equal(t, DeviceRGB, d)
	_, ok = ParseDevice("lcd")
	assert.False(t, ok)
}
