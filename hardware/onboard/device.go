package onboard

import (
	"strings"
)

type Device uint8

const (
	DeviceHex Device = iota
	DeviceStripe
	DeviceRGB
)

const DeviceCount = 3

var deviceNames = [DeviceCount]string{"hex", "stripe", "rgb"}

func (d Device) String() string {
	if int(d) < DeviceCount {
		return deviceNames[d]
	}
	return "device?"
}

func ParseDevice(s string) (Device, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range deviceNames {
		if s == name {
			return Device(i), true
		}
	}
	return 0, false
}

// DeviceSet is a bitset of devices taking part in multiplexing.
type DeviceSet uint8

const AllDevices DeviceSet = 1<<DeviceCount - 1

func NewDeviceSet(ds ...Device) DeviceSet {
	var s DeviceSet
	for _, d := range ds {
		s = s.With(d)
	}
	return s
}

func (s DeviceSet) Has(d Device) bool { return int(d) < DeviceCount && s&(1<<d) != 0 }
func (s DeviceSet) Empty() bool { return s&AllDevices == 0 }

func (s DeviceSet) With(d Device) DeviceSet {
	if int(d) >= DeviceCount {
		return s
	}
	return s | 1<<d
}

func (s DeviceSet) Without(d Device) DeviceSet {
	if int(d) >= DeviceCount {
		return s
	}
	return s &^ (1 << d)
}

func (s DeviceSet) Devices() []Device {
	ds := make([]Device, 0, DeviceCount)
	for i := 0; i < DeviceCount; i++ {
		if s.Has(Device(i)) {
			ds = append(ds, Device(i))
		}
	}
	return ds
}

func (s DeviceSet) String() string {
	ds := s.Devices()
	if len(ds) == 0 {
		return "none"
	}
	ss := make([]string, len(ds))
	for i, d := range ds {
		ss[i] = d.String()
	}
	return strings.Join(ss, ",")
}

// Next returns first member strictly after `from` in circular order.
// ok=false only for empty set; the scan is bounded by DeviceCount steps.
func (s DeviceSet) Next(from Device) (Device, bool) {
	if s.Empty() {
		return 0, false
	}
	for i := 1; i <= DeviceCount; i++ {
		d := Device((int(from) + i) % DeviceCount)
		if s.Has(d) {
			return d, true
		}
	}
	panic("code error DeviceSet.Next non-empty set without member")
}
