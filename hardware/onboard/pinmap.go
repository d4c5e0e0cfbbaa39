package onboard

import (
	"github.com/juju/errors"
	"github.com/temoto/onboard/hardware/pin"
)

// PinMap assigns board roles to pins. Segment, stripe and lamp lines are shared
// between devices, only one select line may be active at a time.
type PinMap struct {
	Segments [7]pin.ID // a..g
	Sign     pin.ID
	Tens     [2]pin.ID
	Stripe   [StripeLEDs]pin.ID
	Select   [DeviceCount]pin.ID // indexed by Device
	Lamp     [3]pin.ID           // r, g, b duty outputs
	Pot      pin.ID
	Switch   pin.ID
}

// DefaultPinMap is the HTL Uno board wiring.
func DefaultPinMap() PinMap {
	return PinMap{
		Segments: [7]pin.ID{0, 1, 2, 3, 4, 5, 6},
		Sign:     8,
		Tens:     [2]pin.ID{7, 9},
		Stripe:   [StripeLEDs]pin.ID{0, 1, 2, 3, 4, 5, 6, 7, 8, 9},
		Select:   [DeviceCount]pin.ID{10, 11, 12},
		Lamp:     [3]pin.ID{5, 6, 9},
		Pot:      14,
		Switch:   15,
	}
}

func (m *PinMap) Outputs() []pin.ID {
	seen := make(map[pin.ID]struct{}, 24)
	ids := make([]pin.ID, 0, 24)
	add := func(xs ...pin.ID) {
		for _, x := range xs {
			if _, ok := seen[x]; !ok {
				seen[x] = struct{}{}
				ids = append(ids, x)
			}
		}
	}
	add(m.Segments[:]...)
	add(m.Sign)
	add(m.Tens[:]...)
	add(m.Stripe[:]...)
	add(m.Select[:]...)
	add(m.Lamp[:]...)
	return ids
}

func (m *PinMap) Inputs() []pin.ID { return []pin.ID{m.Pot, m.Switch} }

// Validate rejects maps where select or input pins collide with any other role.
func (m *PinMap) Validate() error {
	dedicated := make(map[pin.ID]string, 5)
	for i, id := range m.Select {
		dedicated[id] = "select." + Device(i).String()
	}
	for _, x := range []struct {
		name string
		id   pin.ID
	}{{"pot", m.Pot}, {"switch", m.Switch}} {
		if prev, ok := dedicated[x.id]; ok {
			return errors.NotValidf("pinmap %s=%d collides with %s", x.name, x.id, prev)
		}
		dedicated[x.id] = x.name
	}
	if len(dedicated) != DeviceCount+2 {
		return errors.NotValidf("pinmap select lines must be distinct %v", m.Select)
	}
	shared := make([]pin.ID, 0, 22)
	shared = append(shared, m.Segments[:]...)
	shared = append(shared, m.Sign)
	shared = append(shared, m.Tens[:]...)
	shared = append(shared, m.Stripe[:]...)
	shared = append(shared, m.Lamp[:]...)
	for _, id := range shared {
		if name, ok := dedicated[id]; ok {
			return errors.NotValidf("pinmap data pin=%d collides with %s", id, name)
		}
	}
	return nil
}
