// Package emr implements the binary record format spoken by Oregon
// Scientific EMR211 / RAR218HG weather stations. The format is
// reverse-engineered: missing readings are signalled with in-band
// sentinel values rather than documented anywhere by the vendor.
package emr

import (
	"errors"
	"fmt"
	"time"
)

// ErrMalformedRecord is returned when a reassembled buffer is too short
// to carry the record it is supposed to carry. Byte values themselves
// are never rejected; the sentinel rules take care of those.
var ErrMalformedRecord = errors.New("malformed record")

// Temperature is a temperature in tenths of a degree Celsius. Keeping
// the raw tenths avoids binary float drift for values like -12.3.
type Temperature int16

// Celsius returns the temperature in degrees Celsius.
func (t Temperature) Celsius() float64 {
	return float64(t) / 10
}

func (t Temperature) String() string {
	whole := int(t) / 10
	frac := int(t) % 10
	if frac < 0 {
		frac = -frac
	}
	if t < 0 && whole == 0 {
		return fmt.Sprintf("-0.%d", frac)
	}
	return fmt.Sprintf("%d.%d", whole, frac)
}

// MarshalJSON encodes the temperature as an exact decimal number.
func (t Temperature) MarshalJSON() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnitSet is a set of sensor unit numbers (0 = the base station's
// built-in sensor, 1-3 = remote units).
type UnitSet uint8

// Add adds a unit to the set. Units outside 0-7 are ignored.
func (s *UnitSet) Add(unit int) {
	if unit < 0 || unit > 7 {
		return
	}
	*s |= 1 << uint(unit)
}

// Contains reports whether the unit is in the set.
func (s UnitSet) Contains(unit int) bool {
	if unit < 0 || unit > 7 {
		return false
	}
	return s&(1<<uint(unit)) != 0
}

// Units returns the members of the set in ascending order.
func (s UnitSet) Units() []int {
	var units []int
	for n := 0; n < 8; n++ {
		if s.Contains(n) {
			units = append(units, n)
		}
	}
	return units
}

// SensorReading is the decoded state of one sensor unit. Nil pointers
// mean the station reported the value as unavailable.
type SensorReading struct {
	TempCurrent     *Temperature `json:"tempCurrent"`
	TempMin         *Temperature `json:"tempMin"`
	TempMax         *Temperature `json:"tempMax"`
	HumidityCurrent *uint8       `json:"humidityCurrent"`
	HumidityMin     *uint8       `json:"humidityMin"`
	HumidityMax     *uint8       `json:"humidityMax"`
	LowBattery      bool         `json:"lowBattery"`
}

// Snapshot is the complete decoded result of one successful
// measurement. Sensors holds entries only for units present in the
// status block's presence mask. The clock is always populated but is
// only meaningful if the station's clock was ever set; the wire format
// gives no way to tell.
type Snapshot struct {
	Clock   time.Time             `json:"clock"`
	Sensors map[int]SensorReading `json:"sensors"`
}
