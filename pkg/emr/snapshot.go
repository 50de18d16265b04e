package emr

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Plausibility bounds for logging. Readings outside these are almost
// certainly corrupt but still structurally valid, so they are reported
// and kept rather than rejected.
const (
	minPlausibleTemp = Temperature(-400) // -40.0 C
	maxPlausibleTemp = Temperature(700)  // 70.0 C
)

// AssembleSnapshot combines the reassembled clock, status and sensor
// blocks into a Snapshot. Units absent from the presence mask do not
// appear in the result at all. Buffers shorter than the structural
// minimum are rejected with ErrMalformedRecord; all byte values are
// otherwise tolerated, with the sentinel rules deciding which fields
// are unavailable.
func AssembleSnapshot(clock, status, sensors []byte) (*Snapshot, error) {
	if len(clock) < ClockLen {
		return nil, fmt.Errorf("clock block %d bytes, want at least %d: %w", len(clock), ClockLen, ErrMalformedRecord)
	}
	if len(status) < StatusLen {
		return nil, fmt.Errorf("status block %d bytes, want at least %d: %w", len(status), StatusLen, ErrMalformedRecord)
	}
	if len(sensors) < SensorDataLen {
		return nil, fmt.Errorf("sensor block %d bytes, want at least %d: %w", len(sensors), SensorDataLen, ErrMalformedRecord)
	}

	present := DecodePresence(status)
	lowBattery := DecodeLowBattery(status)

	snap := &Snapshot{
		Clock:   DecodeClock(clock),
		Sensors: make(map[int]SensorReading, len(present.Units())),
	}

	for _, n := range present.Units() {
		reading := SensorReading{
			TempCurrent:     decodeTempField(sensors, tempCurrentOffset(n), n, "current"),
			TempMin:         decodeTempField(sensors, tempMinOffset(n), n, "min"),
			TempMax:         decodeTempField(sensors, tempMaxOffset(n), n, "max"),
			HumidityCurrent: decodeHumField(sensors, humCurrentOffset(n)),
			HumidityMin:     decodeHumField(sensors, humMinOffset(n)),
			HumidityMax:     decodeHumField(sensors, humMaxOffset(n)),
			LowBattery:      lowBattery.Contains(n),
		}

		log.Debug().
			Int("unit", n).
			Stringer("temp_current", stringerOrNil(reading.TempCurrent)).
			Stringer("temp_min", stringerOrNil(reading.TempMin)).
			Stringer("temp_max", stringerOrNil(reading.TempMax)).
			Bool("low_battery", reading.LowBattery).
			Msg("decoded sensor unit")

		snap.Sensors[n] = reading
	}

	return snap, nil
}

func decodeTempField(sensors []byte, off, unit int, kind string) *Temperature {
	t, ok := DecodeTemperature(sensors, off)
	if !ok {
		return nil
	}
	if t < minPlausibleTemp || t > maxPlausibleTemp {
		log.Warn().
			Int("unit", unit).
			Str("kind", kind).
			Stringer("value", t).
			Msg("implausible temperature reading, keeping it anyway")
	}
	return &t
}

func decodeHumField(sensors []byte, off int) *uint8 {
	h, ok := DecodeHumidity(sensors, off)
	if !ok {
		return nil
	}
	return &h
}

// stringerOrNil lets optional fields show up as "?" in debug logs.
type maybeTemp struct{ t *Temperature }

func (m maybeTemp) String() string {
	if m.t == nil {
		return "?"
	}
	return m.t.String()
}

func stringerOrNil(t *Temperature) maybeTemp {
	return maybeTemp{t}
}
