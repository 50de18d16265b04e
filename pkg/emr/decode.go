package emr

import (
	"encoding/binary"
	"time"
)

// Buffer sizes. The sensor block is always 38 bytes once both parts
// are reassembled; the status and clock blocks are longer on the wire
// but only the first bytes carry known meaning.
const (
	SensorDataLen = 38
	StatusLen     = 6
	ClockLen      = 6
)

// Offsets into the 38-byte sensor block, for unit n (0-3):
//
//	temperature current   2n..2n+1
//	humidity current      8+n
//	humidity maximum      14+2n
//	humidity minimum      15+2n
//	temperature maximum   22+4n..23+4n
//	temperature minimum   24+4n..25+4n
//
// Bytes 12-13 are unknown (always 0xff in captures).
func tempCurrentOffset(n int) int  { return 2 * n }
func humCurrentOffset(n int) int   { return 8 + n }
func humMaxOffset(n int) int       { return 14 + 2*n }
func humMinOffset(n int) int       { return 15 + 2*n }
func tempMaxOffset(n int) int      { return 22 + 4*n }
func tempMinOffset(n int) int      { return 24 + 4*n }

// DecodeTemperature reads the two little-endian bytes at off as a
// signed count of tenths of a degree. A high byte of 0x7f is the
// station's "no reading" sentinel; ok is false in that case (and when
// the buffer is too short to hold the field).
func DecodeTemperature(b []byte, off int) (Temperature, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	if b[off+1] == 0x7f {
		return 0, false
	}
	return Temperature(int16(binary.LittleEndian.Uint16(b[off : off+2]))), true
}

// DecodeHumidity reads the single percentage byte at off. Values over
// 100 are the "no reading" sentinel.
func DecodeHumidity(b []byte, off int) (uint8, bool) {
	if off < 0 || off >= len(b) {
		return 0, false
	}
	if b[off] > 100 {
		return 0, false
	}
	return b[off], true
}

// DecodeClock decodes the station clock from the first six bytes of
// the clock block: year-2000, month, day, hour, minute, second. There
// is no missing-value sentinel; the station always reports a time, set
// or not. Bytes beyond the sixth are unknown and ignored.
func DecodeClock(b []byte) time.Time {
	return time.Date(2000+int(b[0]), time.Month(b[1]), int(b[2]),
		int(b[3]), int(b[4]), int(b[5]), 0, time.Local)
}

// DecodePresence returns the set of sensor units paired with the
// station. Unit 0 is the built-in sensor and is always present; units
// 1-3 are present iff their bit (unit-1) is set in status byte 1.
func DecodePresence(status []byte) UnitSet {
	var set UnitSet
	set.Add(0)
	for n := 1; n <= 3; n++ {
		if status[1]&(1<<uint(n-1)) != 0 {
			set.Add(n)
		}
	}
	return set
}

// DecodeLowBattery returns the set of units with the low battery alarm
// raised. Unit 0 (the display) uses the high bit of status byte 0;
// units 1-3 use their bit (unit-1) in status byte 5.
func DecodeLowBattery(status []byte) UnitSet {
	var set UnitSet
	if status[0]&0x80 != 0 {
		set.Add(0)
	}
	for n := 1; n <= 3; n++ {
		if status[5]&(1<<uint(n-1)) != 0 {
			set.Add(n)
		}
	}
	return set
}
