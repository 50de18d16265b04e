package emr

import (
	"testing"
	"time"
)

func TestDecodeTemperature(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		off  int
		want Temperature
		ok   bool
	}{
		{"positive", []byte{0x89, 0x00}, 0, 137, true},
		{"negative", []byte{0x85, 0xff}, 0, -123, true},
		{"zero", []byte{0x00, 0x00}, 0, 0, true},
		{"sentinel", []byte{0x00, 0x7f}, 0, 0, false},
		{"sentinel with noise in low byte", []byte{0xab, 0x7f}, 0, 0, false},
		{"offset", []byte{0xff, 0xff, 0x2c, 0x01}, 2, 300, true},
		{"too short", []byte{0x89}, 0, 0, false},
		{"off past end", []byte{0x89, 0x00}, 1, 0, false},
		{"negative offset", []byte{0x89, 0x00}, -1, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodeTemperature(tc.buf, tc.off)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}
}

func TestTemperatureString(t *testing.T) {
	cases := []struct {
		in   Temperature
		want string
	}{
		{137, "13.7"},
		{-123, "-12.3"},
		{0, "0.0"},
		{-5, "-0.5"},
		{5, "0.5"},
		{-100, "-10.0"},
	}

	for _, tc := range cases {
		if got := tc.in.String(); got != tc.want {
			t.Errorf("Temperature(%d).String() = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTemperatureMarshalJSON(t *testing.T) {
	b, err := Temperature(-123).MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "-12.3" {
		t.Errorf("got %s, want -12.3", b)
	}
}

func TestDecodeHumidity(t *testing.T) {
	cases := []struct {
		name string
		val  byte
		want uint8
		ok   bool
	}{
		{"normal", 45, 45, true},
		{"zero", 0, 0, true},
		{"boundary", 100, 100, true},
		{"just over", 101, 0, false},
		{"sentinel 0xff", 0xff, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := DecodeHumidity([]byte{tc.val}, 0)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Errorf("got %d, want %d", got, tc.want)
			}
		})
	}

	if _, ok := DecodeHumidity([]byte{45}, 1); ok {
		t.Error("offset past end should not decode")
	}
}

func TestDecodeClock(t *testing.T) {
	got := DecodeClock([]byte{20, 8, 23, 14, 30, 5})
	want := time.Date(2020, time.August, 23, 14, 30, 5, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodePresence(t *testing.T) {
	cases := []struct {
		name  string
		byte1 byte
		want  []int
	}{
		{"base only", 0b000, []int{0}},
		{"unit 1", 0b001, []int{0, 1}},
		{"unit 2", 0b010, []int{0, 2}},
		{"all units", 0b111, []int{0, 1, 2, 3}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := []byte{0, tc.byte1, 0, 0, 0, 0}
			got := DecodePresence(status).Units()
			if !equalInts(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDecodeLowBattery(t *testing.T) {
	cases := []struct {
		name  string
		byte0 byte
		byte5 byte
		want  []int
	}{
		{"none", 0x00, 0x00, nil},
		{"base only", 0x80, 0x00, []int{0}},
		{"remote units only", 0x00, 0b101, []int{1, 3}},
		{"base and remotes together", 0x80, 0b010, []int{0, 2}},
		{"byte0 low bits ignored", 0x7f, 0x00, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status := []byte{tc.byte0, 0, 0, 0, 0, tc.byte5}
			got := DecodeLowBattery(status).Units()
			if !equalInts(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestUnitSet(t *testing.T) {
	var s UnitSet
	s.Add(0)
	s.Add(3)
	s.Add(-1)
	s.Add(8)

	if !s.Contains(0) || !s.Contains(3) {
		t.Error("added units missing")
	}
	if s.Contains(1) || s.Contains(-1) || s.Contains(8) {
		t.Error("unexpected membership")
	}
	if got := s.Units(); !equalInts(got, []int{0, 3}) {
		t.Errorf("Units() = %v, want [0 3]", got)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
