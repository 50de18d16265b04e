package emr

import (
	"errors"
	"testing"
	"time"
)

// sensorBlock builds a 38-byte block with unit 0 fully populated and
// every other field carrying the unavailable sentinels.
func sensorBlock() []byte {
	b := make([]byte, SensorDataLen)
	for i := range b {
		b[i] = 0xff
	}
	// Remaining units' current temperatures: sentinel high byte.
	for n := 1; n <= 3; n++ {
		b[2*n] = 0x00
		b[2*n+1] = 0x7f
	}
	for n := 1; n <= 3; n++ {
		b[22+4*n+1] = 0x7f
		b[24+4*n+1] = 0x7f
	}

	// Unit 0: 13.7 C now, -12.3 min, 30.0 max, 45% now, 30% min, 80% max.
	b[0], b[1] = 0x89, 0x00
	b[8] = 45
	b[14] = 80
	b[15] = 30
	b[22], b[23] = 0x2c, 0x01
	b[24], b[25] = 0x85, 0xff
	return b
}

func TestAssembleSnapshot(t *testing.T) {
	clock := []byte{23, 1, 2, 3, 4, 5}
	status := []byte{0x00, 0b001, 0, 0, 0, 0b001} // unit 1 present, battery low

	snap, err := AssembleSnapshot(clock, status, sensorBlock())
	if err != nil {
		t.Fatal(err)
	}

	wantClock := time.Date(2023, time.January, 2, 3, 4, 5, 0, time.Local)
	if !snap.Clock.Equal(wantClock) {
		t.Errorf("clock = %v, want %v", snap.Clock, wantClock)
	}

	if len(snap.Sensors) != 2 {
		t.Fatalf("got %d sensors, want 2: %v", len(snap.Sensors), snap.Sensors)
	}
	if _, ok := snap.Sensors[2]; ok {
		t.Error("absent unit 2 should not appear")
	}

	u0 := snap.Sensors[0]
	if u0.TempCurrent == nil || *u0.TempCurrent != 137 {
		t.Errorf("unit 0 temp current = %v, want 13.7", u0.TempCurrent)
	}
	if u0.TempMin == nil || *u0.TempMin != -123 {
		t.Errorf("unit 0 temp min = %v, want -12.3", u0.TempMin)
	}
	if u0.TempMax == nil || *u0.TempMax != 300 {
		t.Errorf("unit 0 temp max = %v, want 30.0", u0.TempMax)
	}
	if u0.HumidityCurrent == nil || *u0.HumidityCurrent != 45 {
		t.Errorf("unit 0 humidity current = %v, want 45", u0.HumidityCurrent)
	}
	if u0.HumidityMin == nil || *u0.HumidityMin != 30 {
		t.Errorf("unit 0 humidity min = %v, want 30", u0.HumidityMin)
	}
	if u0.HumidityMax == nil || *u0.HumidityMax != 80 {
		t.Errorf("unit 0 humidity max = %v, want 80", u0.HumidityMax)
	}
	if u0.LowBattery {
		t.Error("unit 0 battery should not be low")
	}

	u1 := snap.Sensors[1]
	if u1.TempCurrent != nil || u1.TempMin != nil || u1.TempMax != nil {
		t.Errorf("unit 1 temperatures should be unavailable: %+v", u1)
	}
	if u1.HumidityCurrent != nil || u1.HumidityMin != nil || u1.HumidityMax != nil {
		t.Errorf("unit 1 humidities should be unavailable: %+v", u1)
	}
	if !u1.LowBattery {
		t.Error("unit 1 battery should be low")
	}
}

func TestAssembleSnapshotBaseOnly(t *testing.T) {
	clock := []byte{23, 1, 2, 3, 4, 5}
	status := []byte{0x80, 0x00, 0, 0, 0, 0x00} // no remote units, base battery low

	snap, err := AssembleSnapshot(clock, status, sensorBlock())
	if err != nil {
		t.Fatal(err)
	}

	if len(snap.Sensors) != 1 {
		t.Fatalf("got %d sensors, want 1", len(snap.Sensors))
	}
	if !snap.Sensors[0].LowBattery {
		t.Error("base battery should be low")
	}
}

func TestAssembleSnapshotMalformed(t *testing.T) {
	clock := []byte{23, 1, 2, 3, 4, 5}
	status := []byte{0, 0, 0, 0, 0, 0}
	sensors := sensorBlock()

	cases := []struct {
		name                   string
		clock, status, sensors []byte
	}{
		{"short clock", clock[:5], status, sensors},
		{"short status", clock, status[:3], sensors},
		{"short sensors", clock, status, sensors[:SensorDataLen-1]},
		{"empty sensors", clock, status, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := AssembleSnapshot(tc.clock, tc.status, tc.sensors)
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("err = %v, want ErrMalformedRecord", err)
			}
		})
	}
}

func TestAssembleSnapshotOversizeBuffersTolerated(t *testing.T) {
	clock := append([]byte{23, 1, 2, 3, 4, 5}, 0xaa, 0xbb)
	status := []byte{0, 0, 0, 0, 0, 0, 0xff}
	sensors := append(sensorBlock(), 0x00)

	if _, err := AssembleSnapshot(clock, status, sensors); err != nil {
		t.Errorf("trailing bytes should be ignored, got %v", err)
	}
}
