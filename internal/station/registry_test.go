package station

import "testing"

func TestChannels(t *testing.T) {
	chs := Channels()

	if len(chs) != 9 {
		t.Fatalf("got %d channels, want 9", len(chs))
	}

	seen := map[uint16]bool{}
	for _, ch := range chs {
		if ch.CCCD != ch.Value+1 {
			t.Errorf("channel 0x%04x: CCCD 0x%04x is not value+1", ch.Value, ch.CCCD)
		}
		if len(ch.Enable) != 2 {
			t.Errorf("channel 0x%04x: enable payload % x", ch.Value, ch.Enable)
		}
		seen[ch.Value] = true
	}

	for _, ep := range []uint16{EndpointSensors, EndpointStatus, EndpointClock} {
		if !seen[ep] {
			t.Errorf("decoded endpoint 0x%04x missing from channel table", ep)
		}
	}
}

func TestChannelsReturnsCopy(t *testing.T) {
	a := Channels()
	a[0].Value = 0xdead

	if b := Channels(); b[0].Value == 0xdead {
		t.Error("mutating the returned slice must not affect the table")
	}
}
