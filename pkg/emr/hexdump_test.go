package emr

import "testing"

func TestDump(t *testing.T) {
	raw := map[uint16][]byte{
		0x0017: {
			0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
			0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
			0x10, 0x11,
		},
		0x000e: {0xaa, 0xbb},
	}

	want := "[000e]\n" +
		"0000: aa bb\n" +
		"\n" +
		"[0017]\n" +
		"0000: 00 01 02 03 04 05 06 07-08 09 0a 0b 0c 0d 0e 0f\n" +
		"0010: 10 11"

	if got := Dump(raw); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestDumpEmpty(t *testing.T) {
	if got := Dump(nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}
