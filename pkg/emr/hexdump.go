package emr

import (
	"fmt"
	"sort"
	"strings"
)

// Dump renders reassembled notification buffers for diagnostics, in
// the traditional hex dump shape: a [handle] header per endpoint in
// ascending order, sixteen bytes per line with the line's byte offset
// in front, and a hyphen instead of a space before the ninth byte.
// Byte order is exactly the post-reassembly buffer order.
func Dump(raw map[uint16][]byte) string {
	endpoints := make([]int, 0, len(raw))
	for ep := range raw {
		endpoints = append(endpoints, int(ep))
	}
	sort.Ints(endpoints)

	var lines []string
	for _, ep := range endpoints {
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("[%04x]", ep))

		var line strings.Builder
		for n, b := range raw[uint16(ep)] {
			if n%16 == 0 {
				if line.Len() > 0 {
					lines = append(lines, line.String())
					line.Reset()
				}
				fmt.Fprintf(&line, "%04x:", n)
			}
			sep := " "
			if n%8 == 0 && n%16 != 0 {
				sep = "-"
			}
			fmt.Fprintf(&line, "%s%02x", sep, b)
		}
		if line.Len() > 0 {
			lines = append(lines, line.String())
		}
	}

	return strings.Join(lines, "\n")
}
