// Package station implements the measurement engine: the notification
// channel registry, multi-part payload reassembly, the per-attempt
// session state machine and the retry controller around it.
package station

import "github.com/btleweather/btleweather/internal/transport"

// Value handles of the channels whose payloads the decoder consumes.
const (
	EndpointSensors uint16 = 0x0017
	EndpointStatus  uint16 = 0x000e
	EndpointClock   uint16 = 0x001d
)

var (
	enableIndicate = []byte{0x02, 0x00}
	enableNotify   = []byte{0x01, 0x00}
)

// channels is the station's notification channel table, in handle
// order. All nine must be armed for every measurement: the firmware
// stops sending the interesting channels when only a subset is
// enabled, so this table is not to be trimmed down to the three
// decoded ones.
var channels = []transport.Channel{
	{Value: 0x000b, CCCD: 0x000c, Enable: enableIndicate},
	{Value: 0x000e, CCCD: 0x000f, Enable: enableIndicate},
	{Value: 0x0011, CCCD: 0x0012, Enable: enableIndicate},
	{Value: 0x0014, CCCD: 0x0015, Enable: enableNotify},
	{Value: 0x0017, CCCD: 0x0018, Enable: enableIndicate},
	{Value: 0x001a, CCCD: 0x001b, Enable: enableIndicate},
	{Value: 0x001d, CCCD: 0x001e, Enable: enableIndicate},
	{Value: 0x0020, CCCD: 0x0021, Enable: enableIndicate},
	{Value: 0x0031, CCCD: 0x0032, Enable: enableNotify},
}

// Channels returns the full channel table in activation order. The
// caller gets a copy; the table itself is immutable.
func Channels() []transport.Channel {
	out := make([]transport.Channel, len(channels))
	copy(out, channels)
	return out
}
