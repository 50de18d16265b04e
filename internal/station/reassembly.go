package station

import "github.com/btleweather/btleweather/internal/transport"

// partFlag is the high bit of a notification's first byte. A payload
// with the flag set continues the previous packet on the same channel.
// Only two parts have ever been observed, but nothing here assumes a
// maximum.
const partFlag = 0x80

// Reassembler accumulates notification payloads per endpoint and joins
// multi-part sequences back into contiguous records. One instance
// lives exactly as long as its session.
type Reassembler struct {
	parts map[uint16]map[int][]byte
}

// NewReassembler returns an empty Reassembler.
func NewReassembler() *Reassembler {
	return &Reassembler{parts: make(map[uint16]map[int][]byte)}
}

// Push records one notification. The part index comes from the high
// bit of the first payload byte; the marker byte itself carries no
// other known meaning and is stripped. A repeated (endpoint, part)
// pair is not an error: the last payload wins. Empty payloads are
// ignored.
func (r *Reassembler) Push(n transport.Notification) {
	if len(n.Payload) == 0 {
		return
	}
	part := 0
	if n.Payload[0]&partFlag != 0 {
		part = 1
	}
	if r.parts[n.Endpoint] == nil {
		r.parts[n.Endpoint] = make(map[int][]byte)
	}
	r.parts[n.Endpoint][part] = n.Payload[1:]
}

// TakeComplete returns the endpoint's record, parts concatenated in
// ascending part order, iff every part from 0 to the highest one seen
// is present. A gap (say, part 1 without part 0) means the record is
// incomplete and ok is false.
func (r *Reassembler) TakeComplete(endpoint uint16) ([]byte, bool) {
	parts := r.parts[endpoint]
	if len(parts) == 0 {
		return nil, false
	}

	max := 0
	for part := range parts {
		if part > max {
			max = part
		}
	}

	var buf []byte
	for part := 0; part <= max; part++ {
		chunk, ok := parts[part]
		if !ok {
			return nil, false
		}
		buf = append(buf, chunk...)
	}
	return buf, true
}

// Buffers returns every complete record, keyed by endpoint. Incomplete
// endpoints are left out.
func (r *Reassembler) Buffers() map[uint16][]byte {
	out := make(map[uint16][]byte, len(r.parts))
	for endpoint := range r.parts {
		if buf, ok := r.TakeComplete(endpoint); ok {
			out[endpoint] = buf
		}
	}
	return out
}
