package wire

// headerSize is the common prefix shared by every ITCH message: 1-byte
// type + 2-byte stock locate + 2-byte tracking number + 6-byte
// timestamp = 11 bytes. SystemEvent's full wire size is 12 (header plus
// a trailing event-code byte the header view does not expose) — see
// SizeOf.
const headerSize = 11

// systemEventSize is SystemEvent's full wire size: the 11-byte common
// header plus a single trailing event-code byte. The header view alone
// covers dispatch; callers that need the event code read buf[11]
// directly since SystemEvent has no dedicated view type today.
const systemEventSize = 12

// MessageHeader is the zero-copy view over the common prefix of every
// ITCH message.
//
// MessageHeader borrows buf; it is only valid while buf outlives it and
// must never be retained past the caller's iteration of the enclosing
// payload slice.
type MessageHeader struct {
	buf []byte
}

// NewMessageHeader wraps buf as a header view. buf must have at least
// headerSize bytes; callers are expected to have already bounds-checked
// via SizeOf/itch.Decode's length check.
func NewMessageHeader(buf []byte) MessageHeader {
	return MessageHeader{buf: buf[:headerSize:headerSize]}
}

// Type returns the message type tag (first byte).
func (h MessageHeader) Type() Tag { return h.buf[0] }

// StockLocate returns the instrument locate within the session.
func (h MessageHeader) StockLocate() uint16 { return readUint16(h.buf[1:3]) }

// TrackingNumber returns the tracking number field.
func (h MessageHeader) TrackingNumber() uint16 { return readUint16(h.buf[3:5]) }

// Timestamp returns the nanoseconds-since-midnight field reconstructed
// from its 6 wire bytes.
func (h MessageHeader) Timestamp() uint64 { return readTimestamp48(h.buf[5:11]) }

// Bytes returns the raw borrowed header bytes. The returned slice aliases
// the caller's buffer and must not be mutated.
func (h MessageHeader) Bytes() []byte { return h.buf }
