package wire

const orderExecutedSize = 31

// OrderExecuted is the zero-copy view over a 31-byte ITCH
// OrderExecuted ('E') message: header(11) + order ref(8) + executed
// shares(4) + match reference(8) = 31 bytes.
type OrderExecuted struct {
	buf []byte
}

// NewOrderExecuted wraps buf as an OrderExecuted view. buf must be at
// least orderExecutedSize bytes.
func NewOrderExecuted(buf []byte) OrderExecuted {
	return OrderExecuted{buf: buf[:orderExecutedSize:orderExecutedSize]}
}

func (m OrderExecuted) Header() MessageHeader { return NewMessageHeader(m.buf[:headerSize]) }

func (m OrderExecuted) Type() Tag { return m.buf[0] }

func (m OrderExecuted) StockLocate() uint16 { return readUint16(m.buf[1:3]) }

func (m OrderExecuted) TrackingNumber() uint16 { return readUint16(m.buf[3:5]) }

func (m OrderExecuted) Timestamp() uint64 { return readTimestamp48(m.buf[5:11]) }

// OrderReference returns the order reference of the order being
// (partially or fully) executed.
func (m OrderExecuted) OrderReference() uint64 { return readUint64(m.buf[11:19]) }

// ExecutedShares returns the number of shares executed by this event.
func (m OrderExecuted) ExecutedShares() uint32 { return readUint32(m.buf[19:23]) }

// MatchReference returns the match number assigned to this execution.
func (m OrderExecuted) MatchReference() uint64 { return readUint64(m.buf[23:31]) }

// Bytes returns the raw borrowed message bytes.
func (m OrderExecuted) Bytes() []byte { return m.buf }
