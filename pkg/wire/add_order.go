package wire

import "bytes"

const addOrderSize = 36

// AddOrder is the zero-copy view over a 36-byte ITCH AddOrder ('A')
// message: header(11) + order ref(8) + side(1) + shares(4) + symbol(8) +
// price(4) = 36 bytes.
//
// AddOrder borrows its buffer; it must not outlive the slice it was
// constructed from.
type AddOrder struct {
	buf []byte
}

// NewAddOrder wraps buf as an AddOrder view. buf must be at least
// addOrderSize bytes.
func NewAddOrder(buf []byte) AddOrder {
	return AddOrder{buf: buf[:addOrderSize:addOrderSize]}
}

func (m AddOrder) Header() MessageHeader { return NewMessageHeader(m.buf[:headerSize]) }

func (m AddOrder) Type() Tag { return m.buf[0] }

func (m AddOrder) StockLocate() uint16 { return readUint16(m.buf[1:3]) }

func (m AddOrder) TrackingNumber() uint16 { return readUint16(m.buf[3:5]) }

func (m AddOrder) Timestamp() uint64 { return readTimestamp48(m.buf[5:11]) }

// OrderReference returns the 8-byte order reference number assigned by
// the venue.
func (m AddOrder) OrderReference() uint64 { return readUint64(m.buf[11:19]) }

// SideByte returns the raw wire side byte ('B' or 'S').
func (m AddOrder) SideByte() byte { return m.buf[19] }

// IsBuy reports whether the side byte is 'B'.
func (m AddOrder) IsBuy() bool { return sideIsBuy(m.buf[19]) }

// Shares returns the order's share count.
func (m AddOrder) Shares() uint32 { return readUint32(m.buf[20:24]) }

// SymbolRaw returns the raw, space-padded 8-byte ASCII symbol field.
// The returned slice aliases the backing buffer and must not be
// retained or mutated.
func (m AddOrder) SymbolRaw() []byte { return m.buf[24:32] }

// Symbol returns the symbol with trailing ASCII spaces trimmed.
func (m AddOrder) Symbol() string {
	return string(bytes.TrimRight(m.SymbolRaw(), " "))
}

// Price returns the order price in ten-thousandths of the quote
// currency (price ticks).
func (m AddOrder) Price() uint32 { return readUint32(m.buf[32:36]) }

// Bytes returns the raw borrowed message bytes.
func (m AddOrder) Bytes() []byte { return m.buf }
