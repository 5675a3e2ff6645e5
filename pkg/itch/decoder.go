// Package itch implements a zero-allocation ITCH 5.0 decoder and static
// dispatcher. It reinterprets bytes from an input buffer in place via
// pkg/wire and forwards typed views to a caller-supplied handler — no
// copying, no heap allocation on the decode path.
package itch

import "github.com/luxfi/chronos/pkg/wire"

// Result is the outcome of decoding a single message.
type Result uint8

const (
	// Ok indicates a message was decoded and dispatched successfully.
	Ok Result = iota
	// BufferTooSmall indicates fewer bytes were available than the
	// declared (or minimum) message length required.
	BufferTooSmall
	// UnknownType indicates the tag is absent from the size table; the
	// handler's OnUnknown was still invoked.
	UnknownType
	// InvalidLength is reserved for future length-prefixed framings;
	// the decoder never produces it today.
	InvalidLength
)

func (r Result) String() string {
	switch r {
	case Ok:
		return "Ok"
	case BufferTooSmall:
		return "BufferTooSmall"
	case UnknownType:
		return "UnknownType"
	case InvalidLength:
		return "InvalidLength"
	default:
		return "Unknown"
	}
}

// Handler receives dispatched messages from Decode/DecodeStream.
// Handlers that don't care about a given message type should embed
// NoopHandler to get zero-cost no-op bodies.
type Handler interface {
	OnAddOrder(msg wire.AddOrder)
	OnOrderExecuted(msg wire.OrderExecuted)
	OnSystemEvent(msg wire.MessageHeader)
	OnUnknown(tag wire.Tag, remaining []byte)
}

// NoopHandler provides no-op bodies for all four Handler methods.
// Embed it in a handler struct to implement only the methods you need;
// the compiler devirtualizes and inlines the unused bodies away at the
// call sites generated by Decode/DecodeStream's generic instantiation.
type NoopHandler struct{}

func (NoopHandler) OnAddOrder(wire.AddOrder)           {}
func (NoopHandler) OnOrderExecuted(wire.OrderExecuted) {}
func (NoopHandler) OnSystemEvent(wire.MessageHeader)   {}
func (NoopHandler) OnUnknown(wire.Tag, []byte)         {}

// Decode decodes a single message from the start of buf and dispatches
// it to h. It never allocates and never mutates buf.
//
// Decode is generic over the handler type H so that each concrete
// handler gets its own monomorphised instantiation: no interface
// vtable indirection on the hot path, and the compiler can inline a
// no-op Handler method straight out of existence.
func Decode[H Handler](buf []byte, h H) (consumed int, result Result) {
	if len(buf) < 1 {
		return 0, BufferTooSmall
	}

	tag := buf[0]
	size := wire.SizeOf(tag)

	if size == 0 {
		h.OnUnknown(tag, buf)
		return 0, UnknownType
	}
	if len(buf) < size {
		return 0, BufferTooSmall
	}

	switch tag {
	case wire.TagAddOrder:
		h.OnAddOrder(wire.NewAddOrder(buf[:size]))
	case wire.TagOrderExecuted:
		h.OnOrderExecuted(wire.NewOrderExecuted(buf[:size]))
	case wire.TagSystemEvent:
		h.OnSystemEvent(wire.NewMessageHeader(buf[:size]))
	}

	return size, Ok
}

// DecodeStream repeatedly applies Decode across buf and returns the
// number of bytes consumed. It stops when buf is exhausted, a partial
// message remains at the tail, or an unknown tag is encountered (the
// forward step for an unknown tag can't be determined, so OnUnknown is
// notified and iteration stops at its start).
func DecodeStream[H Handler](buf []byte, h H) (consumed int) {
	for consumed < len(buf) {
		n, result := Decode(buf[consumed:], h)
		switch result {
		case Ok:
			consumed += n
		default:
			return consumed
		}
	}
	return consumed
}
