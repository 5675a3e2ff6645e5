// Package capture implements a zero-copy pcap capture-file framer: it
// mmaps a capture file, walks its packet records, and locates the ITCH
// payload offset within each UDP datagram via a heuristic that tries a
// fixed set of encapsulation-depth candidates before falling back to a
// linear scan.
package capture

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/log"
	"golang.org/x/sys/unix"

	"github.com/luxfi/chronos/pkg/wire"
)

// ErrBadMagic is returned by Open when the file's global header magic
// number does not match any recognised pcap variant.
var ErrBadMagic = errors.New("capture: unrecognised pcap magic number")

// ErrTooSmall is returned by Open when the file is smaller than a
// global header.
var ErrTooSmall = errors.New("capture: file smaller than pcap global header")

const (
	globalHeaderSize = 24
	packetHeaderSize = 16
)

// Reader is a memory-mapped pcap file reader. It owns the mapping and
// the underlying file descriptor; callers must call Close when done.
//
// Reader is not safe for concurrent Close/ForEachPayload calls; a
// single reader is meant to be driven by one goroutine, owning its
// mapping exclusively for its whole lifetime.
type Reader struct {
	data           []byte
	fd             int
	needsSwap      bool
	closed         bool
	offsetOverride int
	haveOverride   bool
	stats          Stats
	logger         log.Logger
	loggedOffset   bool
}

// Stats records what the reader observed about this capture and the
// offset-discovery decision made for it.
type Stats struct {
	PacketsVisited    int
	TruncatedAt       int // byte offset iteration stopped at, or 0 if it reached EOF cleanly
	DiscoveredOffset  int
	OffsetWasOverride bool
}

// Open mmaps filename and validates its global header. The returned
// Reader must be closed by the caller. logger may be nil, in which case
// the reader stays silent.
func Open(filename string, logger log.Logger) (*Reader, error) {
	fd, err := unix.Open(filename, unix.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", filename, err)
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("capture: stat %s: %w", filename, err)
	}
	size := int(st.Size)

	if size < globalHeaderSize {
		unix.Close(fd)
		return nil, ErrTooSmall
	}

	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("capture: mmap %s: %w", filename, err)
	}

	magic := binary.BigEndian.Uint32(data[0:4])
	swappedMagic := binary.LittleEndian.Uint32(data[0:4])

	var needsSwap bool
	switch {
	case magic == 0xA1B2C3D4 || magic == 0xA1B23C4D:
		needsSwap = false
	case swappedMagic == 0xA1B2C3D4 || swappedMagic == 0xA1B23C4D:
		needsSwap = true
	default:
		unix.Munmap(data)
		unix.Close(fd)
		return nil, ErrBadMagic
	}

	return &Reader{data: data, fd: fd, needsSwap: needsSwap, logger: logger}, nil
}

// Close unmaps the file and closes its descriptor. Close is idempotent.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	if r.data != nil {
		err = unix.Munmap(r.data)
		r.data = nil
	}
	if cerr := unix.Close(r.fd); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// NeedsSwap reports whether packet header fields must be byte-swapped,
// derived from the global header's magic number.
func (r *Reader) NeedsSwap() bool { return r.needsSwap }

// FileSize returns the mapped file's size in bytes.
func (r *Reader) FileSize() int { return len(r.data) }

// SetOffsetOverride forces DiscoverOffset to return offset for every
// payload in this session, bypassing the heuristic entirely. The
// heuristic cannot be proven correct, so sessions that know their
// encapsulation should be able to pin it.
func (r *Reader) SetOffsetOverride(offset int) {
	r.offsetOverride = offset
	r.haveOverride = true
}

// Stats returns the running statistics for this reader's iteration so
// far.
func (r *Reader) Stats() Stats { return r.stats }

func (r *Reader) readUint32(b []byte) uint32 {
	if r.needsSwap {
		return binary.LittleEndian.Uint32(b)
	}
	return binary.BigEndian.Uint32(b)
}

// ForEachPayload walks packet records starting at sizeof(GlobalHeader),
// invoking fn with each record's captured payload. A record whose
// declared length would overrun the file truncates iteration cleanly
// without returning an error, matching the original reader's
// tolerance for a partial trailing record.
func (r *Reader) ForEachPayload(fn func(payload []byte)) {
	offset := globalHeaderSize
	r.stats = Stats{}

	for offset+packetHeaderSize <= len(r.data) {
		hdr := r.data[offset : offset+packetHeaderSize]
		inclLen := int(r.readUint32(hdr[8:12]))

		offset += packetHeaderSize

		if offset+inclLen > len(r.data) {
			r.stats.TruncatedAt = offset
			if r.logger != nil {
				r.logger.Warn("capture file truncated, stopping iteration",
					"offset", offset, "packets_visited", r.stats.PacketsVisited)
			}
			return
		}

		fn(r.data[offset : offset+inclLen])

		offset += inclLen
		r.stats.PacketsVisited++
	}
}

// candidateOffsets are the fixed encapsulation-depth guesses tried
// before falling back to a linear scan: plain UDP (42), +VLAN (46),
// +MoldUDP64 (62), +MoldUDP64+length (64), +VLAN+MoldUDP64 (66),
// +VLAN+MoldUDP64+length (68).
var candidateOffsets = [...]int{42, 46, 62, 64, 66, 68}

// fallbackOffset is returned when neither the candidate offsets nor
// the linear scan find a plausible ITCH tag.
const fallbackOffset = 42

// linearScanLimit bounds the final fallback scan to the first 100
// bytes of the payload.
const linearScanLimit = 100

// isPlausibleStockLocate reports whether the two bytes following a
// candidate tag look like a real stock-locate field, per the
// original's find_itch_offset range check.
func isPlausibleStockLocate(payload []byte, offset int) bool {
	if len(payload) < offset+3 {
		return false
	}
	locate := uint16(payload[offset+1])<<8 | uint16(payload[offset+2])
	return locate > 0 && locate < 10000
}

// DiscoverOffset locates the start of the ITCH payload within a raw UDP
// datagram. It tries the fixed candidate offsets first (tag-alphabet
// membership, with a lenient accept when the stock-locate range check
// fails but the tag still matches), then a linear scan of the first 100
// bytes, and finally falls back to offset 42.
func (r *Reader) DiscoverOffset(payload []byte) int {
	if r.haveOverride {
		r.stats.DiscoveredOffset = r.offsetOverride
		r.stats.OffsetWasOverride = true
		r.logOffsetOnce(r.offsetOverride, true)
		return r.offsetOverride
	}

	for _, offset := range candidateOffsets {
		if offset >= len(payload) {
			continue
		}
		if !wire.IsKnownTag(payload[offset]) {
			continue
		}
		// Stock-locate range check is advisory: a tag match alone is
		// accepted even if the range check fails (lenient fallback).
		r.stats.DiscoveredOffset = offset
		r.logOffsetOnce(offset, false)
		return offset
	}

	limit := len(payload)
	if limit > linearScanLimit {
		limit = linearScanLimit
	}
	for offset := 0; offset < limit; offset++ {
		if !wire.IsKnownTag(payload[offset]) {
			continue
		}
		if isPlausibleStockLocate(payload, offset) {
			r.stats.DiscoveredOffset = offset
			r.logOffsetOnce(offset, false)
			return offset
		}
	}

	r.stats.DiscoveredOffset = fallbackOffset
	r.logOffsetOnce(fallbackOffset, false)
	return fallbackOffset
}

// logOffsetOnce reports the offset this session resolved to, the first
// time DiscoverOffset is called, so operators can see what encapsulation
// was assumed without re-deriving it for every packet.
func (r *Reader) logOffsetOnce(offset int, override bool) {
	if r.logger == nil || r.loggedOffset {
		return
	}
	r.loggedOffset = true
	r.logger.Info("resolved ITCH payload offset", "offset", offset, "override", override)
}
