package broker

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Frame is one decoded message: an ordered sequence of string fields, the
// unit comm.read_msg/comm.read_fields operate on in the source. Every
// outbound request and inbound response is a Frame.
type Frame struct {
	Fields []string
}

// Field returns the i'th field, or "" if the frame is shorter than i+1 —
// inbound messages the decoder doesn't fully recognize still yield
// whatever leading fields were present.
func (f Frame) Field(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return f.Fields[i]
}

// maxMessageSize bounds a single frame's payload, guarding against a
// corrupt or adversarial length prefix causing an unbounded allocation.
const maxMessageSize = 64 << 20

// encodeFrame renders fields as the wire format the source's
// comm.make_msg produces: each field null-terminated and concatenated,
// the whole payload prefixed with its big-endian uint32 length. The
// trailing null of the last field plus the end of the length-bounded
// payload is the message's "double-null" boundary — there is no
// additional end-of-message marker beyond the length prefix.
func encodeFrame(fields ...string) []byte {
	var payload bytes.Buffer
	for _, f := range fields {
		payload.WriteString(f)
		payload.WriteByte(0)
	}
	out := make([]byte, 4+payload.Len())
	binary.BigEndian.PutUint32(out[:4], uint32(payload.Len()))
	copy(out[4:], payload.Bytes())
	return out
}

// FrameReader drains whole frames from a connection's byte stream,
// buffering partial reads across calls. Mirrors the source's Reader,
// which accumulates a byte buffer and repeatedly calls comm.read_msg
// until a full message is available.
type FrameReader struct {
	r *bufio.Reader
}

// NewFrameReader wraps r in buffered framing.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReaderSize(r, 4096)}
}

// Next blocks until one full frame has been read, or returns an error if
// the underlying stream errors or EOFs mid-message.
func (fr *FrameReader) Next() (Frame, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(fr.r, lenBuf[:]); err != nil {
		return Frame{}, fmt.Errorf("broker: reading frame length: %w", err)
	}
	size := binary.BigEndian.Uint32(lenBuf[:])
	if size == 0 {
		return Frame{}, nil
	}
	if size > maxMessageSize {
		return Frame{}, fmt.Errorf("broker: frame size %d exceeds limit", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return Frame{}, fmt.Errorf("broker: reading frame payload: %w", err)
	}

	fields := bytes.Split(payload, []byte{0})
	// The payload ends with a null terminator on its last field, so
	// Split yields one trailing empty element; drop it.
	if n := len(fields); n > 0 && len(fields[n-1]) == 0 {
		fields = fields[:n-1]
	}

	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return Frame{Fields: out}, nil
}
