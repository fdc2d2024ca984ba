package frame

import (
	"errors"
	"fmt"
	"io"

	"github.com/zsiec/abxclient/internal/abx/packet"
)

// ErrTruncated marks a stream that ended part way through a record.
var ErrTruncated = errors.New("frame: truncated record")

// TruncatedError carries how many bytes arrived before the stream ended.
type TruncatedError struct {
	Read int
	Want int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("frame: truncated record: read %d of %d bytes", e.Read, e.Want)
}

func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

// ReadExact fills buf from r.
//
// It returns (0, io.EOF) when r ends before any byte arrives, a
// *TruncatedError when r ends part way through buf, and (len(buf), nil) on a
// full read. Other read errors are returned as-is with the count so far.
func ReadExact(r io.Reader, buf []byte) (int, error) {
	n, err := io.ReadFull(r, buf)
	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF) && n == 0:
		return 0, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return n, &TruncatedError{Read: n, Want: len(buf)}
	default:
		return n, err
	}
}

// Reader decodes consecutive fixed-size records from a byte stream.
type Reader struct {
	r      io.Reader
	buf    [packet.Size]byte
	frames int
	bytes  int64
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Next reads and decodes one record. It returns io.EOF at a clean record
// boundary, ErrTruncated for a partial record and packet.ErrInvalidPacket
// for a record that fails validation.
func (fr *Reader) Next() (packet.Packet, error) {
	n, err := ReadExact(fr.r, fr.buf[:])
	fr.bytes += int64(n)
	if err != nil {
		return packet.Packet{}, err
	}
	fr.frames++
	return packet.Decode(fr.buf[:])
}

// Frames returns the number of complete records read so far.
func (fr *Reader) Frames() int { return fr.frames }

// BytesRead returns the total number of bytes consumed.
func (fr *Reader) BytesRead() int64 { return fr.bytes }
