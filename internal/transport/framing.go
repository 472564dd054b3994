package transport

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Frame header bits.
const (
	flagEncrypted  = 0x40
	flagCompressed = 0x20
	flagLargeSize  = 0x08
)

// Frames larger than this are compressed before being written.
const compressWriteThreshold = 2 * 1024 * 1024

// Upper bound on a single frame, to keep a bad length prefix from
// allocating unbounded memory.
const maxFrameLength = 16 * 1024 * 1024

// readFrame reads one length-prefixed frame and returns the raw packet
// bytes, inflating them when the compression bit is set.
func readFrame(r io.Reader) ([]byte, error) {
	var header [1]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	if header[0]&flagEncrypted != 0 {
		return nil, fmt.Errorf("encrypted frames are not supported")
	}

	var length int
	if header[0]&flagLargeSize != 0 {
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("reading frame length: %w", err)
		}
		length = int(int32(binary.BigEndian.Uint32(buf[:])))
	} else {
		var buf [2]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, fmt.Errorf("reading frame length: %w", err)
		}
		length = int(int16(binary.BigEndian.Uint16(buf[:])))
	}

	if length <= 0 || length > maxFrameLength {
		return nil, fmt.Errorf("invalid frame length %d", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}

	if header[0]&flagCompressed != 0 {
		zr, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening compressed frame: %w", err)
		}
		defer zr.Close()

		data, err = io.ReadAll(io.LimitReader(zr, maxFrameLength+1))
		if err != nil {
			return nil, fmt.Errorf("inflating frame: %w", err)
		}
		if len(data) > maxFrameLength {
			return nil, fmt.Errorf("inflated frame exceeds %d bytes", maxFrameLength)
		}
	}

	return data, nil
}

// writeFrame writes one frame, compressing the body when it crosses the
// write threshold.
func writeFrame(w io.Writer, data []byte) error {
	header := byte(0)

	if len(data) >= compressWriteThreshold {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(data); err != nil {
			return fmt.Errorf("compressing frame: %w", err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("compressing frame: %w", err)
		}
		data = buf.Bytes()
		header |= flagCompressed
	}

	out := make([]byte, 0, len(data)+5)
	if len(data) > math.MaxInt16 {
		header |= flagLargeSize
		out = append(out, header)
		out = binary.BigEndian.AppendUint32(out, uint32(len(data)))
	} else {
		out = append(out, header)
		out = binary.BigEndian.AppendUint16(out, uint16(len(data)))
	}
	out = append(out, data...)

	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}
