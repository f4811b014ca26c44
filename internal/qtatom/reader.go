// Package qtatom implements the recursive-descent QuickTime atom parser
// (spec §4.A, §4.C) plus the typed atom-tree query layer (§4.D).
package qtatom

import (
	"encoding/binary"

	"github.com/rvanlaar/qtvr-mosaic/internal/qerr"
)

// Reader is a bounds-checked, big-endian cursor over an in-memory byte
// buffer (the teacher reads an *os.File directly with Seek/Read; QTVR
// files are small enough to slurp once, per spec §5's "may be mmapped or
// slurped", so the cursor here is a slice index rather than a file
// offset).
type Reader struct {
	buf []byte
	pos int64
}

// NewReader wraps buf for bounds-checked big-endian reads starting at 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Tell returns the current cursor position.
func (r *Reader) Tell() int64 { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 { return int64(len(r.buf)) - r.pos }

// Seek moves the cursor to an absolute position within the buffer.
func (r *Reader) Seek(abs int64) error {
	if abs < 0 || abs > int64(len(r.buf)) {
		return qerr.New(qerr.KindUnexpectedEOF, "", abs, "seek target out of range")
	}
	r.pos = abs
	return nil
}

func (r *Reader) need(n int64) error {
	if r.Remaining() < n {
		return qerr.New(qerr.KindUnexpectedEOF, "", r.pos, "fewer bytes remain than requested")
	}
	return nil
}

// Bytes returns the next n raw bytes, advancing the cursor.
func (r *Reader) Bytes(n int64) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U8 reads an unsigned 8-bit integer.
func (r *Reader) U8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// I8 reads a signed 8-bit integer.
func (r *Reader) I8() (int8, error) {
	b, err := r.U8()
	return int8(b), err
}

// U16BE reads a big-endian unsigned 16-bit integer.
func (r *Reader) U16BE() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// I16BE reads a big-endian signed 16-bit integer.
func (r *Reader) I16BE() (int16, error) {
	v, err := r.U16BE()
	return int16(v), err
}

// U24BE reads a big-endian unsigned 24-bit integer (as used by atom
// chunk-length fields in RPZA/RLE framing).
func (r *Reader) U24BE() (uint32, error) {
	b, err := r.Bytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// U32BE reads a big-endian unsigned 32-bit integer.
func (r *Reader) U32BE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// I32BE reads a big-endian signed 32-bit integer.
func (r *Reader) I32BE() (int32, error) {
	v, err := r.U32BE()
	return int32(v), err
}

// Fixed16_16 reads a signed 32-bit big-endian fixed-point value and
// converts it to float64 via a plain division (spec §9: "a plain value /
// 65536.0 using signed 32-bit arithmetic is equivalent and preferable" to
// the original's Fraction-backed conversion).
func (r *Reader) Fixed16_16() (float64, error) {
	v, err := r.I32BE()
	if err != nil {
		return 0, err
	}
	return DecodeFixed(v), nil
}

// DecodeFixed converts a raw signed 32-bit 16.16 fixed-point value to
// float64 (spec §8 property 4).
func DecodeFixed(raw int32) float64 {
	return float64(raw) / 65536.0
}
