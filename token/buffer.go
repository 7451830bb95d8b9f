package token

import (
	"encoding/binary"
	"io"
	"unicode/utf16"
)

// Buffer is a cursor over a fully-read token payload. All integers are
// little-endian and strings are UCS-2 encoded, as on the wire.
//
// Reads past the end of the payload return io.ErrUnexpectedEOF: a token
// whose declared length does not cover its fields is malformed.
type Buffer struct {
	b []byte
}

func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Len returns the number of unread bytes.
func (b *Buffer) Len() int {
	return len(b.b)
}

func (b *Buffer) take(n int) ([]byte, error) {
	if len(b.b) < n {
		return nil, io.ErrUnexpectedEOF
	}
	out := b.b[:n]
	b.b = b.b[n:]
	return out, nil
}

func (b *Buffer) Byte() (byte, error) {
	v, err := b.take(1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

func (b *Buffer) Uint16() (uint16, error) {
	v, err := b.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(v), nil
}

func (b *Buffer) Uint32() (uint32, error) {
	v, err := b.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

func (b *Buffer) Int32() (int32, error) {
	v, err := b.Uint32()
	return int32(v), err
}

func (b *Buffer) Uint64() (uint64, error) {
	v, err := b.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(v), nil
}

// Bytes consumes and returns the next n bytes. The returned slice
// aliases the payload and is only valid until the payload is recycled.
func (b *Buffer) Bytes(n int) ([]byte, error) {
	return b.take(n)
}

// BVarChar reads a B_VARCHAR field: a one-byte character count followed
// by that many UCS-2 characters.
func (b *Buffer) BVarChar() (string, error) {
	n, err := b.Byte()
	if err != nil {
		return "", err
	}
	return b.ucs2(int(n))
}

// USVarChar reads a US_VARCHAR field: a two-byte character count
// followed by that many UCS-2 characters.
func (b *Buffer) USVarChar() (string, error) {
	n, err := b.Uint16()
	if err != nil {
		return "", err
	}
	return b.ucs2(int(n))
}

func (b *Buffer) ucs2(chars int) (string, error) {
	raw, err := b.take(chars * 2)
	if err != nil {
		return "", err
	}
	return DecodeUCS2(raw), nil
}

// DecodeUCS2 converts a little-endian UCS-2 byte sequence to a string.
func DecodeUCS2(b []byte) string {
	u := make([]uint16, len(b)/2)
	for i := range u {
		u[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u))
}
