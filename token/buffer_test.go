package token

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferIntegers(t *testing.T) {
	buf := NewBuffer([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E, 0x0F,
	})

	b, err := buf.Byte()
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), b)

	u16, err := buf.Uint16()
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0302), u16)

	u32, err := buf.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(0x07060504), u32)

	u64, err := buf.Uint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0F0E0D0C0B0A0908), u64)

	assert.Equal(t, 0, buf.Len())
}

func TestBufferInt32(t *testing.T) {
	buf := NewBuffer([]byte{0xFF, 0xFF, 0xFF, 0xFF})

	v, err := buf.Int32()

	require.NoError(t, err)
	assert.Equal(t, int32(-1), v)
}

func TestBufferVarChars(t *testing.T) {
	var b []byte
	b = append(b, bVarChar("master")...)
	b = append(b, usVarChar("héllo wörld")...)
	buf := NewBuffer(b)

	short, err := buf.BVarChar()
	require.NoError(t, err)
	assert.Equal(t, "master", short)

	long, err := buf.USVarChar()
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", long)
}

func TestBufferTruncation(t *testing.T) {
	buf := NewBuffer([]byte{0x01})

	_, err := buf.Uint16()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// declared five characters, no data behind them
	buf = NewBuffer([]byte{0x05})
	_, err = buf.BVarChar()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDecodeUCS2(t *testing.T) {
	assert.Equal(t, "ab", DecodeUCS2([]byte{0x61, 0x00, 0x62, 0x00}))
	assert.Equal(t, "", DecodeUCS2(nil))
}
