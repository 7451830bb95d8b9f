package testutils

import (
	"bytes"
	"net"
	"time"
)

// ConnectionMock is a mock net.Conn serving a scripted server response.
// Reads drain the pre-loaded bytes and then report EOF, which the token
// reader classifies as end of stream.
type ConnectionMock struct {
	readBuf  *bytes.Buffer
	writeBuf *bytes.Buffer
	closed   bool
}

// NewConnectionMock creates a mock connection pre-loaded with the given
// response chunks.
func NewConnectionMock(responseData ...[]byte) *ConnectionMock {
	readBuf := &bytes.Buffer{}
	for _, chunk := range responseData {
		readBuf.Write(chunk)
	}
	return &ConnectionMock{
		readBuf:  readBuf,
		writeBuf: &bytes.Buffer{},
	}
}

func (m *ConnectionMock) Read(b []byte) (n int, err error) {
	return m.readBuf.Read(b)
}

func (m *ConnectionMock) Write(b []byte) (n int, err error) {
	return m.writeBuf.Write(b)
}

func (m *ConnectionMock) Close() error {
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *ConnectionMock) Closed() bool {
	return m.closed
}

func (m *ConnectionMock) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0}
}

func (m *ConnectionMock) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1433}
}

func (m *ConnectionMock) SetDeadline(t time.Time) error      { return nil }
func (m *ConnectionMock) SetReadDeadline(t time.Time) error  { return nil }
func (m *ConnectionMock) SetWriteDeadline(t time.Time) error { return nil }

// WrittenRequest returns the raw bytes written to the mock connection.
func (m *ConnectionMock) WrittenRequest() []byte {
	return m.writeBuf.Bytes()
}
