package tds

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/pior/tds/internal/coarsetime"
	"github.com/pior/tds/token"
)

var (
	ErrConnClosed = errors.New("tds: connection closed")
)

// Feature-extension ids negotiated at login, per MS-TDS.
const (
	FeatureSessionRecovery    byte = 0x01
	FeatureFedAuth            byte = 0x02
	FeatureColumnEncryption   byte = 0x04
	FeatureGlobalTransactions byte = 0x05
	FeatureAzureSQLSupport    byte = 0x08
	FeatureDataClassification byte = 0x09
	FeatureUTF8Support        byte = 0x0A

	featureTerminator byte = 0xFF
)

// ENVCHANGE types this layer interprets.
const (
	envChangeDatabase   byte = 1
	envChangeLanguage   byte = 2
	envChangeCharset    byte = 3
	envChangePacketSize byte = 4
)

// FedAuthInfo holds the federated-authentication endpoints announced by
// the server through a FEDAUTHINFO token.
type FedAuthInfo struct {
	STSURL string
	SPN    string
}

// FedAuthInfo option ids.
const (
	fedAuthInfoSTSURL byte = 0x01
	fedAuthInfoSPN    byte = 0x02
)

// Conn is a single connection to a server. It owns the buffered reader
// the token parser consumes from and the session state that ENVCHANGE
// and FEATUREEXTACK tokens mutate.
type Conn struct {
	conn   net.Conn
	reader *bufio.Reader

	mu       sync.Mutex
	closed   bool
	lastUsed time.Time

	// session state, updated from the token stream
	database   string
	language   string
	packetSize int

	requested map[byte]bool
	acked     map[byte][]byte
	fedAuth   *FedAuthInfo
}

var _ token.Conn = (*Conn)(nil)

// NewConn wraps an established network connection.
func NewConn(netConn net.Conn) *Conn {
	return &Conn{
		conn:      netConn,
		reader:    bufio.NewReader(netConn),
		lastUsed:  coarsetime.Now(),
		requested: make(map[byte]bool),
		acked:     make(map[byte][]byte),
	}
}

// RequestFeature records that a feature extension was requested at
// login. ResolveMissingFeatureAck consults this when the server never
// acknowledges.
func (c *Conn) RequestFeature(id byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requested[id] = true
}

// FeatureAcked returns the acknowledgement data for a feature id, if the
// server acknowledged it.
func (c *Conn) FeatureAcked(id byte) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.acked[id]
	return data, ok
}

// Database returns the current database, as last reported by the server.
func (c *Conn) Database() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.database
}

// Language returns the current language setting.
func (c *Conn) Language() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.language
}

// PacketSize returns the negotiated packet size, or 0 before the server
// announced one.
func (c *Conn) PacketSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.packetSize
}

// FedAuthInfo returns the endpoints from the last FEDAUTHINFO token, or
// nil.
func (c *Conn) FedAuthInfo() *FedAuthInfo {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fedAuth
}

// LastUsed returns when the connection last finished a response.
func (c *Conn) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

// IsClosed returns whether the connection is closed.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close closes the connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Conn) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// ProcessResponse parses one response token stream with the given
// handler. The read deadline is taken from ctx. On any failure other
// than a server error surfaced at end of stream, the connection is
// considered out of sync and marked closed.
func (c *Conn) ProcessResponse(ctx context.Context, cmd *Command, h token.Handler) error {
	if c.IsClosed() {
		return ErrConnClosed
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(deadline)
	} else {
		c.conn.SetReadDeadline(time.Time{})
	}

	err := token.Parse(ctx, token.NewReader(c.reader, c, cmd), h)
	if err != nil {
		var sqlErr *token.SQLError
		if !errors.As(err, &sqlErr) {
			c.markClosed()
		}
		return err
	}

	c.mu.Lock()
	c.lastUsed = coarsetime.Now()
	c.mu.Unlock()
	return nil
}

// ProcessEnvChange consumes an ENVCHANGE token and updates the session
// state for the change types this layer tracks. Other types are drained
// and ignored.
func (c *Conn) ProcessEnvChange(r *token.Reader) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	length, err := r.ReadUint16()
	if err != nil {
		return err
	}
	body, err := r.ReadBytes(int(length))
	if err != nil {
		return err
	}

	buf := token.NewBuffer(body)
	envType, err := buf.Byte()
	if err != nil {
		return err
	}

	switch envType {
	case envChangeDatabase, envChangeLanguage, envChangeCharset, envChangePacketSize:
		newValue, err := buf.BVarChar()
		if err != nil {
			return err
		}
		// old value follows; the session only needs the new one
		c.applyEnvChange(envType, newValue)
	default:
		// the body is already fully consumed
	}
	return nil
}

func (c *Conn) applyEnvChange(envType byte, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch envType {
	case envChangeDatabase:
		c.database = value
	case envChangeLanguage:
		c.language = value
	case envChangePacketSize:
		if size, err := parsePacketSize(value); err == nil {
			c.packetSize = size
		}
	}
}

func parsePacketSize(value string) (int, error) {
	var size int
	if _, err := fmt.Sscanf(value, "%d", &size); err != nil {
		return 0, err
	}
	return size, nil
}

// ProcessFeatureExtAck consumes a FEATUREEXTACK token: feature-id /
// length / data records up to the terminator. Acknowledgements are
// recorded for FeatureAcked.
func (c *Conn) ProcessFeatureExtAck(r *token.Reader) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	for {
		id, err := r.ReadByte()
		if err != nil {
			return err
		}
		if id == featureTerminator {
			return nil
		}
		length, err := r.ReadUint32()
		if err != nil {
			return err
		}
		data, err := r.ReadBytes(int(length))
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.acked[id] = data
		c.mu.Unlock()
	}
}

// ProcessFedAuthInfo consumes a FEDAUTHINFO token and records the STS
// URL and SPN the server announced. The handler is accepted as callback
// context per the token.Conn contract; this implementation does not need
// it.
func (c *Conn) ProcessFedAuthInfo(r *token.Reader, h token.Handler) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return err
	}
	body, err := r.ReadBytes(int(length))
	if err != nil {
		return err
	}

	buf := token.NewBuffer(body)
	count, err := buf.Uint32()
	if err != nil {
		return err
	}

	info := &FedAuthInfo{}
	for i := uint32(0); i < count; i++ {
		id, err := buf.Byte()
		if err != nil {
			return err
		}
		dataLen, err := buf.Uint32()
		if err != nil {
			return err
		}
		offset, err := buf.Uint32()
		if err != nil {
			return err
		}

		// offsets are relative to the start of the token body
		end := int(offset) + int(dataLen)
		if int(offset) > len(body) || end > len(body) || end < int(offset) {
			return fmt.Errorf("tds: fedauthinfo option 0x%02X out of bounds", id)
		}
		value := token.DecodeUCS2(body[offset:end])

		switch id {
		case fedAuthInfoSTSURL:
			info.STSURL = value
		case fedAuthInfoSPN:
			info.SPN = value
		}
	}

	c.mu.Lock()
	c.fedAuth = info
	c.mu.Unlock()
	return nil
}

// ResolveMissingFeatureAck runs after a response that carried a login
// acknowledgement but no feature acknowledgement. Column encryption must
// be acknowledged when requested; other features tolerate silence.
func (c *Conn) ResolveMissingFeatureAck(r *token.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.requested[FeatureColumnEncryption] {
		return errors.New("tds: column encryption was requested but not acknowledged by the server")
	}
	return nil
}
