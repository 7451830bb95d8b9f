package token

import (
	"bufio"
	"encoding/binary"
	"io"

	"github.com/pior/tds/internal"
)

// Conn is the connection-side collaborator a Reader exposes to the
// parser. It interprets the tokens that mutate session state and owns
// the feature-extension handshake.
type Conn interface {
	// ProcessEnvChange consumes an ENVCHANGE token and applies it to
	// the session.
	ProcessEnvChange(r *Reader) error

	// ProcessFeatureExtAck consumes a FEATUREEXTACK token. Parse routes
	// this kind here directly, bypassing the handler.
	ProcessFeatureExtAck(r *Reader) error

	// ProcessFedAuthInfo consumes a FEDAUTHINFO token. The handler is
	// passed as callback context for any follow-up the connection
	// needs.
	ProcessFedAuthInfo(r *Reader, h Handler) error

	// ResolveMissingFeatureAck runs when a login acknowledgement was
	// seen but no feature acknowledgement followed by end of stream.
	// It fails when a requested feature cannot be left unacknowledged.
	ResolveMissingFeatureAck(r *Reader) error
}

// Command is the command-side collaborator: the logical request whose
// response is being parsed.
type Command interface {
	// CheckForInterrupt returns a non-nil error when the command was
	// cancelled. Parse calls it before handling any DONE-family token.
	CheckForInterrupt() error

	// OnTokenStreamEnd is a notification that the response stream
	// ended. Its outcome is not consumed by the parser.
	OnTokenStreamEnd()
}

const skipChunkSize = 512

var skipChunks = internal.NewChunkPool(skipChunkSize)

// Reader supplies tokens to Parse: one-token-of-lookahead
// classification plus raw consuming reads. Read failures (short reads,
// I/O errors) propagate to the caller unchanged.
type Reader struct {
	rd      *bufio.Reader
	conn    Conn
	cmd     Command
	scratch [8]byte
}

func NewReader(rd *bufio.Reader, conn Conn, cmd Command) *Reader {
	return &Reader{rd: rd, conn: conn, cmd: cmd}
}

// Conn returns the connection collaborator.
func (r *Reader) Conn() Conn {
	return r.conn
}

// Command returns the command collaborator.
func (r *Reader) Command() Command {
	return r.cmd
}

// PeekKind classifies the next token without consuming it. It returns
// io.EOF when the source is exhausted at a token boundary.
func (r *Reader) PeekKind() (Kind, error) {
	b, err := r.rd.Peek(1)
	if err != nil {
		return 0, err
	}
	return Kind(b[0]), nil
}

// ReadByte consumes one byte.
func (r *Reader) ReadByte() (byte, error) {
	return r.rd.ReadByte()
}

// ReadUint16 consumes a little-endian two-byte integer.
func (r *Reader) ReadUint16() (uint16, error) {
	if _, err := io.ReadFull(r.rd, r.scratch[:2]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(r.scratch[:2]), nil
}

// ReadUint32 consumes a little-endian four-byte integer.
func (r *Reader) ReadUint32() (uint32, error) {
	if _, err := io.ReadFull(r.rd, r.scratch[:4]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(r.scratch[:4]), nil
}

// ReadUint64 consumes a little-endian eight-byte integer.
func (r *Reader) ReadUint64() (uint64, error) {
	if _, err := io.ReadFull(r.rd, r.scratch[:8]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(r.scratch[:8]), nil
}

// ReadBytes consumes exactly n bytes and returns them in a fresh slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.rd, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Skip consumes and discards exactly n bytes.
func (r *Reader) Skip(n int) error {
	chunk := skipChunks.Get()
	defer skipChunks.Put(chunk)

	for n > 0 {
		step := min(n, len(chunk))
		if _, err := io.ReadFull(r.rd, chunk[:step]); err != nil {
			return err
		}
		n -= step
	}
	return nil
}
