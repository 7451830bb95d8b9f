package token

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"unicode/utf16"
)

// fakeConn records collaborator calls and consumes the tokens routed to
// it so the stream stays framed.
type fakeConn struct {
	envChanges  int
	featureAcks map[byte][]byte
	fedAuthInfo int
	resolves    int
	resolveErr  error
}

func newFakeConn() *fakeConn {
	return &fakeConn{featureAcks: make(map[byte][]byte)}
}

func (c *fakeConn) ProcessEnvChange(r *Reader) error {
	if err := SkipLengthPrefixed(r); err != nil {
		return err
	}
	c.envChanges++
	return nil
}

func (c *fakeConn) ProcessFeatureExtAck(r *Reader) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	for {
		id, err := r.ReadByte()
		if err != nil {
			return err
		}
		if id == 0xFF {
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
		c.featureAcks[id] = data
	}
}

func (c *fakeConn) ProcessFedAuthInfo(r *Reader, h Handler) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	length, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if err := r.Skip(int(length)); err != nil {
		return err
	}
	c.fedAuthInfo++
	return nil
}

func (c *fakeConn) ResolveMissingFeatureAck(r *Reader) error {
	c.resolves++
	return c.resolveErr
}

type fakeCommand struct {
	interruptErr error
	streamEnded  bool
}

func (c *fakeCommand) CheckForInterrupt() error {
	return c.interruptErr
}

func (c *fakeCommand) OnTokenStreamEnd() {
	c.streamEnded = true
}

func newTestReader(conn Conn, cmd Command, chunks ...[]byte) *Reader {
	var buf bytes.Buffer
	for _, chunk := range chunks {
		buf.Write(chunk)
	}
	return NewReader(bufio.NewReader(&buf), conn, cmd)
}

// stream builders

func encodeUCS2(s string) []byte {
	u := utf16.Encode([]rune(s))
	b := make([]byte, len(u)*2)
	for i, c := range u {
		binary.LittleEndian.PutUint16(b[i*2:], c)
	}
	return b
}

func bVarChar(s string) []byte {
	out := []byte{byte(len([]rune(s)))}
	return append(out, encodeUCS2(s)...)
}

func usVarChar(s string) []byte {
	out := binary.LittleEndian.AppendUint16(nil, uint16(len([]rune(s))))
	return append(out, encodeUCS2(s)...)
}

// lengthPrefixed frames payload as kind + uint16 length + payload.
func lengthPrefixed(kind Kind, payload []byte) []byte {
	out := []byte{byte(kind)}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(payload)))
	return append(out, payload...)
}

func envChangeToken(envType byte, newValue, oldValue string) []byte {
	var payload []byte
	payload = append(payload, envType)
	payload = append(payload, bVarChar(newValue)...)
	payload = append(payload, bVarChar(oldValue)...)
	return lengthPrefixed(KindEnvChange, payload)
}

func doneToken(kind Kind, status uint16, rowCount uint64) []byte {
	out := []byte{byte(kind)}
	out = binary.LittleEndian.AppendUint16(out, status)
	out = binary.LittleEndian.AppendUint16(out, 0) // current command
	return binary.LittleEndian.AppendUint64(out, rowCount)
}

func errorToken(number int32, state, class byte, msg, server, proc string, line int32) []byte {
	var payload []byte
	payload = binary.LittleEndian.AppendUint32(payload, uint32(number))
	payload = append(payload, state, class)
	payload = append(payload, usVarChar(msg)...)
	payload = append(payload, bVarChar(server)...)
	payload = append(payload, bVarChar(proc)...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(line))
	return lengthPrefixed(KindError, payload)
}

func returnStatusToken(value int32) []byte {
	out := []byte{byte(KindReturnStatus)}
	return binary.LittleEndian.AppendUint32(out, uint32(value))
}

func loginAckToken() []byte {
	var payload []byte
	payload = append(payload, 1)                      // interface
	payload = append(payload, 0x74, 0x00, 0x00, 0x04) // TDS 7.4
	payload = append(payload, bVarChar("Microsoft SQL Server")...)
	payload = append(payload, 16, 0, 0x0F, 0xA1) // version 16.0.4001
	return lengthPrefixed(KindLoginAck, payload)
}

func featureExtAckToken(ids ...byte) []byte {
	out := []byte{byte(KindFeatureExtAck)}
	for _, id := range ids {
		out = append(out, id)
		out = binary.LittleEndian.AppendUint32(out, 1)
		out = append(out, 0x01)
	}
	return append(out, 0xFF)
}
