package tds

import (
	"encoding/binary"
	"fmt"

	"github.com/pior/tds/token"
)

// ExecHandler processes the response of a request that returns no rows:
// DONE row counts are accumulated and the stored procedure return status
// is captured. Everything else keeps the default policy.
type ExecHandler struct {
	token.TokenHandler

	RowCount     uint64
	ReturnStatus int32
	HasStatus    bool
}

func NewExecHandler(logContext string) *ExecHandler {
	return &ExecHandler{TokenHandler: *token.NewTokenHandler(logContext)}
}

func (h *ExecHandler) OnDone(r *token.Reader) (bool, error) {
	done, err := token.ReadDone(r)
	if err != nil {
		return false, err
	}
	if done.CountValid() {
		h.RowCount += done.RowCount
	}
	return true, nil
}

func (h *ExecHandler) OnReturnStatus(r *token.Reader) (bool, error) {
	status, err := token.ReadReturnStatus(r)
	if err != nil {
		return false, err
	}
	h.ReturnStatus = status
	h.HasStatus = true
	return true, nil
}

// LoginAck is the decoded body of a LOGINACK token.
type LoginAck struct {
	Interface    byte
	TDSVersion   uint32
	ProgName     string
	MajorVersion byte
	MinorVersion byte
	BuildNumber  uint16
}

// ServerVersion renders the server version in the usual dotted form.
func (a LoginAck) ServerVersion() string {
	return fmt.Sprintf("%d.%d.%d", a.MajorVersion, a.MinorVersion, a.BuildNumber)
}

// LoginHandler processes a login response, where a LOGINACK token is
// expected rather than a protocol violation.
type LoginHandler struct {
	token.TokenHandler

	Ack *LoginAck
}

func NewLoginHandler(logContext string) *LoginHandler {
	return &LoginHandler{TokenHandler: *token.NewTokenHandler(logContext)}
}

func (h *LoginHandler) OnLoginAck(r *token.Reader) (bool, error) {
	ack, err := readLoginAck(r)
	if err != nil {
		return false, err
	}
	h.Ack = ack
	return true, nil
}

func readLoginAck(r *token.Reader) (*LoginAck, error) {
	if _, err := r.ReadByte(); err != nil {
		return nil, err
	}
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	body, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}

	buf := token.NewBuffer(body)
	ack := &LoginAck{}
	if ack.Interface, err = buf.Byte(); err != nil {
		return nil, err
	}
	// the TDS version in LOGINACK is the one field sent big-endian
	ver, err := buf.Bytes(4)
	if err != nil {
		return nil, err
	}
	ack.TDSVersion = binary.BigEndian.Uint32(ver)
	if ack.ProgName, err = buf.BVarChar(); err != nil {
		return nil, err
	}
	if ack.MajorVersion, err = buf.Byte(); err != nil {
		return nil, err
	}
	if ack.MinorVersion, err = buf.Byte(); err != nil {
		return nil, err
	}
	hi, err := buf.Byte()
	if err != nil {
		return nil, err
	}
	lo, err := buf.Byte()
	if err != nil {
		return nil, err
	}
	ack.BuildNumber = uint16(hi)<<8 | uint16(lo)
	return ack, nil
}
