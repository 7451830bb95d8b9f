package token

// DONE status flags, per MS-TDS.
const (
	doneMoreResults uint16 = 0x0001
	doneError       uint16 = 0x0002
	doneCountValid  uint16 = 0x0010
	doneAttention   uint16 = 0x0020
	doneSrvError    uint16 = 0x0100
)

// Done is the decoded body of a DONE, DONEPROC or DONEINPROC token.
type Done struct {
	Status   uint16
	CurCmd   uint16
	RowCount uint64
}

// More reports whether further result sets follow in the same response.
func (d Done) More() bool {
	return d.Status&doneMoreResults != 0
}

// Errored reports whether the statement completed with an error.
func (d Done) Errored() bool {
	return d.Status&(doneError|doneSrvError) != 0
}

// Attention reports whether the statement was cancelled by an attention
// signal.
func (d Done) Attention() bool {
	return d.Status&doneAttention != 0
}

// CountValid reports whether RowCount carries a meaningful value.
func (d Done) CountValid() bool {
	return d.Status&doneCountValid != 0
}

// ReadDone consumes a DONE-family token (TDS 7.2+ layout: status,
// current command, 8-byte row count).
func ReadDone(r *Reader) (Done, error) {
	var d Done
	var err error
	if _, err = r.ReadByte(); err != nil {
		return d, err
	}
	if d.Status, err = r.ReadUint16(); err != nil {
		return d, err
	}
	if d.CurCmd, err = r.ReadUint16(); err != nil {
		return d, err
	}
	if d.RowCount, err = r.ReadUint64(); err != nil {
		return d, err
	}
	return d, nil
}

// ReadReturnStatus consumes a RETURNSTATUS token and returns the stored
// procedure status value.
func ReadReturnStatus(r *Reader) (int32, error) {
	if _, err := r.ReadByte(); err != nil {
		return 0, err
	}
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadSQLError consumes an ERROR or INFO token and decodes its fields.
// The whole declared body is consumed even when trailing fields are
// unused, so the stream stays framed for the next token.
func ReadSQLError(r *Reader) (*SQLError, error) {
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

	buf := NewBuffer(body)
	e := &SQLError{}
	if e.Number, err = buf.Int32(); err != nil {
		return nil, err
	}
	if e.State, err = buf.Byte(); err != nil {
		return nil, err
	}
	if e.Class, err = buf.Byte(); err != nil {
		return nil, err
	}
	if e.Message, err = buf.USVarChar(); err != nil {
		return nil, err
	}
	if e.ServerName, err = buf.BVarChar(); err != nil {
		return nil, err
	}
	if e.ProcName, err = buf.BVarChar(); err != nil {
		return nil, err
	}
	if e.LineNo, err = buf.Int32(); err != nil {
		return nil, err
	}
	return e, nil
}

// SkipLengthPrefixed consumes a token with the generic layout of a
// two-byte length field followed by that many payload bytes, discarding
// the payload. INFO, ORDER, COLINFO and TABNAME use this layout.
func SkipLengthPrefixed(r *Reader) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	length, err := r.ReadUint16()
	if err != nil {
		return err
	}
	return r.Skip(int(length))
}
