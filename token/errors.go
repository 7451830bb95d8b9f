package token

import "fmt"

// ProtocolError reports a token the active handler did not expect, or a
// wire code outside the registry. It is fatal to the parse in progress.
type ProtocolError struct {
	Kind    Kind   // offending token kind
	Context string // diagnostic label of the handler that declined it
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("tds: %s: unexpected token %s", e.Context, e.Kind)
}

// SQLError is an error reported by the server through an ERROR token.
//
// A response may carry several ERROR tokens; only the first one is
// remembered and surfaced when the stream ends (see TokenHandler).
type SQLError struct {
	Number     int32
	State      uint8
	Class      uint8
	Message    string
	ServerName string
	ProcName   string
	LineNo     int32
}

func (e *SQLError) Error() string {
	return fmt.Sprintf("tds: server error %d (severity %d, state %d): %s",
		e.Number, e.Class, e.State, e.Message)
}
