package token

// Handler reacts to each token kind in a response stream. Every method
// except OnEOF returns whether parsing should continue; returning false
// with a nil error stops the scan without failing it.
//
// Parse never routes FEATUREEXTACK through a Handler: that kind is
// interpreted by the connection collaborator unconditionally.
type Handler interface {
	// LogContext labels diagnostics emitted while parsing with this
	// handler.
	LogContext() string

	OnSSPI(r *Reader) (bool, error)
	OnLoginAck(r *Reader) (bool, error)
	OnEnvChange(r *Reader) (bool, error)
	OnReturnStatus(r *Reader) (bool, error)
	OnReturnValue(r *Reader) (bool, error)
	OnDone(r *Reader) (bool, error)
	OnError(r *Reader) (bool, error)
	OnInfo(r *Reader) (bool, error)
	OnOrder(r *Reader) (bool, error)
	OnColMetaData(r *Reader) (bool, error)
	OnRow(r *Reader) (bool, error)
	OnNbcRow(r *Reader) (bool, error)
	OnColInfo(r *Reader) (bool, error)
	OnTableName(r *Reader) (bool, error)
	OnFedAuthInfo(r *Reader) (bool, error)

	// OnEOF runs when the stream ends. A non-nil error fails the parse;
	// there is no continue decision to make.
	OnEOF(r *Reader) error
}

// TokenHandler is the default Handler. Concrete handlers embed it and
// override the kinds they specialize.
//
// Defaults:
//
//   - ENVCHANGE is delegated to the connection collaborator.
//   - RETURNSTATUS and the DONE family are decoded and discarded.
//   - ERROR is remembered first-wins and surfaced at end of stream.
//   - INFO, ORDER, COLINFO and TABNAME are skipped.
//   - FEDAUTHINFO is delegated to the connection collaborator.
//   - Everything else is unexpected and fails the parse.
//
// A TokenHandler accumulates at most one SQLError per parse; it is not
// safe for concurrent use and should not be shared between parses
// without calling Reset.
type TokenHandler struct {
	logContext string
	sqlError   *SQLError
}

var _ Handler = (*TokenHandler)(nil)

func NewTokenHandler(logContext string) *TokenHandler {
	return &TokenHandler{logContext: logContext}
}

func (h *TokenHandler) LogContext() string {
	return h.logContext
}

// SQLError returns the first server error seen during the parse, or nil.
func (h *TokenHandler) SQLError() *SQLError {
	return h.sqlError
}

// Reset clears the remembered server error so the handler can serve
// another parse.
func (h *TokenHandler) Reset() {
	h.sqlError = nil
}

func (h *TokenHandler) OnSSPI(r *Reader) (bool, error) {
	return false, UnexpectedToken(r, h.logContext)
}

func (h *TokenHandler) OnLoginAck(r *Reader) (bool, error) {
	return false, UnexpectedToken(r, h.logContext)
}

func (h *TokenHandler) OnEnvChange(r *Reader) (bool, error) {
	if err := r.Conn().ProcessEnvChange(r); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnReturnStatus(r *Reader) (bool, error) {
	if _, err := ReadReturnStatus(r); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnReturnValue(r *Reader) (bool, error) {
	return false, UnexpectedToken(r, h.logContext)
}

func (h *TokenHandler) OnDone(r *Reader) (bool, error) {
	if _, err := ReadDone(r); err != nil {
		return false, err
	}
	return true, nil
}

// OnError decodes the server error. The first one is remembered for
// OnEOF; later ones are decoded only to keep the stream framed.
func (h *TokenHandler) OnError(r *Reader) (bool, error) {
	e, err := ReadSQLError(r)
	if err != nil {
		return false, err
	}
	if h.sqlError == nil {
		h.sqlError = e
	}
	return true, nil
}

func (h *TokenHandler) OnInfo(r *Reader) (bool, error) {
	if err := SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnOrder(r *Reader) (bool, error) {
	if err := SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnColMetaData(r *Reader) (bool, error) {
	return false, UnexpectedToken(r, h.logContext)
}

func (h *TokenHandler) OnRow(r *Reader) (bool, error) {
	return false, UnexpectedToken(r, h.logContext)
}

func (h *TokenHandler) OnNbcRow(r *Reader) (bool, error) {
	return false, UnexpectedToken(r, h.logContext)
}

func (h *TokenHandler) OnColInfo(r *Reader) (bool, error) {
	if err := SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnTableName(r *Reader) (bool, error) {
	if err := SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnFedAuthInfo(r *Reader) (bool, error) {
	if err := r.Conn().ProcessFedAuthInfo(r, h); err != nil {
		return false, err
	}
	return true, nil
}

func (h *TokenHandler) OnEOF(r *Reader) error {
	if h.sqlError != nil {
		return h.sqlError
	}
	return nil
}
