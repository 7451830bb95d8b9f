// Package token decodes the token stream a SQL Server sends back over
// the TDS protocol.
//
// A response is a sequence of typed, self-delimiting tokens (column
// metadata, rows, errors, environment changes, login acknowledgements,
// DONE markers, ...). Parse scans the stream, classifies each token by
// its wire code and defers processing to a Handler. A handler method may
// or may not consume its token, and its return value tells Parse whether
// to keep scanning. Parse calls the terminal OnEOF method when the
// stream is exhausted.
//
// TokenHandler provides a meaningful default for every token kind.
// Concrete handlers embed it and override only the kinds they care
// about:
//
//	type execHandler struct {
//	    token.TokenHandler
//	    rowCount uint64
//	}
//
//	func (h *execHandler) OnDone(r *token.Reader) (bool, error) {
//	    done, err := token.ReadDone(r)
//	    if err != nil {
//	        return false, err
//	    }
//	    h.rowCount += done.RowCount
//	    return true, nil
//	}
//
// Tokens a handler does not expect fail the parse immediately with a
// *ProtocolError naming the offending kind. Server ERROR tokens follow a
// first-wins policy: the first one is remembered and surfaced at end of
// stream, later ones are drained and discarded so the stream stays
// framed.
//
// The package performs no I/O of its own beyond the Reader primitives
// and no internal concurrency. One Parse call owns its reader and
// handler until it returns; reusing a handler across parses requires
// resetting its accumulated error state.
package token
