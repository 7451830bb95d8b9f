package token

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/pior/tds/internal/log"
)

// Parse scans the token stream supplied by r, dispatching each token to
// h until the stream ends or a handler stops the scan. It returns the
// first failure: a *ProtocolError for unexpected tokens, a *SQLError
// surfaced at end of stream, an interrupt raised by the command
// collaborator at a DONE-family token, or a transport error from the
// reader, propagated unchanged.
//
// One Parse call processes exactly one response stream and must not be
// interleaved with another call sharing the same reader. ctx is used for
// diagnostics only; cancellation is observed cooperatively through the
// command collaborator.
func Parse(ctx context.Context, r *Reader, h Handler) error {
	debugging := log.Enabled(ctx, slog.LevelDebug)

	// A LOGINACK obligates a later FEATUREEXTACK; resolved after the
	// loop when the obligation was not met.
	var loginAckSeen, featureAckSeen bool

	parsing := true
	for parsing {
		kind, err := r.PeekKind()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				return err
			}
			if debugging {
				log.Debugf(ctx, "%s: processing EOF", h.LogContext())
			}
			r.Command().OnTokenStreamEnd()
			if err := h.OnEOF(r); err != nil {
				return err
			}
			break
		}

		if debugging {
			log.Debugf(ctx, "%s: processing %s", h.LogContext(), kind)
		}

		switch kind {
		case KindSSPI:
			parsing, err = h.OnSSPI(r)
		case KindLoginAck:
			loginAckSeen = true
			parsing, err = h.OnLoginAck(r)
		case KindFeatureExtAck:
			// Not overridable: the connection owns feature-extension
			// interpretation regardless of the active handler.
			featureAckSeen = true
			err = r.Conn().ProcessFeatureExtAck(r)
		case KindEnvChange:
			parsing, err = h.OnEnvChange(r)
		case KindReturnStatus:
			parsing, err = h.OnReturnStatus(r)
		case KindReturnValue:
			parsing, err = h.OnReturnValue(r)
		case KindDone, KindDoneProc, KindDoneInProc:
			if err = r.Command().CheckForInterrupt(); err != nil {
				return err
			}
			parsing, err = h.OnDone(r)
		case KindError:
			parsing, err = h.OnError(r)
		case KindInfo:
			parsing, err = h.OnInfo(r)
		case KindOrder:
			parsing, err = h.OnOrder(r)
		case KindColMetaData:
			parsing, err = h.OnColMetaData(r)
		case KindRow:
			parsing, err = h.OnRow(r)
		case KindNbcRow:
			parsing, err = h.OnNbcRow(r)
		case KindColInfo:
			parsing, err = h.OnColInfo(r)
		case KindTableName:
			parsing, err = h.OnTableName(r)
		case KindFedAuthInfo:
			parsing, err = h.OnFedAuthInfo(r)
		default:
			return UnexpectedToken(r, h.LogContext())
		}
		if err != nil {
			return err
		}
	}

	if loginAckSeen && !featureAckSeen {
		return r.Conn().ResolveMissingFeatureAck(r)
	}
	return nil
}

// UnexpectedToken builds the failure for a token the active handler does
// not support, naming the offending kind. Default handler methods use it
// for every kind they decline.
func UnexpectedToken(r *Reader, logContext string) error {
	kind, err := r.PeekKind()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if log.Enabled(ctx, slog.LevelError) {
		log.Errorf(ctx, "%s: encountered unexpected %s", logContext, kind)
	}
	return &ProtocolError{Kind: kind, Context: logContext}
}
