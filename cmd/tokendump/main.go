// tokendump prints the tokens of a captured TDS response stream.
//
// Usage:
//
//	tokendump [-v] FILE
//
// FILE holds the raw token bytes of one response (no packet headers).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/pior/tds/token"
)

func main() {
	verbose := flag.Bool("v", false, "log each token as it is classified")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: tokendump [-v] FILE")
		os.Exit(2)
	}

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	r := token.NewReader(bufio.NewReader(f), &dumpConn{}, &dumpCommand{})
	h := &dumpHandler{TokenHandler: *token.NewTokenHandler("tokendump")}

	if err := token.Parse(context.Background(), r, h); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// dumpHandler prints a summary line per token and keeps scanning where
// the default policy would fail fast on login-time tokens.
type dumpHandler struct {
	token.TokenHandler
}

func (h *dumpHandler) OnDone(r *token.Reader) (bool, error) {
	done, err := token.ReadDone(r)
	if err != nil {
		return false, err
	}
	fmt.Printf("DONE status=0x%04X rows=%d more=%v\n", done.Status, done.RowCount, done.More())
	return true, nil
}

func (h *dumpHandler) OnError(r *token.Reader) (bool, error) {
	e, err := token.ReadSQLError(r)
	if err != nil {
		return false, err
	}
	fmt.Printf("ERROR number=%d severity=%d state=%d message=%q\n", e.Number, e.Class, e.State, e.Message)
	return true, nil
}

func (h *dumpHandler) OnInfo(r *token.Reader) (bool, error) {
	e, err := token.ReadSQLError(r)
	if err != nil {
		return false, err
	}
	fmt.Printf("INFO number=%d message=%q\n", e.Number, e.Message)
	return true, nil
}

func (h *dumpHandler) OnReturnStatus(r *token.Reader) (bool, error) {
	status, err := token.ReadReturnStatus(r)
	if err != nil {
		return false, err
	}
	fmt.Printf("RETURNSTATUS value=%d\n", status)
	return true, nil
}

func (h *dumpHandler) OnLoginAck(r *token.Reader) (bool, error) {
	if err := token.SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	fmt.Println("LOGINACK")
	return true, nil
}

func (h *dumpHandler) OnSSPI(r *token.Reader) (bool, error) {
	if err := token.SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	fmt.Println("SSPI")
	return true, nil
}

func (h *dumpHandler) OnOrder(r *token.Reader) (bool, error) {
	if err := token.SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	fmt.Println("ORDER")
	return true, nil
}

func (h *dumpHandler) OnColInfo(r *token.Reader) (bool, error) {
	if err := token.SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	fmt.Println("COLINFO")
	return true, nil
}

func (h *dumpHandler) OnTableName(r *token.Reader) (bool, error) {
	if err := token.SkipLengthPrefixed(r); err != nil {
		return false, err
	}
	fmt.Println("TABNAME")
	return true, nil
}

func (h *dumpHandler) OnEOF(r *token.Reader) error {
	// errors were already printed, do not fail the dump on them
	return nil
}

// dumpConn consumes connection-bound tokens and prints them instead of
// mutating session state.
type dumpConn struct{}

func (c *dumpConn) ProcessEnvChange(r *token.Reader) error {
	if err := token.SkipLengthPrefixed(r); err != nil {
		return err
	}
	fmt.Println("ENVCHANGE")
	return nil
}

func (c *dumpConn) ProcessFeatureExtAck(r *token.Reader) error {
	if _, err := r.ReadByte(); err != nil {
		return err
	}
	fmt.Println("FEATUREEXTACK")
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
		if err := r.Skip(int(length)); err != nil {
			return err
		}
		fmt.Printf("  feature 0x%02X acked (%d bytes)\n", id, length)
	}
}

func (c *dumpConn) ProcessFedAuthInfo(r *token.Reader, h token.Handler) error {
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
	fmt.Println("FEDAUTHINFO")
	return nil
}

func (c *dumpConn) ResolveMissingFeatureAck(r *token.Reader) error {
	return nil
}

type dumpCommand struct{}

func (c *dumpCommand) CheckForInterrupt() error { return nil }

func (c *dumpCommand) OnTokenStreamEnd() {
	fmt.Println("EOF")
}
