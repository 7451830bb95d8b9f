package token

import "fmt"

// Kind identifies a token by its TDS wire code.
//
// End of stream is not a Kind: Reader.PeekKind reports io.EOF when the
// underlying source is exhausted at a token boundary.
type Kind byte

// Token wire codes, per MS-TDS.
const (
	KindReturnStatus  Kind = 0x79
	KindColMetaData   Kind = 0x81
	KindTableName     Kind = 0xA4
	KindColInfo       Kind = 0xA5
	KindOrder         Kind = 0xA9
	KindError         Kind = 0xAA
	KindInfo          Kind = 0xAB
	KindReturnValue   Kind = 0xAC
	KindLoginAck      Kind = 0xAD
	KindFeatureExtAck Kind = 0xAE
	KindRow           Kind = 0xD1
	KindNbcRow        Kind = 0xD2
	KindEnvChange     Kind = 0xE3
	KindSSPI          Kind = 0xED
	KindFedAuthInfo   Kind = 0xEE
	KindDone          Kind = 0xFD
	KindDoneProc      Kind = 0xFE
	KindDoneInProc    Kind = 0xFF
)

var kindNames = map[Kind]string{
	KindReturnStatus:  "RETURNSTATUS",
	KindColMetaData:   "COLMETADATA",
	KindTableName:     "TABNAME",
	KindColInfo:       "COLINFO",
	KindOrder:         "ORDER",
	KindError:         "ERROR",
	KindInfo:          "INFO",
	KindReturnValue:   "RETURNVALUE",
	KindLoginAck:      "LOGINACK",
	KindFeatureExtAck: "FEATUREEXTACK",
	KindRow:           "ROW",
	KindNbcRow:        "NBCROW",
	KindEnvChange:     "ENVCHANGE",
	KindSSPI:          "SSPI",
	KindFedAuthInfo:   "FEDAUTHINFO",
	KindDone:          "DONE",
	KindDoneProc:      "DONEPROC",
	KindDoneInProc:    "DONEINPROC",
}

// Known reports whether k is a token code this package recognizes.
// Unknown codes are never dispatched to a handler: Parse fails fast on
// them.
func (k Kind) Known() bool {
	_, ok := kindNames[k]
	return ok
}

// String returns the protocol name of the token kind, or a hex rendering
// for codes outside the registry.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(0x%02X)", byte(k))
}
