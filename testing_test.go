package tds

import (
	"encoding/binary"
	"time"
	"unicode/utf16"

	"github.com/pior/tds/token"
)

const (
	waitTimeout = 2 * time.Second
	waitTick    = 5 * time.Millisecond
)

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

func lengthPrefixed(kind token.Kind, payload []byte) []byte {
	out := []byte{byte(kind)}
	out = binary.LittleEndian.AppendUint16(out, uint16(len(payload)))
	return append(out, payload...)
}

func envChangeBytes(envType byte, newValue, oldValue string) []byte {
	var payload []byte
	payload = append(payload, envType)
	payload = append(payload, bVarChar(newValue)...)
	payload = append(payload, bVarChar(oldValue)...)
	return lengthPrefixed(token.KindEnvChange, payload)
}

func doneBytes(kind token.Kind, status uint16, rowCount uint64) []byte {
	out := []byte{byte(kind)}
	out = binary.LittleEndian.AppendUint16(out, status)
	out = binary.LittleEndian.AppendUint16(out, 0)
	return binary.LittleEndian.AppendUint64(out, rowCount)
}

func errorBytes(number int32, state, class byte, msg string) []byte {
	var payload []byte
	payload = binary.LittleEndian.AppendUint32(payload, uint32(number))
	payload = append(payload, state, class)
	payload = append(payload, usVarChar(msg)...)
	payload = append(payload, bVarChar("srv")...)
	payload = append(payload, bVarChar("")...)
	payload = binary.LittleEndian.AppendUint32(payload, 1)
	return lengthPrefixed(token.KindError, payload)
}

func returnStatusBytes(value int32) []byte {
	out := []byte{byte(token.KindReturnStatus)}
	return binary.LittleEndian.AppendUint32(out, uint32(value))
}

func loginAckBytes() []byte {
	var payload []byte
	payload = append(payload, 1)
	payload = append(payload, 0x74, 0x00, 0x00, 0x04)
	payload = append(payload, bVarChar("Microsoft SQL Server")...)
	payload = append(payload, 16, 0, 0x0F, 0xA1)
	return lengthPrefixed(token.KindLoginAck, payload)
}

func featureExtAckBytes(features map[byte][]byte) []byte {
	out := []byte{byte(token.KindFeatureExtAck)}
	for id, data := range features {
		out = append(out, id)
		out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
		out = append(out, data...)
	}
	return append(out, 0xFF)
}

func fedAuthInfoBytes(stsURL, spn string) []byte {
	urlData := encodeUCS2(stsURL)
	spnData := encodeUCS2(spn)

	// two options of 9 bytes each, after the 4-byte count
	urlOffset := 4 + 2*9
	spnOffset := urlOffset + len(urlData)

	var body []byte
	body = binary.LittleEndian.AppendUint32(body, 2)

	body = append(body, 0x01) // STSURL
	body = binary.LittleEndian.AppendUint32(body, uint32(len(urlData)))
	body = binary.LittleEndian.AppendUint32(body, uint32(urlOffset))

	body = append(body, 0x02) // SPN
	body = binary.LittleEndian.AppendUint32(body, uint32(len(spnData)))
	body = binary.LittleEndian.AppendUint32(body, uint32(spnOffset))

	body = append(body, urlData...)
	body = append(body, spnData...)

	out := []byte{byte(token.KindFedAuthInfo)}
	out = binary.LittleEndian.AppendUint32(out, uint32(len(body)))
	return append(out, body...)
}
