package signature

import "encoding/hex"

// BytesToHex renders b as lowercase hex, two digits per byte.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes parses an even-length hex string. Upper and lowercase digits
// are accepted. Odd-length or non-hex input is a malformed header error.
func HexToBytes(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, malformedHeader("signature hex must have even length, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, malformedHeader("signature is not valid hex").WithCause(err)
	}
	return b, nil
}
