package envelope

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// TokenPrefix marks the human-shareable textual form of an encoded envelope.
const TokenPrefix = "styx1:"

var b64 = base64.RawURLEncoding

// EncodeToken renders e as an unpadded URL-safe base64 token, wrapped with
// the styx1: prefix when withPrefix is set.
func EncodeToken(e *Envelope, withPrefix bool) (string, error) {
	raw, err := Encode(e)
	if err != nil {
		return "", err
	}
	s := b64.EncodeToString(raw)
	if withPrefix {
		return TokenPrefix + s, nil
	}
	return s, nil
}

// DecodeToken parses a textual envelope token, accepting the form with or
// without the styx1: prefix.
func DecodeToken(s string) (*Envelope, error) {
	s = strings.TrimPrefix(s, TokenPrefix)
	raw, err := b64.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("envelope: token base64: %w", err)
	}
	return Decode(raw)
}
