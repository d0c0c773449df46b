// Package envelope implements the Styx v1 envelope, the self-describing
// binary container carried as the application payload of protocol
// instructions. Anyone holding the bytes can decode the structure; the
// confidentiality of Body and the optional fields comes from encryption,
// not from the format.
package envelope

import (
	"bytes"
	"errors"
	"fmt"
)

// Magic is the fixed four-byte tag opening every encoded envelope.
var Magic = [4]byte{'S', 'T', 'Y', 'X'}

// Version1 is the only wire version currently defined.
const Version1 uint8 = 1

type Kind uint8

const (
	KindMessage   Kind = 1
	KindReveal    Kind = 2
	KindKeybundle Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindReveal:
		return "reveal"
	case KindKeybundle:
		return "keybundle"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) valid() bool {
	return k >= KindMessage && k <= KindKeybundle
}

type Algo uint8

const (
	AlgoPmf1 Algo = 1
)

func (a Algo) String() string {
	if a == AlgoPmf1 {
		return "pmf1"
	}
	return fmt.Sprintf("algo(%d)", uint8(a))
}

func (a Algo) valid() bool {
	return a == AlgoPmf1
}

// Flag word bits. A set bit means the field is present in the byte stream;
// a clear bit means the field is absent entirely, not zero-filled.
const (
	flagToHash uint16 = 1 << 0
	flagFrom   uint16 = 1 << 1
	flagNonce  uint16 = 1 << 2
	flagAAD    uint16 = 1 << 3
	flagSig    uint16 = 1 << 4
)

// minEncodedLen is magic + version + kind + flags + algo + id.
const minEncodedLen = 4 + 1 + 1 + 2 + 1 + 32

var (
	ErrTooShort       = errors.New("envelope: buffer too short")
	ErrBadMagic       = errors.New("envelope: bad magic")
	ErrBadVersion     = errors.New("envelope: unsupported version")
	ErrUnknownKind    = errors.New("envelope: unknown kind")
	ErrUnknownAlgo    = errors.New("envelope: unknown algo")
	ErrTrailingBytes  = errors.New("envelope: trailing bytes after decode")
	ErrFieldOverflow  = errors.New("envelope: field length exceeds buffer")
	ErrVarintOverflow = errors.New("envelope: varint overflow")
)

type (
	// Envelope is the decoded form of a Styx v1 container. Optional 32-byte
	// fields are pointers so that absence and an all-zero value stay distinct;
	// optional variable fields are nil when absent.
	Envelope struct {
		Version uint8
		Kind    Kind
		Algo    Algo
		ID      [32]byte
		ToHash  *[32]byte
		From    *[32]byte
		Nonce   []byte
		Body    []byte
		AAD     []byte
		Sig     []byte
	}
)

func (e *Envelope) flags() uint16 {
	var f uint16
	if e.ToHash != nil {
		f |= flagToHash
	}
	if e.From != nil {
		f |= flagFrom
	}
	if e.Nonce != nil {
		f |= flagNonce
	}
	if e.AAD != nil {
		f |= flagAAD
	}
	if e.Sig != nil {
		f |= flagSig
	}
	return f
}

// Equal reports deep equality of two envelopes, treating absent and
// zero-length variable fields as distinct.
func (e *Envelope) Equal(o *Envelope) bool {
	if e.Version != o.Version || e.Kind != o.Kind || e.Algo != o.Algo || e.ID != o.ID {
		return false
	}
	if (e.ToHash == nil) != (o.ToHash == nil) || (e.ToHash != nil && *e.ToHash != *o.ToHash) {
		return false
	}
	if (e.From == nil) != (o.From == nil) || (e.From != nil && *e.From != *o.From) {
		return false
	}
	if (e.Nonce == nil) != (o.Nonce == nil) || !bytes.Equal(e.Nonce, o.Nonce) {
		return false
	}
	if !bytes.Equal(e.Body, o.Body) {
		return false
	}
	if (e.AAD == nil) != (o.AAD == nil) || !bytes.Equal(e.AAD, o.AAD) {
		return false
	}
	if (e.Sig == nil) != (o.Sig == nil) || !bytes.Equal(e.Sig, o.Sig) {
		return false
	}
	return true
}
