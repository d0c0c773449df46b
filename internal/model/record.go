package model

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

type (
	// Record is the artifact a protocol invocation emits to its caller:
	// the coarse metadata that was logged plus the opaque payload bytes
	// handed onward (re-encrypted message, layered onion payload,
	// ciphertext, memo, or disclosure key). Secret-bearing fields
	// (Recipient, Amount) are only populated on paths whose contract is
	// to produce the plaintext, never on relay paths.
	Record struct {
		Kind    string `cbor:"kind" json:"kind"`
		Stealth bool   `cbor:"stealth,omitempty" json:"stealth,omitempty"`

		// Routed message metadata.
		Hop      uint8 `cbor:"hop,omitempty" json:"hop,omitempty"`
		HopCount uint8 `cbor:"hop_count,omitempty" json:"hop_count,omitempty"`
		Final    bool  `cbor:"final,omitempty" json:"final,omitempty"`

		// Ratchet message metadata.
		Counter uint64 `cbor:"counter,omitempty" json:"counter,omitempty"`

		// Compliance metadata.
		Auditor      *[32]byte  `cbor:"auditor,omitempty" json:"auditor,omitempty"`
		AuditorCount uint8      `cbor:"auditor_count,omitempty" json:"auditor_count,omitempty"`
		Reveal       RevealType `cbor:"reveal,omitempty" json:"reveal,omitempty"`

		// Transfer results, recovered for the ledger collaborator.
		Recipient *[32]byte `cbor:"recipient,omitempty" json:"recipient,omitempty"`
		Amount    *uint64   `cbor:"amount,omitempty" json:"amount,omitempty"`

		Payload []byte `cbor:"payload,omitempty" json:"payload,omitempty"`
	}
)

// recordPlain strips Record's method set so cbor encodes the struct
// fields instead of calling MarshalBinary/UnmarshalBinary recursively.
type recordPlain Record

// MarshalBinary renders the record as canonical CBOR for downstream
// consumers.
func (r *Record) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*recordPlain)(r))
}

func (r *Record) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*recordPlain)(r))
}

// RevealType selects which portion of a message a compliance disclosure
// covers.
type RevealType uint8

const (
	RevealFull RevealType = iota
	RevealAmountOnly
	RevealRecipientOnly
	RevealMetadataOnly
)

func (t RevealType) Valid() bool {
	return t <= RevealMetadataOnly
}

func (t RevealType) String() string {
	switch t {
	case RevealFull:
		return "full"
	case RevealAmountOnly:
		return "amount"
	case RevealRecipientOnly:
		return "recipient"
	case RevealMetadataOnly:
		return "metadata"
	}
	return fmt.Sprintf("reveal(%d)", uint8(t))
}
