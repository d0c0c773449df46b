// Package instruction defines the protocol instruction set as a closed
// tagged union. A buffer is parsed exactly once at this boundary; every
// later stage works with typed fields instead of byte offsets.
package instruction

import (
	"errors"
	"fmt"

	"styx/internal/model"
)

// Instruction tags, the first byte of every instruction buffer.
const (
	TagPrivateMessage   byte = 3
	TagRoutedMessage    byte = 4
	TagPrivateTransfer  byte = 5
	TagRatchetMessage   byte = 7
	TagComplianceReveal byte = 8
)

// Flag bits shared by the instruction formats.
const (
	FlagEncrypt    byte = 1 << 0
	FlagStealth    byte = 1 << 1
	FlagCompliance byte = 1 << 4
)

var (
	ErrEmpty      = errors.New("instruction: empty buffer")
	ErrUnknownTag = errors.New("instruction: unknown tag")
	ErrTooShort   = errors.New("instruction: buffer shorter than fixed fields")
	ErrLength     = errors.New("instruction: declared length exceeds buffer")
	ErrTrailing   = errors.New("instruction: trailing bytes")
	ErrOversize   = errors.New("instruction: field too large for wire format")
)

type (
	// Instruction is implemented only by the five concrete instruction
	// types in this package.
	Instruction interface {
		Tag() byte
		Encode() ([]byte, error)

		sealed()
	}

	// PrivateMessage is tag 3: an obfuscated-recipient message with an
	// optional compliance block.
	PrivateMessage struct {
		Flags              byte
		EncryptedRecipient [32]byte
		Sender             [32]byte
		Payload            []byte

		// Compliance block, present only when Flags has FlagCompliance.
		Auditors   [][32]byte
		Disclosure []byte
	}

	// RoutedMessage is tag 4: one hop of an onion route. All routing state
	// lives in these bytes; there is no server-side session table.
	RoutedMessage struct {
		Flags            byte
		HopCount         uint8
		SessionID        [32]byte
		CurrentHop       uint8
		NextHopEncrypted [32]byte
		Payload          []byte
	}

	// PrivateTransfer is tag 5: a value transfer with masked amount and
	// obfuscated recipient.
	PrivateTransfer struct {
		Flags              byte
		EncryptedRecipient [32]byte
		Sender             [32]byte
		EncryptedAmount    uint64
		AmountNonce        [8]byte
		Memo               []byte
	}

	// RatchetMessage is tag 7: a forward-secret message; the chain key
	// itself never appears on the wire.
	RatchetMessage struct {
		Flags           byte
		SessionID       [32]byte
		Counter         uint64
		EphemeralPubkey [32]byte
		Ciphertext      []byte
	}

	// ComplianceReveal is tag 8: an auditor-addressed disclosure.
	ComplianceReveal struct {
		Flags         byte
		MessageID     [32]byte
		Auditor       [32]byte
		DisclosureKey [32]byte
		RevealType    model.RevealType
	}
)

func (*PrivateMessage) Tag() byte   { return TagPrivateMessage }
func (*RoutedMessage) Tag() byte    { return TagRoutedMessage }
func (*PrivateTransfer) Tag() byte  { return TagPrivateTransfer }
func (*RatchetMessage) Tag() byte   { return TagRatchetMessage }
func (*ComplianceReveal) Tag() byte { return TagComplianceReveal }

func (*PrivateMessage) sealed()   {}
func (*RoutedMessage) sealed()    {}
func (*PrivateTransfer) sealed()  {}
func (*RatchetMessage) sealed()   {}
func (*ComplianceReveal) sealed() {}

// Name returns the instruction name for a tag, for logs and tooling.
func Name(tag byte) string {
	switch tag {
	case TagPrivateMessage:
		return "private_message"
	case TagRoutedMessage:
		return "routed_message"
	case TagPrivateTransfer:
		return "private_transfer"
	case TagRatchetMessage:
		return "ratchet_message"
	case TagComplianceReveal:
		return "compliance_reveal"
	}
	return fmt.Sprintf("tag(%d)", tag)
}
