package instruction

import (
	"styx/internal/cryptographic/keyderive"
	"styx/internal/model"
)

// Sender-side constructors. These apply the same derivations the processor
// reverses, with the argument-order contract (sender first) fixed in one
// place.

// NewPrivateMessage obfuscates the recipient and wraps payload for tag 3.
// The payload is typically an encoded envelope; it travels as given and is
// sealed on the processing side when FlagEncrypt is set.
func NewPrivateMessage(sender, recipient [32]byte, payload []byte, flags byte) *PrivateMessage {
	return &PrivateMessage{
		Flags:              flags,
		EncryptedRecipient: keyderive.MaskAddress(sender, recipient),
		Sender:             sender,
		Payload:            payload,
	}
}

// NewPrivateTransfer masks amount under (sender, recipient, amountNonce)
// and obfuscates the recipient for tag 5. The amountNonce must be single
// use per sender/recipient pair: a reuse lets an observer XOR two encrypted
// amounts.
func NewPrivateTransfer(sender, recipient [32]byte, amount uint64, amountNonce [8]byte, memo []byte) *PrivateTransfer {
	mask := keyderive.TransferMask(sender, recipient, amountNonce)
	return &PrivateTransfer{
		Flags:              FlagEncrypt,
		EncryptedRecipient: keyderive.MaskAddress(sender, recipient),
		Sender:             sender,
		EncryptedAmount:    amount ^ mask,
		AmountNonce:        amountNonce,
		Memo:               memo,
	}
}

// NewComplianceReveal addresses a disclosure key to an auditor for tag 8.
func NewComplianceReveal(messageID, auditor, disclosureKey [32]byte, reveal model.RevealType) *ComplianceReveal {
	return &ComplianceReveal{
		MessageID:     messageID,
		Auditor:       auditor,
		DisclosureKey: disclosureKey,
		RevealType:    reveal,
	}
}
