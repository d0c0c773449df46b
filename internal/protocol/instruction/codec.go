package instruction

import (
	"encoding/binary"
	"fmt"

	"styx/internal/model"
)

// Fixed-field minimum lengths per tag, including the tag byte itself.
const (
	minPrivateMessage   = 1 + 1 + 32 + 32 + 2
	minRoutedMessage    = 1 + 1 + 1 + 32 + 1 + 32 + 2
	minPrivateTransfer  = 1 + 1 + 32 + 32 + 8 + 8 + 2
	minRatchetMessage   = 1 + 1 + 32 + 8 + 32 + 2
	lenComplianceReveal = 1 + 1 + 32 + 32 + 32 + 1
)

// Decode parses an instruction buffer into its typed form. The layout is
// validated here exactly once: tag, fixed-field minimum, every declared
// length against the remaining buffer, and no trailing bytes.
func Decode(buf []byte) (Instruction, error) {
	if len(buf) == 0 {
		return nil, ErrEmpty
	}
	switch buf[0] {
	case TagPrivateMessage:
		return decodePrivateMessage(buf)
	case TagRoutedMessage:
		return decodeRoutedMessage(buf)
	case TagPrivateTransfer:
		return decodePrivateTransfer(buf)
	case TagRatchetMessage:
		return decodeRatchetMessage(buf)
	case TagComplianceReveal:
		return decodeComplianceReveal(buf)
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownTag, buf[0])
}

func decodePrivateMessage(buf []byte) (*PrivateMessage, error) {
	if len(buf) < minPrivateMessage {
		return nil, fmt.Errorf("%w: private_message", ErrTooShort)
	}
	m := &PrivateMessage{Flags: buf[1]}
	o := 2
	m.EncryptedRecipient = [32]byte(buf[o : o+32])
	o += 32
	m.Sender = [32]byte(buf[o : o+32])
	o += 32
	payloadLen := int(binary.LittleEndian.Uint16(buf[o : o+2]))
	o += 2
	if o+payloadLen > len(buf) {
		return nil, fmt.Errorf("%w: payload", ErrLength)
	}
	m.Payload = append([]byte(nil), buf[o:o+payloadLen]...)
	o += payloadLen

	if m.Flags&FlagCompliance != 0 && o < len(buf) {
		auditorCount := int(buf[o])
		o++
		if o+auditorCount*32 > len(buf) {
			return nil, fmt.Errorf("%w: auditors", ErrLength)
		}
		for i := 0; i < auditorCount; i++ {
			m.Auditors = append(m.Auditors, [32]byte(buf[o:o+32]))
			o += 32
		}
		if o+2 > len(buf) {
			return nil, fmt.Errorf("%w: disclosure length", ErrTooShort)
		}
		discLen := int(binary.LittleEndian.Uint16(buf[o : o+2]))
		o += 2
		if o+discLen > len(buf) {
			return nil, fmt.Errorf("%w: disclosure", ErrLength)
		}
		m.Disclosure = append([]byte(nil), buf[o:o+discLen]...)
		o += discLen
	}
	if o != len(buf) {
		return nil, ErrTrailing
	}
	return m, nil
}

func decodeRoutedMessage(buf []byte) (*RoutedMessage, error) {
	if len(buf) < minRoutedMessage {
		return nil, fmt.Errorf("%w: routed_message", ErrTooShort)
	}
	m := &RoutedMessage{Flags: buf[1], HopCount: buf[2]}
	o := 3
	m.SessionID = [32]byte(buf[o : o+32])
	o += 32
	m.CurrentHop = buf[o]
	o++
	m.NextHopEncrypted = [32]byte(buf[o : o+32])
	o += 32
	payloadLen := int(binary.LittleEndian.Uint16(buf[o : o+2]))
	o += 2
	if o+payloadLen > len(buf) {
		return nil, fmt.Errorf("%w: payload", ErrLength)
	}
	m.Payload = append([]byte(nil), buf[o:o+payloadLen]...)
	o += payloadLen
	if o != len(buf) {
		return nil, ErrTrailing
	}
	return m, nil
}

func decodePrivateTransfer(buf []byte) (*PrivateTransfer, error) {
	if len(buf) < minPrivateTransfer {
		return nil, fmt.Errorf("%w: private_transfer", ErrTooShort)
	}
	m := &PrivateTransfer{Flags: buf[1]}
	o := 2
	m.EncryptedRecipient = [32]byte(buf[o : o+32])
	o += 32
	m.Sender = [32]byte(buf[o : o+32])
	o += 32
	m.EncryptedAmount = binary.LittleEndian.Uint64(buf[o : o+8])
	o += 8
	m.AmountNonce = [8]byte(buf[o : o+8])
	o += 8
	memoLen := int(binary.LittleEndian.Uint16(buf[o : o+2]))
	o += 2
	if o+memoLen > len(buf) {
		return nil, fmt.Errorf("%w: memo", ErrLength)
	}
	if memoLen > 0 {
		m.Memo = append([]byte(nil), buf[o:o+memoLen]...)
	}
	o += memoLen
	if o != len(buf) {
		return nil, ErrTrailing
	}
	return m, nil
}

func decodeRatchetMessage(buf []byte) (*RatchetMessage, error) {
	if len(buf) < minRatchetMessage {
		return nil, fmt.Errorf("%w: ratchet_message", ErrTooShort)
	}
	m := &RatchetMessage{Flags: buf[1]}
	o := 2
	m.SessionID = [32]byte(buf[o : o+32])
	o += 32
	m.Counter = binary.LittleEndian.Uint64(buf[o : o+8])
	o += 8
	m.EphemeralPubkey = [32]byte(buf[o : o+32])
	o += 32
	ctLen := int(binary.LittleEndian.Uint16(buf[o : o+2]))
	o += 2
	if o+ctLen > len(buf) {
		return nil, fmt.Errorf("%w: ciphertext", ErrLength)
	}
	m.Ciphertext = append([]byte(nil), buf[o:o+ctLen]...)
	o += ctLen
	if o != len(buf) {
		return nil, ErrTrailing
	}
	return m, nil
}

func decodeComplianceReveal(buf []byte) (*ComplianceReveal, error) {
	if len(buf) < lenComplianceReveal {
		return nil, fmt.Errorf("%w: compliance_reveal", ErrTooShort)
	}
	if len(buf) > lenComplianceReveal {
		return nil, ErrTrailing
	}
	m := &ComplianceReveal{Flags: buf[1]}
	o := 2
	m.MessageID = [32]byte(buf[o : o+32])
	o += 32
	m.Auditor = [32]byte(buf[o : o+32])
	o += 32
	m.DisclosureKey = [32]byte(buf[o : o+32])
	o += 32
	m.RevealType = model.RevealType(buf[o])
	return m, nil
}

func appendU16Len(out []byte, n int, what string) ([]byte, error) {
	if n > 65535 {
		return nil, fmt.Errorf("%w: %s %d bytes", ErrOversize, what, n)
	}
	return binary.LittleEndian.AppendUint16(out, uint16(n)), nil
}

func (m *PrivateMessage) Encode() ([]byte, error) {
	out := make([]byte, 0, minPrivateMessage+len(m.Payload))
	out = append(out, TagPrivateMessage, m.Flags)
	out = append(out, m.EncryptedRecipient[:]...)
	out = append(out, m.Sender[:]...)
	out, err := appendU16Len(out, len(m.Payload), "payload")
	if err != nil {
		return nil, err
	}
	out = append(out, m.Payload...)

	if m.Flags&FlagCompliance != 0 {
		if len(m.Auditors) > 255 {
			return nil, fmt.Errorf("%w: %d auditors", ErrOversize, len(m.Auditors))
		}
		out = append(out, byte(len(m.Auditors)))
		for _, a := range m.Auditors {
			out = append(out, a[:]...)
		}
		out, err = appendU16Len(out, len(m.Disclosure), "disclosure")
		if err != nil {
			return nil, err
		}
		out = append(out, m.Disclosure...)
	}
	return out, nil
}

func (m *RoutedMessage) Encode() ([]byte, error) {
	out := make([]byte, 0, minRoutedMessage+len(m.Payload))
	out = append(out, TagRoutedMessage, m.Flags, m.HopCount)
	out = append(out, m.SessionID[:]...)
	out = append(out, m.CurrentHop)
	out = append(out, m.NextHopEncrypted[:]...)
	out, err := appendU16Len(out, len(m.Payload), "payload")
	if err != nil {
		return nil, err
	}
	return append(out, m.Payload...), nil
}

func (m *PrivateTransfer) Encode() ([]byte, error) {
	out := make([]byte, 0, minPrivateTransfer+len(m.Memo))
	out = append(out, TagPrivateTransfer, m.Flags)
	out = append(out, m.EncryptedRecipient[:]...)
	out = append(out, m.Sender[:]...)
	out = binary.LittleEndian.AppendUint64(out, m.EncryptedAmount)
	out = append(out, m.AmountNonce[:]...)
	out, err := appendU16Len(out, len(m.Memo), "memo")
	if err != nil {
		return nil, err
	}
	return append(out, m.Memo...), nil
}

func (m *RatchetMessage) Encode() ([]byte, error) {
	out := make([]byte, 0, minRatchetMessage+len(m.Ciphertext))
	out = append(out, TagRatchetMessage, m.Flags)
	out = append(out, m.SessionID[:]...)
	out = binary.LittleEndian.AppendUint64(out, m.Counter)
	out = append(out, m.EphemeralPubkey[:]...)
	out, err := appendU16Len(out, len(m.Ciphertext), "ciphertext")
	if err != nil {
		return nil, err
	}
	return append(out, m.Ciphertext...), nil
}

func (m *ComplianceReveal) Encode() ([]byte, error) {
	out := make([]byte, 0, lenComplianceReveal)
	out = append(out, TagComplianceReveal, m.Flags)
	out = append(out, m.MessageID[:]...)
	out = append(out, m.Auditor[:]...)
	out = append(out, m.DisclosureKey[:]...)
	return append(out, byte(m.RevealType)), nil
}
