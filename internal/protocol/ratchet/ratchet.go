// Package ratchet derives per-message keys from a chain key and a monotonic
// counter.
//
// Both outputs of Advance are pure functions of (chainKey, counter): holding
// the chain key yields every message key for every counter. Forward secrecy
// is therefore a property of the participants' key-rotation discipline —
// rotate the chain key and discard the old one — not of this derivation
// alone. The on-protocol side only ever carries the counter, an ephemeral
// public value and ciphertext; the chain key never crosses the wire.
package ratchet

import (
	"crypto/sha256"
	"encoding/binary"

	"styx/internal/cryptographic/encryption"
	"styx/internal/cryptographic/keyderive"
	"styx/internal/protocol/instruction"
)

// Advance derives the next chain key and the message key for one counter
// step, using domain-separated hashing with distinct marker bytes.
func Advance(chainKey [32]byte, counter uint64) (nextChain, messageKey [32]byte) {
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], counter)

	h := sha256.New()
	h.Write([]byte(keyderive.RatchetChainDomain))
	h.Write(chainKey[:])
	h.Write(ctr[:])
	h.Write([]byte{0x01})
	nextChain = [32]byte(h.Sum(nil))

	h = sha256.New()
	h.Write([]byte(keyderive.RatchetMessageDomain))
	h.Write(chainKey[:])
	h.Write(ctr[:])
	h.Write([]byte{0x02})
	messageKey = [32]byte(h.Sum(nil))

	return nextChain, messageKey
}

// aad binds the ciphertext to the public header fields.
func aad(sessionID [32]byte, counter uint64, ephemeral [32]byte) []byte {
	b := make([]byte, 0, 32+8+32)
	b = append(b, sessionID[:]...)
	b = binary.LittleEndian.AppendUint64(b, counter)
	return append(b, ephemeral[:]...)
}

func nonce(sessionID [32]byte, counter uint64) [keyderive.NonceSize]byte {
	material := make([]byte, 0, 32+8)
	material = append(material, sessionID[:]...)
	material = binary.LittleEndian.AppendUint64(material, counter)
	return keyderive.DeriveNonce(keyderive.RatchetMessageDomain, material)
}

// Seal encrypts one message at the given counter and produces the wire
// instruction. The caller advances its local chain with Advance and
// discards the old chain key; Seal itself stays stateless.
func Seal(chainKey [32]byte, counter uint64, sessionID, ephemeral [32]byte, plaintext []byte) (*instruction.RatchetMessage, error) {
	_, msgKey := Advance(chainKey, counter)
	ct, err := encryption.AEADEncrypt(msgKey, nonce(sessionID, counter), plaintext, aad(sessionID, counter, ephemeral))
	if err != nil {
		return nil, err
	}
	return &instruction.RatchetMessage{
		Flags:           instruction.FlagEncrypt,
		SessionID:       sessionID,
		Counter:         counter,
		EphemeralPubkey: ephemeral,
		Ciphertext:      ct,
	}, nil
}

// Open decrypts a sealed ratchet message with the chain key held by the
// receiving participant. A failed authentication returns no plaintext.
func Open(chainKey [32]byte, m *instruction.RatchetMessage) ([]byte, error) {
	_, msgKey := Advance(chainKey, m.Counter)
	return encryption.AEADDecrypt(msgKey, nonce(m.SessionID, m.Counter), m.Ciphertext, aad(m.SessionID, m.Counter, m.EphemeralPubkey))
}
