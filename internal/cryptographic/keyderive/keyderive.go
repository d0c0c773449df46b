// Package keyderive holds the stateless derivations of the Styx protocol.
// Every function is a pure computation over its inputs; there is no key
// store and no call-to-call state.
//
// Derivation formulas (all SHA-256):
//
//	shared key    = H(sender ∥ recipient)
//	nonce         = H(domain ∥ material)[:12]
//	addr keystream = H("STYX_METADATA_KEY_V3" ∥ sender)
//	transfer mask = LE64(H("STYX_TRANSFER_V1" ∥ sender ∥ recipient ∥ nonce)[:8])
package keyderive

import (
	"crypto/sha256"
	"encoding/binary"
)

// Key derivation domain tags. The literal values are part of the wire
// contract and must never change within a protocol version.
const (
	MetadataDomain       = "STYX_METADATA_KEY_V3"
	MetadataSaltedDomain = "STYX_METADATA_KEY_SALTED_V3"
	MessageNonceDomain   = "STYX_MSG_NONCE_V3"
	RatchetChainDomain   = "STYX_RATCHET_CHAIN_V1"
	RatchetMessageDomain = "STYX_RATCHET_MSG_V1"
	TransferDomain       = "STYX_TRANSFER_V1"
	OnionLayerDomain     = "STYX_ONION_LAYER_V1"
)

// NonceSize is the AEAD nonce length produced by DeriveNonce.
const NonceSize = 12

// SharedKey derives the symmetric key for a sender/recipient pair.
// The hash is not commutative: the sender identifier goes first, and the
// decrypting party must reproduce exactly the same order.
func SharedKey(sender, recipient [32]byte) [32]byte {
	h := sha256.New()
	h.Write(sender[:])
	h.Write(recipient[:])
	return [32]byte(h.Sum(nil))
}

// DeriveNonce produces a deterministic AEAD nonce from public material.
// The caller must guarantee that material never repeats under the same key;
// a repeat breaks the AEAD completely.
func DeriveNonce(domain string, material []byte) [NonceSize]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write(material)
	return [NonceSize]byte(h.Sum(nil)[:NonceSize])
}

// MaskAddress obfuscates a 32-byte identifier with a keystream derived from
// the sender alone. XOR is self-inverse, so the same call recovers the
// identifier. This is the legacy variant kept bit-compatible with existing
// traffic; the keystream does not vary per message, so two masked values
// from one sender XOR to the XOR of the underlying identifiers. New traffic
// should use MaskAddressSalted.
func MaskAddress(sender, addr [32]byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(MetadataDomain))
	h.Write(sender[:])
	ks := h.Sum(nil)

	var out [32]byte
	for i := range out {
		out[i] = addr[i] ^ ks[i]
	}
	return out
}

// MaskAddressSalted is the per-message variant of MaskAddress: the keystream
// additionally absorbs a caller-supplied salt, so masked values from the
// same sender are uncorrelated as long as salts do not repeat.
func MaskAddressSalted(sender, addr [32]byte, salt []byte) [32]byte {
	h := sha256.New()
	h.Write([]byte(MetadataSaltedDomain))
	h.Write(sender[:])
	h.Write(salt)
	ks := h.Sum(nil)

	var out [32]byte
	for i := range out {
		out[i] = addr[i] ^ ks[i]
	}
	return out
}

// TransferMask derives the 64-bit pad hiding a transfer amount. The mask is
// a deterministic function of (sender, recipient, amountNonce); reusing a
// nonce for the same pair lets an observer XOR two encrypted amounts and
// learn the XOR of the plaintext amounts.
func TransferMask(sender, recipient [32]byte, amountNonce [8]byte) uint64 {
	h := sha256.New()
	h.Write([]byte(TransferDomain))
	h.Write(sender[:])
	h.Write(recipient[:])
	h.Write(amountNonce[:])
	return binary.LittleEndian.Uint64(h.Sum(nil)[:8])
}
