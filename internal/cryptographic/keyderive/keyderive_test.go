package keyderive

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func id(b byte) [32]byte {
	var out [32]byte
	for i := range out {
		out[i] = b
	}
	return out
}

func TestSharedKeyOrderMatters(t *testing.T) {
	a, b := id(1), id(2)
	assert.NotEqual(t, SharedKey(a, b), SharedKey(b, a))
	assert.Equal(t, SharedKey(a, b), SharedKey(a, b))

	// The contract is a plain hash of the concatenation, sender first.
	h := sha256.New()
	h.Write(a[:])
	h.Write(b[:])
	assert.Equal(t, [32]byte(h.Sum(nil)), SharedKey(a, b))
}

func TestDeriveNonce(t *testing.T) {
	n1 := DeriveNonce(MessageNonceDomain, []byte("material"))
	n2 := DeriveNonce(MessageNonceDomain, []byte("material"))
	assert.Equal(t, n1, n2)

	assert.NotEqual(t, n1, DeriveNonce(OnionLayerDomain, []byte("material")))
	assert.NotEqual(t, n1, DeriveNonce(MessageNonceDomain, []byte("other")))
}

func TestMaskAddressRoundTrip(t *testing.T) {
	sender := id(0x55)
	for _, addr := range [][32]byte{id(0), id(0xff), {1, 2, 3}} {
		masked := MaskAddress(sender, addr)
		assert.NotEqual(t, addr, masked)
		assert.Equal(t, addr, MaskAddress(sender, masked))
	}
}

func TestMaskAddressSenderKeystreamCorrelation(t *testing.T) {
	// Known limitation of the legacy variant: the keystream depends only on
	// the sender, so two masked values XOR to the XOR of the plaintexts.
	sender := id(0x55)
	r1, r2 := id(0x01), id(0x02)
	m1, m2 := MaskAddress(sender, r1), MaskAddress(sender, r2)
	for i := 0; i < 32; i++ {
		assert.Equal(t, r1[i]^r2[i], m1[i]^m2[i])
	}
}

func TestMaskAddressSalted(t *testing.T) {
	sender, addr := id(0x55), id(0x77)

	m1 := MaskAddressSalted(sender, addr, []byte{1})
	m2 := MaskAddressSalted(sender, addr, []byte{2})
	assert.NotEqual(t, m1, m2, "different salts must give different masks")

	assert.Equal(t, addr, MaskAddressSalted(sender, m1, []byte{1}))
	assert.NotEqual(t, addr, MaskAddressSalted(sender, m2, []byte{1}))
	assert.NotEqual(t, m1, MaskAddress(sender, addr), "salted variant is a distinct domain")
}

func TestTransferMaskRoundTrip(t *testing.T) {
	sender, recipient := id(3), id(4)
	nonce := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}

	for _, amount := range []uint64{0, 1, 1_000_000, ^uint64(0)} {
		mask := TransferMask(sender, recipient, nonce)
		assert.Equal(t, amount, (amount^mask)^mask)
	}

	assert.NotEqual(t,
		TransferMask(sender, recipient, nonce),
		TransferMask(sender, recipient, [8]byte{9}),
		"mask must depend on the nonce")
	assert.NotEqual(t,
		TransferMask(sender, recipient, nonce),
		TransferMask(recipient, sender, nonce),
		"mask must depend on argument order")

	// Little-endian interpretation of the leading hash bytes.
	h := sha256.New()
	h.Write([]byte(TransferDomain))
	h.Write(sender[:])
	h.Write(recipient[:])
	h.Write(nonce[:])
	assert.Equal(t, binary.LittleEndian.Uint64(h.Sum(nil)[:8]), TransferMask(sender, recipient, nonce))
}
