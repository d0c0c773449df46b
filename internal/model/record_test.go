package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCBOR(t *testing.T) {
	auditor := [32]byte{1, 2, 3}
	amount := uint64(42)
	in := &Record{
		Kind:    "private_transfer",
		Auditor: &auditor,
		Amount:  &amount,
		Payload: []byte("memo"),
	}

	raw, err := in.MarshalBinary()
	require.NoError(t, err)

	var out Record
	require.NoError(t, out.UnmarshalBinary(raw))
	assert.Equal(t, in.Kind, out.Kind)
	assert.Equal(t, *in.Amount, *out.Amount)
	assert.Equal(t, *in.Auditor, *out.Auditor)
	assert.Equal(t, in.Payload, out.Payload)
}

func TestRevealType(t *testing.T) {
	assert.True(t, RevealFull.Valid())
	assert.True(t, RevealMetadataOnly.Valid())
	assert.False(t, RevealType(4).Valid())

	assert.Equal(t, "amount", RevealAmountOnly.String())
	assert.Equal(t, "reveal(9)", RevealType(9).String())
}
