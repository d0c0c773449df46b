package envelope

import (
	"encoding/binary"
	"fmt"
)

// uleb128Append appends n as an unsigned base-128 varint, 7 bits per byte,
// continuation bit high, least significant group first.
func uleb128Append(out []byte, n uint64) []byte {
	for {
		b := byte(n & 0x7f)
		n >>= 7
		if n != 0 {
			out = append(out, b|0x80)
		} else {
			return append(out, b)
		}
	}
}

func uleb128Read(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i >= len(buf) {
			return 0, 0, ErrVarintOverflow
		}
		b := buf[i]
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
		if shift > 28 {
			return 0, 0, fmt.Errorf("%w: too large", ErrVarintOverflow)
		}
	}
}

func varBytesAppend(out, v []byte) []byte {
	out = uleb128Append(out, uint64(len(v)))
	return append(out, v...)
}

// varBytesRead decodes a length-prefixed field, returning the field and the
// total number of bytes consumed.
func varBytesRead(buf []byte) ([]byte, int, error) {
	n, read, err := uleb128Read(buf)
	if err != nil {
		return nil, 0, err
	}
	end := read + int(n)
	if end > len(buf) || end < read {
		return nil, 0, ErrFieldOverflow
	}
	v := make([]byte, n)
	copy(v, buf[read:end])
	return v, end, nil
}

// Encode serializes e into the canonical byte form. Only version 1 envelopes
// can be encoded.
func Encode(e *Envelope) ([]byte, error) {
	if e.Version != Version1 {
		return nil, fmt.Errorf("%w: encode v=%d", ErrBadVersion, e.Version)
	}
	if !e.Kind.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(e.Kind))
	}
	if !e.Algo.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgo, uint8(e.Algo))
	}

	out := make([]byte, 0, minEncodedLen+len(e.Body)+8)
	out = append(out, Magic[:]...)
	out = append(out, e.Version, byte(e.Kind))
	out = binary.LittleEndian.AppendUint16(out, e.flags())
	out = append(out, byte(e.Algo))
	out = append(out, e.ID[:]...)

	if e.ToHash != nil {
		out = append(out, e.ToHash[:]...)
	}
	if e.From != nil {
		out = append(out, e.From[:]...)
	}
	if e.Nonce != nil {
		out = varBytesAppend(out, e.Nonce)
	}
	out = varBytesAppend(out, e.Body)
	if e.AAD != nil {
		out = varBytesAppend(out, e.AAD)
	}
	if e.Sig != nil {
		out = varBytesAppend(out, e.Sig)
	}
	return out, nil
}

// Decode parses the canonical byte form. The format is self-terminating:
// any bytes left over once all flagged fields are consumed are an error,
// so no two flag/field combinations share an encoding.
func Decode(buf []byte) (*Envelope, error) {
	if len(buf) < minEncodedLen {
		return nil, ErrTooShort
	}
	if [4]byte(buf[:4]) != Magic {
		return nil, ErrBadMagic
	}
	if buf[4] != Version1 {
		return nil, fmt.Errorf("%w: v=%d", ErrBadVersion, buf[4])
	}
	e := &Envelope{Version: buf[4], Kind: Kind(buf[5])}
	if !e.Kind.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, buf[5])
	}
	flags := binary.LittleEndian.Uint16(buf[6:8])
	e.Algo = Algo(buf[8])
	if !e.Algo.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgo, buf[8])
	}

	o := 9
	copy(e.ID[:], buf[o:o+32])
	o += 32

	if flags&flagToHash != 0 {
		if len(buf) < o+32 {
			return nil, ErrTooShort
		}
		th := [32]byte(buf[o : o+32])
		e.ToHash = &th
		o += 32
	}
	if flags&flagFrom != 0 {
		if len(buf) < o+32 {
			return nil, ErrTooShort
		}
		fr := [32]byte(buf[o : o+32])
		e.From = &fr
		o += 32
	}
	if flags&flagNonce != 0 {
		v, read, err := varBytesRead(buf[o:])
		if err != nil {
			return nil, err
		}
		e.Nonce = v
		o += read
	}

	body, read, err := varBytesRead(buf[o:])
	if err != nil {
		return nil, err
	}
	e.Body = body
	o += read

	if flags&flagAAD != 0 {
		v, read, err := varBytesRead(buf[o:])
		if err != nil {
			return nil, err
		}
		e.AAD = v
		o += read
	}
	if flags&flagSig != 0 {
		v, read, err := varBytesRead(buf[o:])
		if err != nil {
			return nil, err
		}
		e.Sig = v
		o += read
	}

	if o != len(buf) {
		return nil, ErrTrailingBytes
	}
	return e, nil
}
