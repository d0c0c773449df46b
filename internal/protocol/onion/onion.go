// Package onion builds and peels the layered payloads carried by routed
// messages. The on-protocol shell (hop bound, final-hop detection, opaque
// re-emit) lives in the processor; the layering itself is an off-protocol
// operation performed by whichever party a layer is addressed to, using
// keys derived from public identifiers.
//
// Layer i (1-based, i = current hop) is sealed with
// SharedKey(sender, hop_i) and a nonce derived from the session id and the
// hop index. Each layer's plaintext opens with a 32-byte masked next-hop
// header (all-zero identifier, masked, on the final layer) followed by the
// inner layer. A relay therefore learns its immediate neighbour and nothing
// past it.
package onion

import (
	"errors"
	"fmt"

	"styx/internal/cryptographic/encryption"
	"styx/internal/cryptographic/keyderive"
	"styx/internal/protocol/instruction"
)

var (
	ErrNoHops      = errors.New("onion: route needs at least one hop")
	ErrTooManyHops = errors.New("onion: hop count exceeds bound")
	ErrShortLayer  = errors.New("onion: layer shorter than next-hop header")
)

const headerSize = 32

func layerSalt(sessionID [32]byte, hopIndex uint8) []byte {
	return append(append([]byte(nil), sessionID[:]...), hopIndex)
}

func layerNonce(sessionID [32]byte, hopIndex uint8) [keyderive.NonceSize]byte {
	return keyderive.DeriveNonce(keyderive.OnionLayerDomain, layerSalt(sessionID, hopIndex))
}

// MaskHop obfuscates a hop identifier for the given position in the route;
// applying it twice recovers the identifier.
func MaskHop(sender, hop, sessionID [32]byte, hopIndex uint8) [32]byte {
	return keyderive.MaskAddressSalted(sender, hop, layerSalt(sessionID, hopIndex))
}

// BuildRoute wraps payload in one encryption layer per hop and returns the
// instruction handed to the first hop. hops lists the route in order, final
// recipient last; its length must not exceed maxHops.
func BuildRoute(sender, sessionID [32]byte, hops [][32]byte, payload []byte, maxHops uint8) (*instruction.RoutedMessage, error) {
	n := len(hops)
	if n == 0 {
		return nil, ErrNoHops
	}
	if n > int(maxHops) {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyHops, n, maxHops)
	}

	content := payload
	for i := n; i >= 1; i-- {
		var next [32]byte // zero marks the end of the route
		if i < n {
			next = hops[i]
		}
		header := MaskHop(sender, next, sessionID, uint8(i))
		key := keyderive.SharedKey(sender, hops[i-1])
		sealed, err := encryption.AEADEncrypt(key, layerNonce(sessionID, uint8(i)), append(header[:], content...), nil)
		if err != nil {
			return nil, err
		}
		content = sealed
	}

	return &instruction.RoutedMessage{
		Flags:            instruction.FlagEncrypt,
		HopCount:         uint8(n),
		SessionID:        sessionID,
		CurrentHop:       1,
		NextHopEncrypted: MaskHop(sender, firstNext(hops), sessionID, 1),
		Payload:          content,
	}, nil
}

func firstNext(hops [][32]byte) [32]byte {
	if len(hops) > 1 {
		return hops[1]
	}
	return [32]byte{}
}

// PeelLayer removes the layer addressed to the hop at hopIndex, returning
// the masked next-hop header and the inner content. For the final hop the
// inner content is the route's cleartext payload and the unmasked header is
// all zeros.
func PeelLayer(sender, hop, sessionID [32]byte, hopIndex uint8, layered []byte) (nextMasked [32]byte, inner []byte, err error) {
	key := keyderive.SharedKey(sender, hop)
	plain, err := encryption.AEADDecrypt(key, layerNonce(sessionID, hopIndex), layered, nil)
	if err != nil {
		return nextMasked, nil, err
	}
	if len(plain) < headerSize {
		return nextMasked, nil, ErrShortLayer
	}
	return [32]byte(plain[:headerSize]), plain[headerSize:], nil
}

// NextMessage builds the instruction a relay forwards after peeling its
// layer. The peeled next-hop header becomes the new encrypted pointer.
func NextMessage(m *instruction.RoutedMessage, nextMasked [32]byte, inner []byte) *instruction.RoutedMessage {
	return &instruction.RoutedMessage{
		Flags:            m.Flags,
		HopCount:         m.HopCount,
		SessionID:        m.SessionID,
		CurrentHop:       m.CurrentHop + 1,
		NextHopEncrypted: nextMasked,
		Payload:          inner,
	}
}
