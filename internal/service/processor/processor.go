// Package processor executes protocol instructions. Every invocation is a
// single-threaded, run-to-completion unit over an already-complete byte
// buffer: the instruction is decoded once at the boundary, dispatched by
// type, and either rejected with a typed failure or turned into a Record.
// Nothing is persisted between calls and no failure is recovered from
// internally; retry semantics belong to the surrounding ledger layer.
package processor

import (
	"encoding/base64"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"styx/internal/cryptographic/encryption"
	"styx/internal/cryptographic/keyderive"
	"styx/internal/model"
	"styx/internal/params"
	"styx/internal/protocol/instruction"
)

// Failure taxonomy. Callers match with errors.Is; messages stay
// metadata-minimal.
var (
	ErrMalformed   = errors.New("processor: malformed input")
	ErrPolicy      = errors.New("processor: policy violation")
	ErrCrypto      = errors.New("processor: cryptographic failure")
	ErrConsistency = errors.New("processor: consistency failure")
	ErrNoLedger    = errors.New("processor: no ledger collaborator configured")
)

type (
	// Ledger is the external collaborator that moves value. The processor
	// hands it the recovered plaintext recipient and amount; everything
	// about account ownership, rent and fees is the ledger's business.
	Ledger interface {
		Transfer(from, to [32]byte, amount uint64) error
	}

	// TransferAccounts carries the externally supplied accounts of a
	// private transfer. Dest must match the decrypted recipient exactly.
	TransferAccounts struct {
		From [32]byte
		Dest [32]byte
	}

	Processor struct {
		params *params.Params
		log    *zap.Logger
		ledger Ledger
	}
)

// New builds a processor over validated params. A nil logger is replaced
// with a no-op one; a nil ledger is allowed and restricts transfers to
// recovery-only processing.
func New(p *params.Params, logger *zap.Logger, ledger Ledger) (*Processor, error) {
	if p == nil {
		p = params.Default()
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{params: p, log: logger, ledger: ledger}, nil
}

// Process runs one instruction. accounts is only consulted for private
// transfers and may be nil, in which case the transfer is recovered and
// recorded but no funds move.
func (p *Processor) Process(data []byte, accounts *TransferAccounts) (*model.Record, error) {
	ins, err := instruction.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	switch m := ins.(type) {
	case *instruction.PrivateMessage:
		return p.privateMessage(m)
	case *instruction.RoutedMessage:
		return p.routedMessage(m)
	case *instruction.PrivateTransfer:
		return p.privateTransfer(m, accounts)
	case *instruction.RatchetMessage:
		return p.ratchetMessage(m)
	case *instruction.ComplianceReveal:
		return p.complianceReveal(m)
	}
	return nil, fmt.Errorf("%w: unhandled instruction", ErrMalformed)
}

func (p *Processor) checkPayload(n int) error {
	if n > p.params.MaxPayload {
		return fmt.Errorf("%w: payload %d exceeds ceiling %d", ErrPolicy, n, p.params.MaxPayload)
	}
	return nil
}

func (p *Processor) privateMessage(m *instruction.PrivateMessage) (*model.Record, error) {
	if err := p.checkPayload(len(m.Payload)); err != nil {
		return nil, err
	}

	recipient := keyderive.MaskAddress(m.Sender, m.EncryptedRecipient)

	final := m.Payload
	if m.Flags&instruction.FlagEncrypt != 0 {
		key := keyderive.SharedKey(m.Sender, recipient)
		nonce := keyderive.DeriveNonce(keyderive.MessageNonceDomain, m.EncryptedRecipient[:])
		sealed, err := encryption.AEADEncrypt(key, nonce, m.Payload, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrCrypto, err)
		}
		final = sealed
	}

	rec := &model.Record{
		Kind:    instruction.Name(m.Tag()),
		Stealth: m.Flags&instruction.FlagStealth != 0,
		Payload: final,
	}

	if m.Flags&instruction.FlagCompliance != 0 {
		rec.AuditorCount = uint8(len(m.Auditors))
		p.log.Info("private message compliance", zap.Uint8("auditors", rec.AuditorCount))
	}

	if rec.Stealth {
		p.log.Info("private message", zap.Int("len", len(final)))
	} else {
		p.log.Info("private message", zap.Uint8("flags", m.Flags), zap.Int("len", len(final)))
	}
	return rec, nil
}

func (p *Processor) routedMessage(m *instruction.RoutedMessage) (*model.Record, error) {
	if int(m.HopCount) > int(p.params.MaxHops) {
		return nil, fmt.Errorf("%w: hop count %d exceeds %d", ErrPolicy, m.HopCount, p.params.MaxHops)
	}
	if m.CurrentHop == 0 || m.CurrentHop > m.HopCount {
		return nil, fmt.Errorf("%w: hop index %d outside route of %d", ErrPolicy, m.CurrentHop, m.HopCount)
	}
	if err := p.checkPayload(len(m.Payload)); err != nil {
		return nil, err
	}

	// The shell never decrypts a layer; the payload goes out opaque for
	// the designated next party to peel. Logs stay coarse: hop index and
	// count only, never the session id or a hop identity.
	final := m.CurrentHop == m.HopCount
	if final {
		p.log.Info("routed final", zap.Int("len", len(m.Payload)))
	} else {
		p.log.Info("routed hop",
			zap.Uint8("hop", m.CurrentHop),
			zap.Uint8("count", m.HopCount))
	}

	return &model.Record{
		Kind:     instruction.Name(m.Tag()),
		Hop:      m.CurrentHop,
		HopCount: m.HopCount,
		Final:    final,
		Payload:  m.Payload,
	}, nil
}

func (p *Processor) privateTransfer(m *instruction.PrivateTransfer, accounts *TransferAccounts) (*model.Record, error) {
	if err := p.checkPayload(len(m.Memo)); err != nil {
		return nil, err
	}

	recipient := keyderive.MaskAddress(m.Sender, m.EncryptedRecipient)
	mask := keyderive.TransferMask(m.Sender, recipient, m.AmountNonce)
	amount := m.EncryptedAmount ^ mask

	if accounts != nil {
		if accounts.Dest != recipient {
			// Hard failure before any value moves.
			return nil, fmt.Errorf("%w: destination does not match decrypted recipient", ErrConsistency)
		}
		if p.ledger == nil {
			return nil, ErrNoLedger
		}
		if err := p.ledger.Transfer(accounts.From, recipient, amount); err != nil {
			return nil, fmt.Errorf("processor: ledger transfer: %w", err)
		}
		p.log.Info("private transfer complete", zap.Uint64("amount", amount))
	}

	return &model.Record{
		Kind:      instruction.Name(m.Tag()),
		Recipient: &recipient,
		Amount:    &amount,
		Payload:   m.Memo,
	}, nil
}

func (p *Processor) ratchetMessage(m *instruction.RatchetMessage) (*model.Record, error) {
	if err := p.checkPayload(len(m.Ciphertext)); err != nil {
		return nil, err
	}

	// The chain key never reaches this side, so the ciphertext stays
	// opaque here; only the counter and length are logged for the
	// endpoints to order their chains by.
	p.log.Info("ratchet message",
		zap.Uint64("counter", m.Counter),
		zap.Int("len", len(m.Ciphertext)))

	return &model.Record{
		Kind:    instruction.Name(m.Tag()),
		Counter: m.Counter,
		Payload: m.Ciphertext,
	}, nil
}

func (p *Processor) complianceReveal(m *instruction.ComplianceReveal) (*model.Record, error) {
	if !m.RevealType.Valid() {
		return nil, fmt.Errorf("%w: reveal type %d", ErrPolicy, uint8(m.RevealType))
	}

	p.log.Info("compliance reveal",
		zap.String("auditor", base64.RawURLEncoding.EncodeToString(m.Auditor[:])),
		zap.String("type", m.RevealType.String()))

	auditor := m.Auditor
	// The disclosure key is a capability token emitted verbatim; the
	// auditor consumes it off-protocol.
	return &model.Record{
		Kind:    instruction.Name(m.Tag()),
		Auditor: &auditor,
		Reveal:  m.RevealType,
		Payload: m.DisclosureKey[:],
	}, nil
}
