// styxctl is an offline inspector for the Styx protocol formats: it
// encodes and decodes envelope tokens, summarizes instruction buffers and
// runs the processor over a single buffer. It opens no network connection
// and keeps no state.
package main

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"styx/internal/envelope"
	"styx/internal/model"
	"styx/internal/params"
	"styx/internal/protocol/instruction"
	"styx/internal/protocol/ratchet"
	"styx/internal/service/processor"
	"styx/internal/utils/log"
)

var paramsFile string

func main() {
	root := &cobra.Command{
		Use:           "styxctl",
		Short:         "Styx protocol codec and inspector",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&paramsFile, "params", "", "TOML protocol params file")

	root.AddCommand(envelopeCmd(), inspectCmd(), processCmd(), ratchetCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "styxctl:", err)
		os.Exit(1)
	}
}

func loadParams() (*params.Params, error) {
	if paramsFile == "" {
		return params.Default(), nil
	}
	return params.Load(paramsFile)
}

// readBuffer accepts hex, base64url or an envelope token from an argument
// or stdin.
func readBuffer(args []string) ([]byte, error) {
	var s string
	if len(args) > 0 {
		s = args[0]
	} else {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		s = strings.TrimSpace(string(raw))
	}
	s = strings.TrimPrefix(s, envelope.TokenPrefix)
	if b, err := hex.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}

type envelopeJSON struct {
	Version uint8  `json:"v"`
	Kind    string `json:"kind"`
	Algo    string `json:"algo"`
	ID      string `json:"id"`
	ToHash  string `json:"to_hash,omitempty"`
	From    string `json:"from,omitempty"`
	Nonce   string `json:"nonce,omitempty"`
	Body    string `json:"body"`
	AAD     string `json:"aad,omitempty"`
	Sig     string `json:"sig,omitempty"`
}

func b64(v []byte) string { return base64.RawURLEncoding.EncodeToString(v) }

func decode32(s string) ([32]byte, error) {
	var out [32]byte
	v, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(v) != 32 {
		return out, fmt.Errorf("expected 32 bytes, got %d", len(v))
	}
	copy(out[:], v)
	return out, nil
}

func toJSON(e *envelope.Envelope) *envelopeJSON {
	j := &envelopeJSON{
		Version: e.Version,
		Kind:    e.Kind.String(),
		Algo:    e.Algo.String(),
		ID:      b64(e.ID[:]),
		Body:    b64(e.Body),
	}
	if e.ToHash != nil {
		j.ToHash = b64(e.ToHash[:])
	}
	if e.From != nil {
		j.From = b64(e.From[:])
	}
	if e.Nonce != nil {
		j.Nonce = b64(e.Nonce)
	}
	if e.AAD != nil {
		j.AAD = b64(e.AAD)
	}
	if e.Sig != nil {
		j.Sig = b64(e.Sig)
	}
	return j
}

func fromJSON(j *envelopeJSON) (*envelope.Envelope, error) {
	e := &envelope.Envelope{Version: j.Version}
	switch j.Kind {
	case "message":
		e.Kind = envelope.KindMessage
	case "reveal":
		e.Kind = envelope.KindReveal
	case "keybundle":
		e.Kind = envelope.KindKeybundle
	default:
		return nil, fmt.Errorf("unknown kind %q", j.Kind)
	}
	switch j.Algo {
	case "pmf1":
		e.Algo = envelope.AlgoPmf1
	default:
		return nil, fmt.Errorf("unknown algo %q", j.Algo)
	}
	id, err := decode32(j.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	e.ID = id
	if j.ToHash != "" {
		th, err := decode32(j.ToHash)
		if err != nil {
			return nil, fmt.Errorf("to_hash: %w", err)
		}
		e.ToHash = &th
	}
	if j.From != "" {
		fr, err := decode32(j.From)
		if err != nil {
			return nil, fmt.Errorf("from: %w", err)
		}
		e.From = &fr
	}
	if j.Nonce != "" {
		if e.Nonce, err = base64.RawURLEncoding.DecodeString(j.Nonce); err != nil {
			return nil, fmt.Errorf("nonce: %w", err)
		}
	}
	if e.Body, err = base64.RawURLEncoding.DecodeString(j.Body); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if j.AAD != "" {
		if e.AAD, err = base64.RawURLEncoding.DecodeString(j.AAD); err != nil {
			return nil, fmt.Errorf("aad: %w", err)
		}
	}
	if j.Sig != "" {
		if e.Sig, err = base64.RawURLEncoding.DecodeString(j.Sig); err != nil {
			return nil, fmt.Errorf("sig: %w", err)
		}
	}
	return e, nil
}

func envelopeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "envelope",
		Short: "Encode and decode envelope tokens",
	}

	encode := &cobra.Command{
		Use:   "encode [file.json]",
		Short: "JSON envelope to styx1: token",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) > 0 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(os.Stdin)
			}
			if err != nil {
				return err
			}
			var j envelopeJSON
			if err := json.Unmarshal(raw, &j); err != nil {
				return err
			}
			e, err := fromJSON(&j)
			if err != nil {
				return err
			}
			token, err := envelope.EncodeToken(e, true)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}

	decode := &cobra.Command{
		Use:   "decode [token]",
		Short: "styx1: token to JSON envelope",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var s string
			if len(args) > 0 {
				s = args[0]
			} else {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				s = strings.TrimSpace(string(raw))
			}
			e, err := envelope.DecodeToken(s)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(toJSON(e), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	cmd.AddCommand(encode, decode)
	return cmd
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [hex|base64]",
		Short: "Summarize an instruction buffer without processing it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := readBuffer(args)
			if err != nil {
				return err
			}
			ins, err := instruction.Decode(buf)
			if err != nil {
				return err
			}
			switch m := ins.(type) {
			case *instruction.PrivateMessage:
				fmt.Printf("%s flags=%#x payload=%dB auditors=%d\n",
					instruction.Name(m.Tag()), m.Flags, len(m.Payload), len(m.Auditors))
			case *instruction.RoutedMessage:
				fmt.Printf("%s hop=%d/%d payload=%dB\n",
					instruction.Name(m.Tag()), m.CurrentHop, m.HopCount, len(m.Payload))
			case *instruction.PrivateTransfer:
				fmt.Printf("%s flags=%#x memo=%dB\n",
					instruction.Name(m.Tag()), m.Flags, len(m.Memo))
			case *instruction.RatchetMessage:
				fmt.Printf("%s counter=%d ciphertext=%dB\n",
					instruction.Name(m.Tag()), m.Counter, len(m.Ciphertext))
			case *instruction.ComplianceReveal:
				fmt.Printf("%s auditor=%s type=%s\n",
					instruction.Name(m.Tag()), b64(m.Auditor[:]), m.RevealType)
			}
			return nil
		},
	}
}

func processCmd() *cobra.Command {
	var asCBOR bool
	cmd := &cobra.Command{
		Use:   "process [hex|base64]",
		Short: "Run the processor over one instruction buffer",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := readBuffer(args)
			if err != nil {
				return err
			}
			p, err := loadParams()
			if err != nil {
				return err
			}
			if dev, err := zap.NewDevelopment(); err == nil {
				log.Init(dev)
			}
			defer log.Sync()

			proc, err := processor.New(p, log.Logger(), nil)
			if err != nil {
				return err
			}
			rec, err := proc.Process(buf, nil)
			if err != nil {
				return err
			}
			return printRecord(rec, asCBOR)
		},
	}
	cmd.Flags().BoolVar(&asCBOR, "cbor", false, "print the record as base64 CBOR instead of JSON")
	return cmd
}

func printRecord(rec *model.Record, asCBOR bool) error {
	if asCBOR {
		raw, err := rec.MarshalBinary()
		if err != nil {
			return err
		}
		fmt.Println(b64(raw))
		return nil
	}
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func ratchetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ratchet <chain-key-hex> <counter>",
		Short: "Derive the next chain key and message key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := hex.DecodeString(args[0])
			if err != nil {
				return err
			}
			if len(raw) != 32 {
				return fmt.Errorf("chain key must be 32 bytes, got %d", len(raw))
			}
			var counter uint64
			if _, err := fmt.Sscanf(args[1], "%d", &counter); err != nil {
				return fmt.Errorf("counter: %w", err)
			}
			next, msg := ratchet.Advance([32]byte(raw), counter)
			fmt.Printf("next_chain_key: %s\n", hex.EncodeToString(next[:]))
			fmt.Printf("message_key:    %s\n", hex.EncodeToString(msg[:]))
			return nil
		},
	}
}
