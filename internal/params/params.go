// Package params collects the tunable protocol bounds as named, validated
// configuration instead of scattered literals. Domain-separation tags are
// deliberately not configurable; they are part of the wire contract and
// live as constants in the keyderive package.
package params

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

const (
	// DefaultMaxHops is the routed-message hop bound.
	DefaultMaxHops = 5

	// DefaultMaxPayload is the ceiling on variable payload fields. Wire
	// lengths are 16-bit, so this can never exceed 65535.
	DefaultMaxPayload = 65535
)

type (
	Params struct {
		MaxHops    uint8 `toml:"max_hops"`
		MaxPayload int   `toml:"max_payload"`
	}
)

func Default() *Params {
	return &Params{
		MaxHops:    DefaultMaxHops,
		MaxPayload: DefaultMaxPayload,
	}
}

// Validate checks the bounds at startup; a Processor refuses params that
// fail here.
func (p *Params) Validate() error {
	if p.MaxHops < 1 || p.MaxHops > 16 {
		return fmt.Errorf("params: max_hops %d outside [1,16]", p.MaxHops)
	}
	if p.MaxPayload < 1 || p.MaxPayload > 65535 {
		return fmt.Errorf("params: max_payload %d outside [1,65535]", p.MaxPayload)
	}
	return nil
}

// Load reads a TOML params file, applying defaults for absent keys.
func Load(path string) (*Params, error) {
	p := Default()
	if _, err := toml.DecodeFile(path, p); err != nil {
		return nil, fmt.Errorf("params: decode %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
