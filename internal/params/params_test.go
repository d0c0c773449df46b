package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestValidateBounds(t *testing.T) {
	cases := []struct {
		name string
		p    Params
		ok   bool
	}{
		{"zero hops", Params{MaxHops: 0, MaxPayload: 100}, false},
		{"too many hops", Params{MaxHops: 17, MaxPayload: 100}, false},
		{"zero payload", Params{MaxHops: 5, MaxPayload: 0}, false},
		{"payload past u16", Params{MaxHops: 5, MaxPayload: 70000}, false},
		{"tight but legal", Params{MaxHops: 1, MaxPayload: 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_hops = 3\n"), 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint8(3), p.MaxHops)
	assert.Equal(t, DefaultMaxPayload, p.MaxPayload, "absent keys keep defaults")

	require.NoError(t, os.WriteFile(path, []byte("max_hops = 99\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err, "loaded params are validated")

	_, err = Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}
