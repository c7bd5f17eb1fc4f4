package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	cases := map[string]SchemaVersion{
		"":    {Major: 1},
		"1.0": {Major: 1},
		"1.3": {Major: 1, Minor: 3},
		"2":   {Major: 2},
	}
	for in, want := range cases {
		got, err := ParseVersion(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"x", "1.y", "-1", "1.-2"} {
		_, err := ParseVersion(bad)
		assert.Error(t, err, bad)
	}
}

func TestIsSupportedVersion(t *testing.T) {
	assert.True(t, IsSupportedVersion(SchemaVersion{Major: 1, Minor: 7}))
	assert.False(t, IsSupportedVersion(SchemaVersion{Major: 2}))
	assert.Equal(t, "1.3", SchemaVersion{Major: 1, Minor: 3}.String())
}

func TestLoadHCL_RejectsFutureSchema(t *testing.T) {
	_, err := LoadHCL([]byte(`schema_version = "2.0"`), "future.hcl")
	assert.Error(t, err)
}
