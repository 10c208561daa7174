package version

import (
	"testing"

	"github.com/rxtech-lab/argo-bh/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckConfigCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		binary        string
		config        string
		expectError   bool
		errorContains string
	}{
		{name: "same version", binary: "0.4.0", config: "0.4.0"},
		{name: "patch differs", binary: "0.4.2", config: "0.4.7"},
		{name: "older config minor", binary: "1.5.0", config: "1.2.0"},
		{name: "v prefixes", binary: "v1.2.0", config: "v1.2.3"},
		{name: "prerelease binary", binary: "1.2.0-rc.1", config: "1.2.0"},
		{name: "development binary", binary: "main", config: "9.9.9"},
		{name: "development config", binary: "1.0.0", config: "main"},
		{name: "newer config minor", binary: "1.2.0", config: "1.3.0", expectError: true, errorContains: "newer than binary"},
		{name: "major differs", binary: "2.0.0", config: "1.0.0", expectError: true, errorContains: "major version mismatch"},
		{name: "invalid binary", binary: "nope", config: "1.0.0", expectError: true, errorContains: "invalid binary version"},
		{name: "invalid config", binary: "1.0.0", config: "one", expectError: true, errorContains: "invalid config version"},
		{name: "empty config", binary: "1.0.0", config: "", expectError: true, errorContains: "invalid config version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConfigCompatibility(tt.binary, tt.config)
			if !tt.expectError {
				assert.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorContains)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidVersion))
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	Version = "v9.8.7"
	assert.Equal(t, "v9.8.7", GetVersion())
}
