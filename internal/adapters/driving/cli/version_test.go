package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.Equal(t, "Print the version number", versionCmd.Short)
}

func TestVersionCmd_Executes(t *testing.T) {
	setupTestServices(t)
	originalVersion := version
	version = "test-version-1.0.0"
	defer func() { version = originalVersion }()

	stdout, _, err := execute(t, "version")

	require.NoError(t, err)
	assert.Equal(t, "sercha-sp version test-version-1.0.0\n", stdout)
}

func TestVersionCmd_Short(t *testing.T) {
	setupTestServices(t)
	originalVersion := version
	version = "1.2.3"
	defer func() { version = originalVersion }()

	stdout, _, err := execute(t, "version", "--short")

	require.NoError(t, err)
	assert.Equal(t, "1.2.3\n", stdout)
}
