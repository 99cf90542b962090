package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

func TestRootCmd_Use(t *testing.T) {
	assert.Equal(t, "sercha-sp", rootCmd.Use)
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := make([]string, 0, len(rootCmd.Commands()))
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"changes", "search", "sites", "document", "config", "runs", "mcp", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	for _, name := range []string{"verbose", "quiet", "config-dir", "env-file"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, ".env", rootCmd.PersistentFlags().Lookup("env-file").DefValue)
}

func TestRootCmd_VerboseFlagEnablesLogger(t *testing.T) {
	setupTestServices(t)

	_, _, err := execute(t, "--verbose", "version")

	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestRootCmd_LoadsEnvFile(t *testing.T) {
	setupTestServices(t)
	const key = "SERCHA_SP_TEST_ENV_FILE"
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=loaded\n"), 0600))
	t.Cleanup(func() { os.Unsetenv(key) })

	_, _, err := execute(t, "--env-file", path, "version")

	require.NoError(t, err)
	assert.Equal(t, "loaded", os.Getenv(key))
}

func TestRootCmd_MissingEnvFileIsIgnored(t *testing.T) {
	setupTestServices(t)

	_, _, err := execute(t, "--env-file", filepath.Join(t.TempDir(), "absent.env"), "version")

	assert.NoError(t, err)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: ExitOK},
		{name: "partial crawl", err: fmt.Errorf("crawl: %w", domain.ErrPartialCrawl), want: ExitPartial},
		{name: "auth failure", err: domain.ErrAuthInvalid, want: ExitFailure},
		{name: "other", err: errors.New("boom"), want: ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
