package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/auth"
	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-sharepoint/internal/connectors/sharepoint"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

// Adapters used by the commands. Nil values are built on first use;
// tests replace them.
var (
	configStore     driven.ConfigStore
	sessionProvider driven.SessionProvider
	queryTransport  driven.QueryTransport
	tempStore       driven.TempStore

	// readPassword prompts for the tenant password.
	readPassword = terminalPassword
)

// tenant bundles what a command needs to talk to SharePoint.
type tenant struct {
	store     driven.ConfigStore
	cfg       *sharepoint.Config
	sessions  driven.SessionProvider
	transport driven.QueryTransport
}

func loadConfigStore() (driven.ConfigStore, error) {
	if configStore != nil {
		return configStore, nil
	}
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	configStore = store
	return store, nil
}

// loadTenant parses the tenant settings and asks for a password when
// neither a password nor an access token is configured.
func loadTenant(cmd *cobra.Command) (*tenant, error) {
	store, err := loadConfigStore()
	if err != nil {
		return nil, err
	}
	cfg, err := sharepoint.ParseConfig(store)
	if errors.Is(err, sharepoint.ErrConfigMissingURL) {
		return nil, fmt.Errorf("%w (set it with: sercha-sp config set %s <url>)", err, sharepoint.KeyCompanyURL)
	}
	if err != nil {
		return nil, err
	}

	if cfg.NeedsPassword() && cfg.Username != "" {
		password, err := readPassword(cmd, cfg.Username)
		if err != nil {
			return nil, err
		}
		cfg.Password = password
	}

	t := &tenant{store: store, cfg: cfg, sessions: sessionProvider, transport: queryTransport}
	if t.sessions == nil {
		t.sessions = auth.NewSessionProvider(auth.Settings{
			AccessToken: cfg.AccessToken,
			ClientID:    cfg.ClientID,
			TokenURL:    cfg.TokenURL,
		})
	}
	if t.transport == nil {
		t.transport = sharepoint.NewClient()
	}
	logger.Debug("Tenant %s, library %s, page size %d", cfg.CompanyURL, cfg.Library, cfg.PageSize)
	return t, nil
}

// terminalPassword reads a password without echo. When stdin is not a
// terminal it returns an empty password and session acquisition reports
// the missing credential.
func terminalPassword(cmd *cobra.Command, username string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Password for %s: ", username)
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
