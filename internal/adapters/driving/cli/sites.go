package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/output"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/services"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

var sitesJSON bool

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the shared sites that a crawl would visit",
	Args:  cobra.NoArgs,
	RunE:  runSites,
}

func init() {
	sitesCmd.Flags().BoolVar(&sitesJSON, "json", false, "output sites as a JSON array")
	rootCmd.AddCommand(sitesCmd)
}

func runSites(cmd *cobra.Command, _ []string) error {
	t, err := loadTenant(cmd)
	if err != nil {
		return err
	}

	lister := services.NewCrawlOrchestrator(t.sessions, t.transport, output.Fanout{}, logger.Printer{}).
		WithPageSize(t.cfg.PageSize)
	sites, err := lister.Sites(cmd.Context(), t.cfg.Credentials())
	if err != nil && len(sites) == 0 {
		return err
	}
	if err != nil {
		logger.Warn("Listing stopped early: %v", err)
	}

	if sitesJSON {
		if sites == nil {
			sites = []string{}
		}
		data, err := json.MarshalIndent(sites, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sites: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(sites) == 0 {
		cmd.Println("No shared sites found.")
		return nil
	}
	for _, site := range sites {
		cmd.Println(site)
	}
	return nil
}
