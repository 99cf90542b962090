package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/services"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

var (
	searchRequest string
	searchSince   string
	searchSelect  []string
	searchSinks   sinkFlags
)

var searchCmd = &cobra.Command{
	Use:   "search [request]",
	Short: "Search SharePoint documents",
	Long: `Runs a KQL search restricted to documents and prints one record per
result, most recently modified first. Results are paged until the tenant
returns an empty page.

The request defaults to the configured search_request. With --since only
documents modified after that time are returned.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchRequest, "request", "r", "", "KQL request (default from config)")
	searchCmd.Flags().StringVar(&searchSince, "since", "",
		"only documents modified after this time, "+domain.LastModifiedLayout)
	searchCmd.Flags().StringSliceVar(&searchSelect, "select", nil,
		"extra managed properties to return (default from config)")
	searchSinks.register(searchCmd)
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	opts := domain.SearchOptions{}
	if strings.TrimSpace(searchSince) != "" {
		since, err := domain.ParseLastModifiedTime(searchSince)
		if err != nil {
			return err
		}
		opts.Since = &since
	}

	t, err := loadTenant(cmd)
	if err != nil {
		return err
	}

	switch {
	case len(args) == 1:
		opts.Request = args[0]
	case searchRequest != "":
		opts.Request = searchRequest
	default:
		opts.Request = t.cfg.SearchRequest
	}
	opts.SelectProperties = t.cfg.SelectProperties
	if cmd.Flags().Changed("select") {
		opts.SelectProperties = domain.MergeSelectProperties(nil, searchSelect)
	}

	ctx := cmd.Context()
	sink, err := searchSinks.open(ctx, cmd, t, "search")
	if err != nil {
		return err
	}

	searcher := services.NewSearchService(t.sessions, t.transport, sink, logger.Printer{}).
		WithPageSize(t.cfg.PageSize)
	_, searchErr := searcher.Search(ctx, t.cfg.Credentials(), opts)

	if err := sink.Close(); err != nil && searchErr == nil {
		return fmt.Errorf("closing sink: %w", err)
	}
	if searchErr != nil {
		return fmt.Errorf("search failed: %w", searchErr)
	}
	return nil
}
