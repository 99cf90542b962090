package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/storage/tempfile"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/domain"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/services"
	"github.com/custodia-labs/sercha-sharepoint/internal/logger"
)

var (
	documentSite     string
	documentItemID   string
	documentUniqueID string
	documentDocsOnly bool
	documentPath     string
	documentTempDir  string
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Look up and download single documents",
}

var documentGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the search record of one document",
	Long: `Resolves a document by list item id or by unique id and prints its
search record as JSON. Exactly one of --item-id and --unique-id is required.`,
	Args: cobra.NoArgs,
	RunE: runDocumentGet,
}

var documentDownloadCmd = &cobra.Command{
	Use:   "download",
	Short: "Download a file into a temporary file",
	Long: `Fetches the binary of a file by its server-relative path and prints
the location of the temporary copy. The caller removes the file.`,
	Args: cobra.NoArgs,
	RunE: runDocumentDownload,
}

func init() {
	documentCmd.PersistentFlags().StringVar(&documentSite, "site", "", "absolute site URL")
	_ = documentCmd.MarkPersistentFlagRequired("site")

	documentGetCmd.Flags().StringVar(&documentItemID, "item-id", "", "numeric list item id")
	documentGetCmd.Flags().StringVar(&documentUniqueID, "unique-id", "", "document unique id")
	documentGetCmd.Flags().BoolVar(&documentDocsOnly, "docs-only", false,
		"fail when the item is a folder (default from config)")
	documentGetCmd.MarkFlagsMutuallyExclusive("item-id", "unique-id")
	documentGetCmd.MarkFlagsOneRequired("item-id", "unique-id")

	documentDownloadCmd.Flags().StringVar(&documentPath, "path", "", "server-relative file path")
	documentDownloadCmd.Flags().StringVar(&documentTempDir, "temp-dir", "", "directory for the copy (default system temp)")
	_ = documentDownloadCmd.MarkFlagRequired("path")

	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDownloadCmd)
	rootCmd.AddCommand(documentCmd)
}

func newDocumentService(t *tenant) *services.DocumentService {
	temp := tempStore
	if temp == nil {
		temp = tempfile.NewStore(documentTempDir)
	}
	return services.NewDocumentService(t.sessions, t.transport, temp, logger.Printer{}).
		WithLibrary(t.cfg.Library)
}

func runDocumentGet(cmd *cobra.Command, _ []string) error {
	t, err := loadTenant(cmd)
	if err != nil {
		return err
	}
	docsOnly := t.cfg.DocsOnly
	if cmd.Flags().Changed("docs-only") {
		docsOnly = documentDocsOnly
	}

	lookup := newDocumentService(t)
	var rec *domain.DocumentRecord
	if documentItemID != "" {
		rec, err = lookup.ByItemID(cmd.Context(), t.cfg.Credentials(), documentSite, documentItemID, docsOnly)
	} else {
		rec, err = lookup.ByUniqueID(cmd.Context(), t.cfg.Credentials(), documentSite, documentUniqueID)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("document not found: %w", err)
	}
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func runDocumentDownload(cmd *cobra.Command, _ []string) error {
	t, err := loadTenant(cmd)
	if err != nil {
		return err
	}

	location, err := newDocumentService(t).Download(cmd.Context(), t.cfg.Credentials(), documentSite, documentPath)
	if err != nil {
		return err
	}
	cmd.Println(location)
	return nil
}
