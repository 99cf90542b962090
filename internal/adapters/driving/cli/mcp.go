package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driven/output"
	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sharepoint/internal/core/services"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can search the
tenant and list changed documents.

Tools: sharepoint_search, sharepoint_changes, sharepoint_document.
Resources: sharepoint://sites, sharepoint://documents/{uniqueId}.

By default the server speaks JSON-RPC over stdio. Use --port to serve the
streamable HTTP transport instead.

Examples:
  sercha-sp mcp serve
  sercha-sp mcp serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

// mcpPorts wires the services for the MCP server. Progress lines are
// dropped because stdout may carry the protocol.
func mcpPorts(t *tenant) *mcp.Ports {
	return &mcp.Ports{
		Credentials: t.cfg.Credentials(),
		Search: func(sink driven.RecordSink) driving.DocumentSearcher {
			return services.NewSearchService(t.sessions, t.transport, sink, nil).WithPageSize(t.cfg.PageSize)
		},
		Crawl: func(sink driven.RecordSink) driving.ChangeCrawler {
			return services.NewCrawlOrchestrator(t.sessions, t.transport, sink, nil).WithPageSize(t.cfg.PageSize)
		},
		Sites: services.NewCrawlOrchestrator(t.sessions, t.transport, output.Fanout{}, nil).
			WithPageSize(t.cfg.PageSize),
		Document: newDocumentService(t),
	}
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}

	t, err := loadTenant(cmd)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(mcpPorts(t), version)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		cmd.PrintErrf("MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
