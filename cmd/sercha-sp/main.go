// Command sercha-sp crawls a SharePoint Online tenant for changed documents.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-sharepoint/internal/adapters/driving/cli"
)

func main() {
	os.Exit(cli.Execute())
}
