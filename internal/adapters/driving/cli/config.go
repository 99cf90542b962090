package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-sharepoint/internal/connectors/sharepoint"
)

// secretKeys are masked by config show.
var secretKeys = map[string]bool{
	sharepoint.KeyPassword:    true,
	sharepoint.KeyAccessToken: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage settings",
	Long: `Reads and writes ~/.sercha-sp/config.toml. Every key can also be set
through the environment, e.g. SERCHA_SP_COMPANY_URL, which takes precedence
over the file. Nested keys use dots: nats.url becomes SERCHA_SP_NATS_URL.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print all settings with secrets masked",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := loadConfigStore()
	if err != nil {
		return err
	}
	var value any = args[1]
	if !secretKeys[args[0]] {
		value = typedValue(args[1])
	}
	if err := store.Set(args[0], value); err != nil {
		return fmt.Errorf("failed to save %s: %w", args[0], err)
	}
	cmd.Printf("%s updated\n", args[0])
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := loadConfigStore()
	if err != nil {
		return err
	}
	if _, ok := store.Get(args[0]); !ok {
		return fmt.Errorf("%s is not set", args[0])
	}
	cmd.Println(store.GetString(args[0]))
	return nil
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	store, err := loadConfigStore()
	if err != nil {
		return err
	}
	if err := store.Unset(args[0]); err != nil {
		return fmt.Errorf("failed to remove %s: %w", args[0], err)
	}
	cmd.Printf("%s removed\n", args[0])
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := loadConfigStore()
	if err != nil {
		return err
	}

	if path := store.Path(); path != "" {
		cmd.Printf("# %s\n", path)
	}
	keys := store.Keys()
	if len(keys) == 0 {
		cmd.Println("No settings configured.")
		return nil
	}
	for _, key := range keys {
		value := store.GetString(key)
		if secretKeys[key] {
			value = maskSecret(value)
		}
		cmd.Printf("%s = %s\n", key, value)
	}
	return nil
}

// typedValue stores integers and booleans with their type so the TOML file
// stays readable.
func typedValue(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "..." + value[len(value)-2:]
}
