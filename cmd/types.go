package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/templatize/internal/config"
)

var typesCmd = &cobra.Command{
	Use:     "types",
	Aliases: []string{"t"},
	Short:   "List supported project types and their rule tables",
	RunE:    runTypes,
}

var typesRules string

func init() {
	rootCmd.AddCommand(typesCmd)

	typesCmd.Flags().StringVar(&typesRules, "rules", "", "YAML file of custom rule tables merged over the builtins")
}

func runTypes(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if typesRules != "" {
		cfg.RuleFile = typesRules
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	for _, projectType := range registry.Types() {
		table, err := registry.Get(projectType)
		if err != nil {
			return err
		}

		fmt.Println(projectType)
		fmt.Printf("  placeholders: %d, targets: %d, remove: %d, preserve: %d, sensitive: %d\n",
			len(table.Placeholders), len(table.TargetFiles),
			len(table.RemovePatterns), len(table.PreservePatterns),
			len(table.SensitivePatterns))
		for _, p := range table.Placeholders {
			required := ""
			if p.Required {
				required = " (required)"
			}
			fmt.Printf("    %s%s\n", p.Token, required)
		}
	}

	return nil
}
