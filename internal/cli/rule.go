package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/rebarflow/internal/ports/primary"
	"github.com/example/rebarflow/internal/wire"
)

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Manage mapping rules",
	Long:  "Author and inspect the tenant's raw-value-to-canonical mapping table",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add [field] [source-value] [mapped-value]",
	Short: "Create or overwrite a mapping rule",
	Long: `Map a raw extracted value onto the canonical vocabulary. Field is one
of bar_size, grade or shape_code. An empty mapped value is legal for
shape codes and means "straight bar".

Examples:
  rebarflow rule add bar_size "#6" 20M
  rebarflow rule add grade GR400 400W
  rebarflow rule add shape_code str ""`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		mapped := ""
		if len(args) == 3 {
			mapped = args[2]
		}

		rule, err := wire.RuleService().AddRule(serviceContext(), primary.AddRuleRequest{
			SourceField: args[0],
			SourceValue: args[1],
			MappedValue: mapped,
		})
		if err != nil {
			return fmt.Errorf("failed to add rule: %w", err)
		}

		fmt.Printf("✓ Rule %s: %s %q -> %q\n", rule.ID, rule.SourceField, rule.SourceValue, rule.MappedValue)
		return nil
	},
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tenant's mapping rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		rules, err := wire.RuleService().ListRules(serviceContext())
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		if len(rules) == 0 {
			fmt.Println("No mapping rules found.")
			return nil
		}

		for _, r := range rules {
			origin := "human"
			if r.IsAuto {
				origin = "auto"
			}
			fmt.Printf("  %s  %-10s %q -> %q  (%s)\n", r.ID, r.SourceField, r.SourceValue, r.MappedValue, origin)
		}
		return nil
	},
}

var ruleDeleteCmd = &cobra.Command{
	Use:   "delete [rule-id]",
	Short: "Delete a mapping rule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := wire.RuleService().DeleteRule(serviceContext(), args[0]); err != nil {
			return fmt.Errorf("failed to delete rule: %w", err)
		}
		fmt.Printf("✓ Deleted rule %s\n", args[0])
		return nil
	},
}

func init() {
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleListCmd)
	ruleCmd.AddCommand(ruleDeleteCmd)
}

// RuleCmd returns the rule command tree.
func RuleCmd() *cobra.Command {
	return ruleCmd
}
